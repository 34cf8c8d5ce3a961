package driven

import (
	"context"

	"github.com/ericfisherdev/atomicserver/internal/domain/model"
)

// BootStore defines the driven port for the boot journal.
type BootStore interface {
	// Record appends a boot record and returns it with its assigned ID.
	Record(ctx context.Context, rec model.BootRecord) (model.BootRecord, error)
	// ListRecent returns up to limit records, newest first.
	ListRecent(ctx context.Context, limit int) ([]model.BootRecord, error)
	// Latest returns the newest record, or (nil, nil) when the journal is empty.
	Latest(ctx context.Context) (*model.BootRecord, error)
}
