package model

import "time"

// BootOutcome records how far the startup sequence got.
type BootOutcome string

const (
	// BootOutcomeAborted means credentials could not be loaded and no
	// network features were started.
	BootOutcomeAborted BootOutcome = "aborted"
	// BootOutcomeOffline means the join timed out or failed; the HTTP server
	// still runs on whatever interfaces are reachable.
	BootOutcomeOffline BootOutcome = "offline"
	// BootOutcomeOnline means the join succeeded.
	BootOutcomeOnline BootOutcome = "online"
)

// BootRecord is one entry of the boot journal.
type BootRecord struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    BootOutcome
	SSID       string
	IP         string
	Hostname   string
	MDNSActive bool
	Error      string // last non-fatal or fatal diagnostic, empty on a clean boot
}

// Duration returns how long the startup sequence took.
func (r BootRecord) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
