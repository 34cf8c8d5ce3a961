package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/atomicserver/internal/domain/model"
	"github.com/ericfisherdev/atomicserver/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.BootStore = (*BootRepo)(nil)

// BootRepo is the SQLite implementation of the BootStore port interface.
type BootRepo struct {
	db *DB
}

// NewBootRepo creates a new BootRepo backed by the given DB.
func NewBootRepo(db *DB) *BootRepo {
	return &BootRepo{db: db}
}

const bootColumns = `id, started_at, finished_at, outcome, ssid, ip, hostname, mdns_active, error`

// Record appends rec to the journal and returns it with its assigned ID.
func (r *BootRepo) Record(ctx context.Context, rec model.BootRecord) (model.BootRecord, error) {
	const query = `INSERT INTO boot_records
		(started_at, finished_at, outcome, ssid, ip, hostname, mdns_active, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.Writer.ExecContext(ctx, query,
		formatTime(rec.StartedAt),
		formatTime(rec.FinishedAt),
		string(rec.Outcome),
		rec.SSID,
		rec.IP,
		rec.Hostname,
		rec.MDNSActive,
		rec.Error,
	)
	if err != nil {
		return model.BootRecord{}, fmt.Errorf("record boot: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return model.BootRecord{}, fmt.Errorf("boot record id: %w", err)
	}

	rec.ID = id
	return rec, nil
}

// ListRecent returns up to limit records, newest first.
func (r *BootRepo) ListRecent(ctx context.Context, limit int) ([]model.BootRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("list boot records: limit must be > 0, got %d", limit)
	}

	query := `SELECT ` + bootColumns + ` FROM boot_records ORDER BY id DESC LIMIT ?`

	rows, err := r.db.Reader.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list boot records: %w", err)
	}
	defer rows.Close()

	var records []model.BootRecord
	for rows.Next() {
		rec, err := scanBootRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate boot records: %w", err)
	}

	return records, nil
}

// Latest returns the newest record, or (nil, nil) when the journal is empty.
func (r *BootRepo) Latest(ctx context.Context) (*model.BootRecord, error) {
	query := `SELECT ` + bootColumns + ` FROM boot_records ORDER BY id DESC LIMIT 1`

	rec, err := scanBootRecord(r.db.Reader.QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &rec, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBootRecord(s rowScanner) (model.BootRecord, error) {
	var (
		rec                   model.BootRecord
		startedAt, finishedAt string
		outcome               string
	)

	err := s.Scan(
		&rec.ID,
		&startedAt,
		&finishedAt,
		&outcome,
		&rec.SSID,
		&rec.IP,
		&rec.Hostname,
		&rec.MDNSActive,
		&rec.Error,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.BootRecord{}, err
	}
	if err != nil {
		return model.BootRecord{}, fmt.Errorf("scan boot record: %w", err)
	}

	rec.Outcome = model.BootOutcome(outcome)

	if rec.StartedAt, err = parseTime(startedAt); err != nil {
		return model.BootRecord{}, fmt.Errorf("parse started_at: %w", err)
	}
	if rec.FinishedAt, err = parseTime(finishedAt); err != nil {
		return model.BootRecord{}, fmt.Errorf("parse finished_at: %w", err)
	}

	return rec, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
