package application

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/ericfisherdev/atomicserver/internal/domain/model"
	"github.com/ericfisherdev/atomicserver/internal/domain/port/driven"
)

// BootService runs the device startup sequence: load credentials, join the
// network once, advertise the hostname when online, and journal the outcome.
// It depends only on port interfaces.
type BootService struct {
	credentials driven.CredentialSource
	joiner      driven.NetworkJoiner
	advertiser  driven.HostAdvertiser
	store       driven.BootStore
	hostname    string
	timeout     time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// NewBootService creates a new BootService. advertiser and store may be nil,
// which disables hostname advertisement and journaling respectively.
func NewBootService(
	credentials driven.CredentialSource,
	joiner driven.NetworkJoiner,
	advertiser driven.HostAdvertiser,
	store driven.BootStore,
	hostname string,
	timeout time.Duration,
	logger *slog.Logger,
) *BootService {
	return &BootService{
		credentials: credentials,
		joiner:      joiner,
		advertiser:  advertiser,
		store:       store,
		hostname:    hostname,
		timeout:     timeout,
		logger:      logger,
		now:         time.Now,
	}
}

// Run executes the startup sequence. A credentials failure is returned as an
// error and the caller must not start serving. Join and advertisement
// failures are logged and reflected in the returned record only.
func (s *BootService) Run(ctx context.Context) (model.BootRecord, error) {
	rec := model.BootRecord{
		StartedAt: s.now().UTC(),
		Outcome:   model.BootOutcomeAborted,
		Hostname:  s.hostname,
	}

	s.logPreviousBoot(ctx)

	creds, err := s.credentials.Load(ctx)
	if err != nil {
		s.logger.Error("wifi credentials unavailable", "error", err)
		s.logger.Error("create wifi.json with \"ssid\" and \"password\" fields in the data directory and restart")
		rec.Error = err.Error()
		s.finish(ctx, &rec)
		return rec, fmt.Errorf("load credentials: %w", err)
	}
	rec.SSID = creds.SSID

	ip, err := s.joiner.Join(ctx, creds, s.timeout)
	if err != nil {
		rec.Outcome = model.BootOutcomeOffline
		rec.Error = err.Error()
		if ctx.Err() != nil {
			s.finish(ctx, &rec)
			return rec, fmt.Errorf("join %q: %w", creds.SSID, ctx.Err())
		}
		s.logger.Warn("continuing without wifi", "ssid", creds.SSID, "error", err)
		s.finish(ctx, &rec)
		return rec, nil
	}

	rec.Outcome = model.BootOutcomeOnline
	rec.IP = ip.String()

	if s.advertiser != nil {
		if err := s.advertiser.Start([]net.IP{ip}); err != nil {
			s.logger.Error("mdns start failed", "host", s.hostname, "error", err)
			rec.Error = err.Error()
		} else {
			rec.MDNSActive = true
			s.logger.Info("mdns started", "url", "http://"+s.hostname+".local/")
		}
	}

	s.finish(ctx, &rec)
	return rec, nil
}

// logPreviousBoot reports how the last journaled boot ended.
func (s *BootService) logPreviousBoot(ctx context.Context) {
	if s.store == nil {
		return
	}

	prev, err := s.store.Latest(ctx)
	if err != nil {
		s.logger.Warn("failed to read previous boot", "error", err)
		return
	}
	if prev == nil {
		s.logger.Info("no previous boot recorded")
		return
	}

	s.logger.Info("previous boot",
		"outcome", prev.Outcome,
		"finished_at", prev.FinishedAt,
		"ssid", prev.SSID,
		"error", prev.Error,
	)
}

// finish stamps the record and appends it to the journal. Journal failures
// never affect the boot.
func (s *BootService) finish(ctx context.Context, rec *model.BootRecord) {
	rec.FinishedAt = s.now().UTC()

	s.logger.Info("boot sequence finished",
		"outcome", rec.Outcome,
		"ip", rec.IP,
		"mdns", rec.MDNSActive,
		"duration", rec.Duration().Round(time.Millisecond),
	)

	if s.store == nil {
		return
	}

	saved, err := s.store.Record(context.WithoutCancel(ctx), *rec)
	if err != nil {
		s.logger.Warn("failed to journal boot", "error", err)
		return
	}
	rec.ID = saved.ID
}
