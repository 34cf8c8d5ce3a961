package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ericfisherdev/atomicserver/internal/adapter/driven/flashfs"
	mdnsadapter "github.com/ericfisherdev/atomicserver/internal/adapter/driven/mdns"
	sqliteadapter "github.com/ericfisherdev/atomicserver/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/atomicserver/internal/adapter/driven/wifi"
	httphandler "github.com/ericfisherdev/atomicserver/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/atomicserver/internal/adapter/driving/web"
	"github.com/ericfisherdev/atomicserver/internal/application"
	"github.com/ericfisherdev/atomicserver/internal/config"
	"github.com/ericfisherdev/atomicserver/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on malformed env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
	slog.Info("boot",
		"listen_addr", cfg.ListenAddr,
		"data_dir", cfg.DataDir,
		"hostname", cfg.Hostname,
		"connect_timeout", cfg.ConnectTimeout,
	)

	port, err := cfg.HTTPPort()
	if err != nil {
		return err
	}

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Mount the data filesystem, creating it on first boot.
	dataFS, err := mountDataDir(cfg.DataDir)
	if err != nil {
		return err
	}
	slog.Info("data filesystem mounted", "path", cfg.DataDir)

	// 4. Open the boot journal (optional).
	var bootStore driven.BootStore
	db, err := openJournal(ctx, cfg.DBPath)
	if err != nil {
		slog.Warn("boot journal unavailable", "path", cfg.DBPath, "error", err)
	} else {
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		bootStore = sqliteadapter.NewBootRepo(db)
	}

	// 5. Wire adapters.
	credentials := flashfs.NewCredentialSource(dataFS, cfg.CredentialsFile)
	joiner := wifi.NewJoiner(wifi.Config{
		Command:      cfg.JoinCommand,
		Interface:    cfg.WiFiInterface,
		PollInterval: cfg.ConnectPoll,
	}, slog.Default())
	advertiser := mdnsadapter.NewAdvertiser(cfg.Hostname, port, lookupInterface(cfg.WiFiInterface), slog.Default())
	defer func() {
		if err := advertiser.Shutdown(); err != nil {
			slog.Error("mdns shutdown error", "error", err)
		}
	}()

	// 6. Run the startup sequence: credentials -> join -> advertise.
	bootSvc := application.NewBootService(
		credentials,
		joiner,
		advertiser,
		bootStore,
		cfg.Hostname,
		cfg.ConnectTimeout,
		slog.Default(),
	)
	if _, err := bootSvc.Run(ctx); err != nil {
		return err
	}

	// 7. Register routes: JSON API first, static site catches the rest.
	statusSvc := application.NewStatusService(joiner, cfg.Hostname)
	apiHandler := httphandler.NewHandler(statusSvc, bootStore, slog.Default())
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, apiHandler)
	webhandler.RegisterRoutes(mux, webhandler.NewHandler(dataFS, statusSvc, []string{credentials.Name()}, slog.Default()))

	handler := httphandler.ApplyMiddleware(mux, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server started", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 8. Idle until a shutdown signal or a listener failure.
	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	// 9. Graceful shutdown with 10s timeout for in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// mountDataDir returns the data directory as an fs.FS, creating it when
// missing the way the device formats an empty flash partition.
func mountDataDir(dir string) (fs.FS, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("mount data dir %q: %w", dir, err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("mount data dir %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("mount data dir %q: not a directory", dir)
	}

	return os.DirFS(dir), nil
}

func openJournal(ctx context.Context, path string) (*sqliteadapter.DB, error) {
	db, err := sqliteadapter.NewDB(ctx, path)
	if err != nil {
		return nil, err
	}

	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		return nil, err
	}
	slog.Info("boot journal opened", "path", db.Path())

	return db, nil
}

// lookupInterface resolves the configured WiFi interface for the mDNS
// responder. Unknown or empty names fall back to the system default.
func lookupInterface(name string) *net.Interface {
	if name == "" {
		return nil
	}

	iface, err := net.InterfaceByName(name)
	if err != nil {
		slog.Warn("wifi interface not found, mdns uses default interface", "interface", name, "error", err)
		return nil
	}
	return iface
}
