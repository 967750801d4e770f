package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"plank/internal/adapter/camera"
	"plank/internal/adapter/events"
	adapthttp "plank/internal/adapter/http"
	"plank/internal/app"
	"plank/internal/config"
	"plank/internal/domain"
	"plank/internal/telemetry"
)

// sessionPurgeInterval spaces sweeps of expired login sessions.
const sessionPurgeInterval = time.Hour

func serve(ctx context.Context, configPath string) error {
	cfg, logger, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStorage(cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := telemetry.New(reg)

	clock := app.NewSystemClock(loc)
	hub := events.NewHub(events.DefaultBuffer, logger)
	logbook := app.NewLogBook(st.store, logger)
	profile := app.NewProfileService(st.store, clock, logger)

	timer := app.NewSessionTimer(app.SessionConfig{
		Quota:      cfg.Session.Quota,
		MinSeconds: cfg.Session.MinSeconds,
		Countdown:  cfg.Session.Countdown,
	}, newCamera(cfg.Session.Camera), hub, clock, logbook, logger, hub, metrics)

	deps := adapthttp.Deps{
		Session:  timer,
		History:  app.NewHistoryService(logbook, clock, cfg.Session.Quota),
		Profile:  profile,
		Export:   app.NewExportService(logbook, profile, clock),
		Hub:      hub,
		Metrics:  metrics,
		Gatherer: reg,
		Clock:    clock,
		WebDir:   cfg.Server.WebDir,
		Logger:   logger,
	}

	if cfg.Auth.Enabled {
		deps.Auth = app.NewAuthService(st.sessions, cfg.Auth.Owner, cfg.Auth.PasswordHash)
		if o := cfg.Auth.OIDC; o.Enabled() {
			deps.OIDC, err = adapthttp.NewOIDCConfig(ctx, o.Issuer, o.ClientID, o.ClientSecret, o.RedirectURL)
			if err != nil {
				return err
			}
		}
		go purgeSessions(ctx, deps.Auth, logger)
	} else {
		logger.Warn("auth disabled: the journal is open to anyone who can reach it")
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           adapthttp.New(deps).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Event streams never finish on their own.
	srv.RegisterOnShutdown(hub.Suspend)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr, "timezone", loc.String(), "camera", cfg.Session.Camera.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	if err := timer.Close(); err != nil {
		logger.Warn("release camera", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newCamera(cfg config.CameraConfig) domain.Camera {
	if cfg.Driver == config.CameraDevice {
		return camera.NewDevice(cfg.Device)
	}
	return camera.NewVirtual()
}

func purgeSessions(ctx context.Context, auth *app.AuthService, logger *slog.Logger) {
	t := time.NewTicker(sessionPurgeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := auth.PurgeExpired(ctx); err != nil {
				logger.Warn("purge expired sessions", "error", err)
			}
		}
	}
}
