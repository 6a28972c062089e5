package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"activityboard/internal/activity"
	activitymetrics "activityboard/internal/activity/metrics"
	"activityboard/internal/activity/service"
	"activityboard/internal/platform/config"
	"activityboard/internal/platform/httpserver"
	"activityboard/internal/platform/logger"
	"activityboard/internal/platform/metrics"
	httptransport "activityboard/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal service packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "activityboard: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	st, err := buildStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	seed, err := loadSeed(cfg)
	if err != nil {
		return err
	}
	if err := st.Seed(ctx, seed); err != nil {
		return fmt.Errorf("seed registry: %w", err)
	}

	auditor, closeAuditor, err := buildAuditor(cfg, log)
	if err != nil {
		return err
	}
	defer closeAuditor()

	svc, err := activity.NewService(st,
		service.WithAuditor(auditor),
		service.WithMetrics(activitymetrics.New(reg)),
		service.WithLogger(log),
	)
	if err != nil {
		return err
	}
	if err := svc.RecordParticipantCounts(ctx); err != nil {
		log.WarnContext(ctx, "failed to prime participant gauges", "error", err)
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		Metrics:        metrics.New(reg),
		Gatherer:       reg,
		RequestTimeout: cfg.RequestTimeout,
		StaticDir:      cfg.StaticDir,
		Health:         st.Health,
		Handlers:       []httptransport.Registrar{activity.NewHandler(svc, log)},
	})
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting activityboard", "addr", cfg.Addr, "store", cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", "timeout", cfg.ShutdownTimeout.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}
