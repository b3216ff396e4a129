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

	"github.com/velodata/bike-count-etl/internal/adapter/frcal"
	httpadapter "github.com/velodata/bike-count-etl/internal/adapter/http"
	kafkaadapter "github.com/velodata/bike-count-etl/internal/adapter/kafka"
	"github.com/velodata/bike-count-etl/internal/config"
	"github.com/velodata/bike-count-etl/internal/domain"
	"github.com/velodata/bike-count-etl/internal/observability"
	"github.com/velodata/bike-count-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, config.ErrHelpWanted) {
			usage, uerr := config.Usage()
			if uerr != nil {
				slog.Error("failed to generate usage", "error", uerr)
				os.Exit(1)
			}
			fmt.Println(usage)
			return
		}
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogSettings{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Holiday sets are fetched once at startup: the configured year range is
	// small and fixed, so every batch reuses the same sets.
	calendar := frcal.NewCachedCalendar(frcal.NewCalendar())
	school, err := calendar.SchoolHolidays(ctx, cfg.Zone(), cfg.Years()...)
	if err != nil {
		logger.Error("failed to load school holidays", "error", err, "zone", cfg.Zone())
		os.Exit(1)
	}
	public, err := calendar.PublicHolidays(ctx, cfg.Years()...)
	if err != nil {
		logger.Error("failed to load public holidays", "error", err)
		os.Exit(1)
	}
	logger.Info("holiday calendars loaded",
		"zone", cfg.Zone(),
		"years", cfg.Years(),
		"school_days", len(school),
		"public_days", len(public),
	)

	curfew, err := domain.NewCurfewClassifier(domain.DefaultCurfewWindows)
	if err != nil {
		logger.Error("invalid curfew table", "error", err)
		os.Exit(1)
	}

	encoder := domain.NewFeatureEncoder(school, public, curfew)
	transformer := pipeline.NewTransformer(encoder, cfg.CleanDeadPeriods, logger)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.Batch.Size)

	srv := httpadapter.NewServer(cfg.Web.Addr, p, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
