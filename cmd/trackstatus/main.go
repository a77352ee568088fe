// Command trackstatus maintains the daily rainfall series behind the
// Victoria Park track condition site.
//
// Usage:
//
//	trackstatus fetch [-mode latest|historical] [-station-id ID] [-output FILE]
//	                  [-start-date YYYY-MM-DD] [-end-date YYYY-MM-DD] [-days N]
//	trackstatus features [-rainfall FILE] [-output FILE]
//	trackstatus serve
//
// fetch runs the pipeline once and exits; serve runs it on a cron schedule
// with health and metrics endpoints; features emits the rolling-window
// feature table consumed by the downstream model.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CDonnerer/vp-track-status/internal/adapter/csvstore"
	"github.com/CDonnerer/vp-track-status/internal/adapter/floodapi"
	"github.com/CDonnerer/vp-track-status/internal/adapter/httpserver"
	"github.com/CDonnerer/vp-track-status/internal/config"
	"github.com/CDonnerer/vp-track-status/internal/domain"
	"github.com/CDonnerer/vp-track-status/internal/features"
	"github.com/CDonnerer/vp-track-status/internal/observability"
	"github.com/CDonnerer/vp-track-status/internal/pipeline"
	"github.com/CDonnerer/vp-track-status/internal/scheduler"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "trackstatus: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return errors.New("missing command: want fetch, features, or serve")
	}

	switch args[0] {
	case "fetch":
		return runFetch(args[1:])
	case "features":
		return runFeatures(args[1:])
	case "serve":
		return runServe(args[1:])
	default:
		return fmt.Errorf("unknown command %q: want fetch, features, or serve", args[0])
	}
}

func runFetch(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	mode := fs.String("mode", string(domain.ModeLatest), "fetch mode: latest or historical")
	stationID := fs.String("station-id", cfg.StationID, "station to fetch readings for")
	output := fs.String("output", cfg.OutputFile, "series CSV file to update")
	startDate := fs.String("start-date", "", "explicit window start (YYYY-MM-DD)")
	endDate := fs.String("end-date", "", "explicit window end (YYYY-MM-DD, default today)")
	days := fs.Int("days", cfg.FetchDays, "trailing days to fetch in latest mode")
	if err := fs.Parse(args); err != nil {
		return err
	}

	params := pipeline.RunParams{Days: *days}
	if params.Mode, err = domain.ParseMode(*mode); err != nil {
		return err
	}
	if params.StartDate, err = parseDateFlag("start-date", *startDate); err != nil {
		return err
	}
	if params.EndDate, err = parseDateFlag("end-date", *endDate); err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	p := pipeline.New(
		floodapi.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout, logger),
		csvstore.New(*output),
		logger,
		observability.NewMetrics(),
		*stationID,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := p.Run(ctx, params)
	if err != nil {
		return err
	}

	fmt.Printf("fetched %d readings (%d dropped) over %s for station %s\n",
		res.ReadingsFetched, res.ReadingsDropped, res.Window, *stationID)
	fmt.Printf("series now holds %d daily records (%d added, %d updated): %s\n",
		res.SeriesRecords, res.RecordsAdded, res.RecordsUpdated, *output)
	return nil
}

func runFeatures(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("features", flag.ExitOnError)
	rainfall := fs.String("rainfall", cfg.OutputFile, "series CSV file to read")
	output := fs.String("output", "", "feature table destination (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	series, err := csvstore.New(*rainfall).Load()
	if err != nil {
		return err
	}
	if len(series) == 0 {
		return fmt.Errorf("no rainfall data in %s", *rainfall)
	}

	rows := features.Rolling(series, features.Windows)

	out := os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return features.WriteCSV(out, rows, features.Windows)
}

func runServe(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	p := pipeline.New(
		floodapi.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout, logger),
		csvstore.New(cfg.OutputFile),
		logger,
		metrics,
		cfg.StationID,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	params := pipeline.RunParams{Mode: cfg.FetchMode, Days: cfg.FetchDays}
	runOnce := func() {
		if _, err := p.Run(ctx, params); err != nil {
			logger.Error("scheduled run failed", "error", err)
		}
	}

	sched := scheduler.New(logger)
	if err := sched.Add(cfg.FetchSchedule, runOnce); err != nil {
		return fmt.Errorf("invalid FETCH_SCHEDULE: %w", err)
	}

	srv := httpserver.NewServer(cfg.HTTPAddr, p, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Run immediately on startup, then on schedule.
	go runOnce()
	sched.Start()

	<-ctx.Done()
	logger.Info("shutting down")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func parseDateFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid -%s %q: want YYYY-MM-DD", name, value)
	}
	return t, nil
}
