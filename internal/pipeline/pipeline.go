// Package pipeline orchestrates one fetch-aggregate-merge-persist run of the
// rainfall series.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/CDonnerer/vp-track-status/internal/domain"
	"github.com/CDonnerer/vp-track-status/internal/observability"
)

// ReadingSource queries the upstream API for a station's rainfall measures
// and their time-ranged readings.
type ReadingSource interface {
	ListMeasures(ctx context.Context, stationID string) ([]string, error)
	FetchReadings(ctx context.Context, measureURL string, window domain.FetchWindow) (readings []domain.Reading, dropped int, err error)
	AvailableRange(ctx context.Context, measureURL string) (earliest, latest time.Time, ok bool, err error)
}

// RecordStore loads and persists the canonical daily series.
type RecordStore interface {
	Load() (domain.Series, error)
	Save(domain.Series) error
}

// RunParams selects the fetch window for one run. Zero StartDate/EndDate
// mean "use the mode's default".
type RunParams struct {
	Mode      domain.Mode
	Days      int // trailing window for latest mode
	StartDate time.Time
	EndDate   time.Time
}

// Result summarizes what a run did, for logging and operator output.
type Result struct {
	Window          domain.FetchWindow
	Measures        int
	ReadingsFetched int
	ReadingsDropped int
	DaysAggregated  int
	RecordsAdded    int
	RecordsUpdated  int
	SeriesRecords   int
}

// RunStatus is the summary of the most recent completed run, exposed to the
// serve-mode status endpoint.
type RunStatus struct {
	Result
	Mode        domain.Mode
	CompletedAt time.Time
}

// Pipeline wires source, store, and observability into a single re-runnable
// operation. Runs are strictly sequential; re-running the same or an
// overlapping window converges to the same stored state because the merge is
// last-write-wins by date.
type Pipeline struct {
	source    ReadingSource
	store     RecordStore
	logger    *slog.Logger
	metrics   *observability.Metrics
	stationID string

	mu      sync.Mutex
	lastRun *RunStatus
}

// New creates a Pipeline for one station and one storage location.
func New(source ReadingSource, store RecordStore, logger *slog.Logger, metrics *observability.Metrics, stationID string) *Pipeline {
	return &Pipeline{
		source:    source,
		store:     store,
		logger:    logger,
		metrics:   metrics,
		stationID: stationID,
	}
}

// CheckReadiness returns nil once at least one run has completed
// successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if _, ok := p.LastRun(); !ok {
		return errors.New("no pipeline run has completed yet")
	}
	return nil
}

// LastRun returns the most recent successful run's summary. ok is false
// until the first run completes.
func (p *Pipeline) LastRun() (RunStatus, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastRun == nil {
		return RunStatus{}, false
	}
	return *p.lastRun, true
}

// Run executes ComputeWindow → Fetch → Aggregate → LoadExisting → Merge →
// Persist. Upstream and storage failures abort the run before anything is
// persisted; an empty fetch is a warning, not a failure, and persists the
// existing state unchanged.
func (p *Pipeline) Run(ctx context.Context, params RunParams) (Result, error) {
	start := time.Now()

	res, err := p.run(ctx, params)
	if err != nil {
		p.metrics.RunsTotal.WithLabelValues(string(params.Mode), "error").Inc()
		return Result{}, err
	}

	p.metrics.RunsTotal.WithLabelValues(string(params.Mode), "success").Inc()
	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	p.metrics.LastSuccessRun.SetToCurrentTime()

	p.mu.Lock()
	p.lastRun = &RunStatus{Result: res, Mode: params.Mode, CompletedAt: time.Now().UTC()}
	p.mu.Unlock()

	p.logger.Info("run complete",
		"mode", params.Mode,
		"window", res.Window.String(),
		"readings_fetched", res.ReadingsFetched,
		"readings_dropped", res.ReadingsDropped,
		"records_added", res.RecordsAdded,
		"records_updated", res.RecordsUpdated,
		"series_records", res.SeriesRecords,
		"duration", time.Since(start),
	)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, params RunParams) (Result, error) {
	window, err := domain.ComputeWindow(params.Mode, params.Days, params.StartDate, params.EndDate)
	if err != nil {
		return Result{}, err
	}
	p.logger.Info("window computed", "mode", params.Mode, "window", window.String(), "station", p.stationID)

	readings, res, err := p.fetch(ctx, window)
	if err != nil {
		return Result{}, err
	}

	batch := domain.AggregateDaily(readings)
	res.DaysAggregated = len(batch)
	p.logger.Info("aggregated to daily totals", "days", len(batch))

	existing, err := p.store.Load()
	if err != nil {
		return Result{}, err
	}
	p.logger.Info("loaded existing series", "records", len(existing))

	merged := domain.Merge(existing, batch)
	res.RecordsAdded, res.RecordsUpdated = diffCounts(existing, batch, merged)

	if err := p.store.Save(merged); err != nil {
		return Result{}, err
	}

	res.SeriesRecords = len(merged)
	p.metrics.RecordsAdded.Add(float64(res.RecordsAdded))
	p.metrics.RecordsUpdated.Add(float64(res.RecordsUpdated))
	p.metrics.SeriesRecords.Set(float64(len(merged)))
	return res, nil
}

// fetch queries every measure the station exposes and concatenates their
// readings. A station without any rainfall measure is a terminal input
// error, distinct from a window that happens to be empty.
func (p *Pipeline) fetch(ctx context.Context, window domain.FetchWindow) ([]domain.Reading, Result, error) {
	res := Result{Window: window}

	measures, err := p.source.ListMeasures(ctx, p.stationID)
	if err != nil {
		return nil, res, err
	}
	if len(measures) == 0 {
		return nil, res, &domain.NoMeasuresError{StationID: p.stationID}
	}
	res.Measures = len(measures)
	p.logger.Info("measures discovered", "station", p.stationID, "measures", len(measures))

	var readings []domain.Reading
	for _, m := range measures {
		batch, dropped, err := p.source.FetchReadings(ctx, m, window)
		if err != nil {
			return nil, res, err
		}
		readings = append(readings, batch...)
		res.ReadingsFetched += len(batch)
		res.ReadingsDropped += dropped
		p.logger.Debug("measure fetched", "measure", m, "readings", len(batch), "dropped", dropped)
	}

	p.metrics.ReadingsFetched.Add(float64(res.ReadingsFetched))
	p.metrics.ReadingsDropped.Add(float64(res.ReadingsDropped))
	if res.ReadingsDropped > 0 {
		p.logger.Warn("dropped malformed readings", "dropped", res.ReadingsDropped)
	}

	if len(readings) == 0 {
		p.metrics.EmptyFetches.Inc()
		p.warnEmptyWindow(ctx, measures[0], window)
	}
	return readings, res, nil
}

// warnEmptyWindow logs operator guidance when a window returned nothing,
// including the measure's known available range when the API can tell us.
// Purely diagnostic; the range is never used to alter request parameters.
func (p *Pipeline) warnEmptyWindow(ctx context.Context, measureURL string, window domain.FetchWindow) {
	logger := p.logger.With("window", window.String())

	earliest, latest, ok, err := p.source.AvailableRange(ctx, measureURL)
	if err != nil || !ok {
		logger.Warn("no readings returned for window")
		return
	}

	logger = logger.With(
		"available_from", earliest.Format(time.DateOnly),
		"available_to", latest.Format(time.DateOnly),
	)
	switch {
	case window.End.Before(earliest):
		logger.Warn("no readings returned: window ends before earliest available data")
	case window.Start.After(latest):
		logger.Warn("no readings returned: window starts after latest available data")
	default:
		logger.Warn("no readings returned for window")
	}
}

// diffCounts reports how the merge changed the stored series: records on
// dates the store had never seen, and stored records overwritten by the
// incoming batch.
func diffCounts(existing, batch, merged domain.Series) (added, updated int) {
	had := make(map[time.Time]struct{}, len(existing))
	for _, rec := range existing {
		had[rec.Date] = struct{}{}
	}
	for _, rec := range batch {
		if _, ok := had[rec.Date]; ok {
			updated++
		}
	}
	added = len(merged) - len(existing)
	return added, updated
}
