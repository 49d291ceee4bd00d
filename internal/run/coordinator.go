package run

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"radiobank/internal/assembly"
	"radiobank/internal/logging"
	"radiobank/internal/report"
	"radiobank/internal/selection"
	"radiobank/internal/services"
)

// Options configures a run across all banks and stations.
type Options struct {
	Banks           int
	StationsPerBank int
	Target          time.Duration
	Workers         int

	// Recorded with the run report.
	TargetDir   string
	CatalogDesc string
	Seed        int64

	// OnStation is invoked for every terminal station state, in completion
	// order. Used by the CLI progress bar.
	OnStation func(StationResult)
}

// StationResult is the terminal state of one station attempt.
type StationResult struct {
	Bank    int
	Station int
	Outcome report.Outcome
	Path    string
	Clips   int
	Filled  time.Duration
	Err     error
}

// Summary aggregates a whole run.
type Summary struct {
	RunID   string
	Results []StationResult

	// Halted carries the insufficient-catalog error when the run stopped
	// early; stations after the halt are marked skipped.
	Halted error
}

// Succeeded counts stations that produced a file.
func (s *Summary) Succeeded() int {
	count := 0
	for _, result := range s.Results {
		if result.Outcome.Succeeded() {
			count++
		}
	}
	return count
}

// CountByOutcome tallies results per outcome kind.
func (s *Summary) CountByOutcome() map[report.Outcome]int {
	counts := make(map[report.Outcome]int, 4)
	for _, result := range s.Results {
		counts[result.Outcome]++
	}
	return counts
}

// Coordinator drives the selector and assembler across every bank/station in
// a fixed positional order, sharing one catalog and one used-clip pool.
type Coordinator struct {
	selector  *selection.Selector
	assembler *assembly.Assembler
	pool      *selection.UsedPool
	store     *report.Store
	logger    *slog.Logger
	opts      Options
}

// New constructs a Coordinator. store may be nil to skip report persistence.
func New(selector *selection.Selector, assembler *assembly.Assembler, pool *selection.UsedPool, store *report.Store, logger *slog.Logger, opts Options) *Coordinator {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Coordinator{
		selector:  selector,
		assembler: assembler,
		pool:      pool,
		store:     store,
		logger:    logging.WithComponent(logger, "coordinator"),
		opts:      opts,
	}
}

// Run processes every station to a terminal state. Station-local failures
// never abort sibling stations; catalog exhaustion skips all remaining
// stations. The returned error reflects only infrastructure faults, not
// per-station outcomes.
func (c *Coordinator) Run(ctx context.Context) (*Summary, error) {
	total := c.opts.Banks * c.opts.StationsPerBank
	summary := &Summary{
		RunID:   uuid.NewString(),
		Results: make([]StationResult, total),
	}

	logger := c.logger.With(logging.String(logging.FieldRunID, summary.RunID))
	logger.Info("run started",
		logging.Int("banks", c.opts.Banks),
		logging.Int("stations_per_bank", c.opts.StationsPerBank),
		logging.Duration("target", c.opts.Target),
		logging.Int("workers", c.opts.Workers))

	c.beginReport(ctx, logger, summary.RunID)

	var halted atomic.Bool
	var haltOnce sync.Once

	jobs := make(chan int)
	var wg sync.WaitGroup
	for worker := 0; worker < c.opts.Workers; worker++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				result := c.processStation(ctx, logger, &halted, index)
				if result.Outcome == report.OutcomeSkipped && result.Err != nil {
					haltOnce.Do(func() { summary.Halted = result.Err })
				}
				// Disjoint indices; no lock needed.
				summary.Results[index] = result
				c.recordStation(ctx, logger, summary.RunID, result)
				if c.opts.OnStation != nil {
					c.opts.OnStation(result)
				}
			}
		}()
	}

	// Fixed bank/station order: the module addresses banks positionally.
	for index := 0; index < total; index++ {
		jobs <- index
	}
	close(jobs)
	wg.Wait()

	c.finishReport(ctx, logger, summary.RunID)

	counts := summary.CountByOutcome()
	logger.Info("run finished",
		logging.Int("done", counts[report.OutcomeDone]),
		logging.Int("underfilled", counts[report.OutcomeUnderfilled]),
		logging.Int("failed", counts[report.OutcomeFailed]),
		logging.Int("skipped", counts[report.OutcomeSkipped]),
		logging.Int("clips_used", c.pool.Len()))
	return summary, ctx.Err()
}

func (c *Coordinator) processStation(ctx context.Context, logger *slog.Logger, halted *atomic.Bool, index int) StationResult {
	bank := index / c.opts.StationsPerBank
	station := index % c.opts.StationsPerBank
	result := StationResult{Bank: bank, Station: station}

	stationLogger := logger.With(
		logging.Int(logging.FieldBank, bank),
		logging.Int(logging.FieldStation, station))

	if err := ctx.Err(); err != nil {
		result.Outcome = report.OutcomeSkipped
		return result
	}
	if halted.Load() {
		result.Outcome = report.OutcomeSkipped
		return result
	}

	selected, err := c.selector.Select(c.pool, c.opts.Target)
	if err != nil {
		if errors.Is(err, services.ErrInsufficientCatalog) {
			// Fatal for every remaining station: stop composing and let
			// the summary report the successes so far.
			halted.Store(true)
			stationLogger.Warn("catalog exhausted; skipping remaining stations", logging.Error(err))
			result.Outcome = report.OutcomeSkipped
			result.Err = err
			return result
		}
		result.Outcome = report.OutcomeFailed
		result.Err = err
		stationLogger.Error("selection failed", logging.Error(err))
		return result
	}

	result.Clips = len(selected.Clips)
	result.Filled = selected.Duration
	if len(selected.Clips) == 0 {
		result.Outcome = report.OutcomeFailed
		result.Err = errors.New("no unused clip fits the target duration")
		stationLogger.Error("selection produced no clips", logging.Error(result.Err))
		return result
	}

	path, err := c.assembler.Assemble(ctx, bank, station, selected.Clips)
	if err != nil {
		result.Outcome = report.OutcomeFailed
		result.Err = err
		stationLogger.Error("assembly failed", logging.Error(err))
		return result
	}

	result.Path = path
	result.Outcome = report.OutcomeDone
	if selected.Underfilled {
		result.Outcome = report.OutcomeUnderfilled
	}
	stationLogger.Info("station written",
		logging.String(logging.FieldOutcome, string(result.Outcome)),
		logging.Int("clips", result.Clips),
		logging.Duration("filled", result.Filled),
		logging.String("path", path))
	return result
}

func (c *Coordinator) beginReport(ctx context.Context, logger *slog.Logger, runID string) {
	if c.store == nil {
		return
	}
	err := c.store.BeginRun(ctx, report.Run{
		ID:          runID,
		StartedAt:   time.Now().UTC(),
		TargetDir:   c.opts.TargetDir,
		CatalogDesc: c.opts.CatalogDesc,
		Banks:       c.opts.Banks,
		Stations:    c.opts.StationsPerBank,
		Seed:        c.opts.Seed,
	})
	if err != nil {
		logger.Warn("report persistence unavailable", logging.Error(err))
	}
}

func (c *Coordinator) recordStation(ctx context.Context, logger *slog.Logger, runID string, result StationResult) {
	if c.store == nil {
		return
	}
	row := report.Row{
		RunID:       runID,
		Bank:        result.Bank,
		Station:     result.Station,
		Outcome:     result.Outcome,
		OutputPath:  result.Path,
		ClipCount:   result.Clips,
		FillSeconds: result.Filled.Seconds(),
	}
	if result.Err != nil {
		row.Error = result.Err.Error()
	}
	if err := c.store.RecordStation(ctx, row); err != nil {
		logger.Warn("failed to record station outcome", logging.Error(err))
	}
}

func (c *Coordinator) finishReport(ctx context.Context, logger *slog.Logger, runID string) {
	if c.store == nil {
		return
	}
	if err := c.store.FinishRun(ctx, runID, time.Now().UTC()); err != nil {
		logger.Warn("failed to finish run report", logging.Error(err))
	}
}
