package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/disdro-l0/internal/domain"
	"github.com/couchcryptid/disdro-l0/internal/gridded"
	"github.com/couchcryptid/disdro-l0/internal/metadata"
	"github.com/couchcryptid/disdro-l0/internal/observability"
	"github.com/couchcryptid/disdro-l0/internal/reader"
	"github.com/couchcryptid/disdro-l0/internal/standards"
)

// AdapterRegistry resolves descriptor reader references to adapters.
type AdapterRegistry interface {
	ResolveReference(ref string) (reader.Adapter, error)
	CheckAll() error
}

// Coercer validates adapter tables against sensor standards.
type Coercer interface {
	Coerce(t *domain.Table, sensorModel string) (*standards.Frame, []standards.Outcome, error)
	Known(sensorModel string) bool
}

// GridBuilder derives the gridded dataset from a validated frame.
type GridBuilder interface {
	Build(f *standards.Frame, st domain.Station) (*gridded.Dataset, error)
}

// ProductStore persists products.
type ProductStore interface {
	WriteTabular(path string, f *standards.Frame, force bool) error
	ReadTabular(path string) (*domain.Table, error)
	WriteGridded(path string, ds *gridded.Dataset, force bool) error
}

// Pipeline converts the stations of a campaign into tabular and gridded
// products. One station's failure never affects another.
type Pipeline struct {
	registry  AdapterRegistry
	standards Coercer
	builder   GridBuilder
	products  ProductStore
	reporter  Reporter
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
	ready     atomic.Bool

	mu       sync.Mutex
	progress Progress
}

// New creates a Pipeline with the given stages and observability.
func New(registry AdapterRegistry, coercer Coercer, builder GridBuilder, products ProductStore, reporter Reporter, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		registry:  registry,
		standards: coercer,
		builder:   builder,
		products:  products,
		reporter:  reporter,
		logger:    logger,
		metrics:   metrics,
		clock:     clockwork.NewRealClock(),
	}
}

// WithClock replaces the clock used for stage timings.
func (p *Pipeline) WithClock(c clockwork.Clock) *Pipeline {
	p.clock = c
	return p
}

// Init runs the reader contract sweep once. The pipeline reports ready
// only after it passes.
func (p *Pipeline) Init() error {
	if err := p.registry.CheckAll(); err != nil {
		return fmt.Errorf("reader contract check: %w", err)
	}
	p.ready.Store(true)
	return nil
}

// CheckReadiness returns nil once the reader contract sweep has passed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("reader contract check has not passed")
	}
	return nil
}

// Progress is a snapshot of the current or last run.
type Progress struct {
	RunID   string `json:"run_id"`
	Running bool   `json:"running"`
	Total   int    `json:"total"`
	Done    int    `json:"done"`
	Failed  int    `json:"failed"`
}

// Progress returns the current run progress.
func (p *Pipeline) Progress() Progress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.progress
}

func (p *Pipeline) updateProgress(fn func(*Progress)) {
	p.mu.Lock()
	fn(&p.progress)
	p.mu.Unlock()
}

// Run converts every requested station of the campaign. It returns
// ErrAllStationsFailed when no station succeeded; individual failures are
// recorded in the summary.
func (p *Pipeline) Run(ctx context.Context, c Campaign, opts Options) (Summary, error) {
	if err := c.validate(); err != nil {
		return Summary{}, err
	}
	opts = opts.withDefaults()

	store := metadata.NewStore(c.RawDir, p.registry, p.standards)
	names := c.Stations
	if len(names) == 0 {
		listed, err := store.List()
		if err != nil {
			return Summary{}, err
		}
		names = listed
	}

	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	logger.Info("run started",
		"raw_dir", c.RawDir,
		"processed_dir", c.ProcessedDir,
		"stations", len(names),
		"stages", opts.Stages,
		"parallel", opts.Parallel,
		"workers", opts.Workers,
		"force", opts.Force,
		"debugging_mode", opts.DebuggingMode,
	)
	p.updateProgress(func(pr *Progress) { *pr = Progress{RunID: runID, Running: true, Total: len(names)} })
	p.metrics.RunRunning.Set(1)
	defer func() {
		p.metrics.RunRunning.Set(0)
		p.updateProgress(func(pr *Progress) { pr.Running = false })
	}()

	start := p.clock.Now()
	results := make([]StationResult, len(names))
	runOne := func(i int, name string) {
		results[i] = p.runStation(ctx, stationEnv{
			campaign: c,
			opts:     opts,
			store:    store,
			runID:    runID,
			logger:   logger,
		}, name)
		p.updateProgress(func(pr *Progress) {
			if results[i].State == domain.StateDone {
				pr.Done++
			} else {
				pr.Failed++
			}
		})
	}

	if opts.Parallel && opts.Workers > 1 {
		var g errgroup.Group
		g.SetLimit(opts.Workers)
		for i, name := range names {
			g.Go(func() error {
				runOne(i, name)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, name := range names {
			runOne(i, name)
		}
	}

	summary := newSummary(runID, results)
	logger.Info("run finished",
		"done", summary.Done,
		"failed", summary.Failed,
		"duration", p.clock.Since(start).String(),
	)
	return summary, summary.Err()
}

// Campaign locates the raw and processed trees of one campaign.
type Campaign struct {
	RawDir       string
	ProcessedDir string
	Stations     []string // empty means every station under <raw_dir>/data
}

func (c Campaign) validate() error {
	info, err := os.Stat(c.RawDir)
	if err != nil {
		return &domain.ConfigurationError{Msg: fmt.Sprintf("raw directory %q", c.RawDir), Err: err}
	}
	if !info.IsDir() {
		return domain.Configf("raw directory %q is not a directory", c.RawDir)
	}
	if c.ProcessedDir == "" {
		return domain.Configf("processed directory is required")
	}
	if filepath.Clean(c.RawDir) == filepath.Clean(c.ProcessedDir) {
		return domain.Configf("processed directory must differ from raw directory %q", c.RawDir)
	}
	return nil
}

// Stage selects which products a run produces.
type Stage string

const (
	StageAll     Stage = "all" // tabular then gridded
	StageTabular Stage = "l0a" // tabular only
	StageGridded Stage = "l0b" // gridded from an existing tabular product
)

// Options are the processing switches of a run.
type Options struct {
	Force         bool
	Verbose       bool
	Parallel      bool
	Workers       int
	DebuggingMode bool
	Stages        Stage
}

func (o Options) withDefaults() Options {
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.Stages == "" {
		o.Stages = StageAll
	}
	return o
}

// ErrAllStationsFailed is returned by Run when no station reached done.
var ErrAllStationsFailed = errors.New("all stations failed")

// StationResult is the terminal outcome of one station.
type StationResult struct {
	Station  string       `json:"station"`
	State    domain.State `json:"state"`
	Stage    domain.State `json:"stage,omitempty"`
	Kind     string       `json:"kind,omitempty"`
	Error    string       `json:"error,omitempty"`
	Rows     int          `json:"rows"`
	Warnings []string     `json:"warnings,omitempty"`
	Err      error        `json:"-"`
}

// Summary aggregates the results of a run, sorted by station.
type Summary struct {
	RunID   string          `json:"run_id"`
	Done    int             `json:"done"`
	Failed  int             `json:"failed"`
	Results []StationResult `json:"results"`
}

func newSummary(runID string, results []StationResult) Summary {
	sort.SliceStable(results, func(i, j int) bool { return results[i].Station < results[j].Station })
	s := Summary{RunID: runID, Results: results}
	for _, r := range results {
		if r.State == domain.StateDone {
			s.Done++
		} else {
			s.Failed++
		}
	}
	return s
}

// Err returns ErrAllStationsFailed when stations were attempted and none
// succeeded.
func (s Summary) Err() error {
	if len(s.Results) > 0 && s.Done == 0 {
		return ErrAllStationsFailed
	}
	return nil
}
