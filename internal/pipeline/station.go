package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/couchcryptid/disdro-l0/internal/domain"
	"github.com/couchcryptid/disdro-l0/internal/metadata"
	"github.com/couchcryptid/disdro-l0/internal/product"
	"github.com/couchcryptid/disdro-l0/internal/reader"
	"github.com/couchcryptid/disdro-l0/internal/standards"
)

// KindCoercionFallback labels warning events for columns kept as string.
const KindCoercionFallback = "coercion_fallback"

var errNoRawFiles = errors.New("no raw files match the reader glob pattern")

// stationEnv is the run-wide context shared by every station.
type stationEnv struct {
	campaign Campaign
	opts     Options
	store    *metadata.Store
	runID    string
	logger   *slog.Logger
}

// stationRun carries one station through the state machine.
type stationRun struct {
	p      *Pipeline
	env    stationEnv
	name   string
	logger *slog.Logger

	state    domain.State
	station  domain.Station
	table    *domain.Table
	frame    *standards.Frame
	warnings []string
}

// runStation drives a station from discovered to a terminal state. Stages
// run strictly in order; any error, or a panic inside an adapter, fails the
// station without touching the others.
func (p *Pipeline) runStation(ctx context.Context, env stationEnv, name string) (res StationResult) {
	r := &stationRun{
		p:      p,
		env:    env,
		name:   name,
		logger: env.logger.With("station", name),
		state:  domain.StateDiscovered,
	}
	next := domain.StateParsed
	defer func() {
		if v := recover(); v != nil {
			res = r.fail(ctx, next, fmt.Errorf("panic during %s: %v", next, v))
		}
	}()

	if err := ctx.Err(); err != nil {
		return r.fail(ctx, next, err)
	}
	r.report(ctx, domain.NewStationEvent(env.runID, name, domain.StateDiscovered, p.clock.Now()))

	for !r.state.Terminal() {
		next = r.nextState()
		start := p.clock.Now()
		err := r.advance(ctx, next)
		p.metrics.StageDuration.WithLabelValues(string(next)).Observe(p.clock.Since(start).Seconds())
		if err != nil {
			return r.fail(ctx, next, err)
		}
		r.transition(ctx, next)
	}
	p.metrics.Stations.WithLabelValues(string(domain.StateDone)).Inc()
	return r.result()
}

func (r *stationRun) nextState() domain.State {
	switch r.state {
	case domain.StateDiscovered:
		return domain.StateParsed
	case domain.StateParsed:
		return domain.StateValidated
	case domain.StateValidated:
		return domain.StateTabularWritten
	case domain.StateTabularWritten:
		if r.env.opts.Stages == StageTabular {
			return domain.StateDone
		}
		return domain.StateGriddedWritten
	default:
		return domain.StateDone
	}
}

// advance performs the work of the transition into next.
func (r *stationRun) advance(ctx context.Context, next domain.State) error {
	switch next {
	case domain.StateParsed:
		return r.parse(ctx)
	case domain.StateValidated:
		return r.validate(ctx)
	case domain.StateTabularWritten:
		return r.writeTabular()
	case domain.StateGriddedWritten:
		return r.writeGridded()
	default:
		return nil
	}
}

func (r *stationRun) parse(ctx context.Context) error {
	st, err := r.env.store.Load(r.name)
	if err != nil {
		return err
	}
	r.station = st
	r.logger = r.logger.With("campaign", st.CampaignName, "reader", st.Reader)

	if r.env.opts.Stages == StageGridded {
		path := product.TabularPath(r.env.campaign.ProcessedDir, st.CampaignName, st.StationName)
		tbl, err := r.p.products.ReadTabular(path)
		if err != nil {
			return fmt.Errorf("read existing tabular product: %w", err)
		}
		r.table = tbl
		return nil
	}

	adapter, err := r.p.registry.ResolveReference(st.Reader)
	if err != nil {
		return err
	}
	spec := adapter.Spec()
	dir := filepath.Join(r.env.campaign.RawDir, "data", r.name)
	files, err := reader.SortedFiles(dir, spec, r.env.opts.DebuggingMode)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return &fs.PathError{Op: "glob", Path: filepath.Join(dir, spec.Glob), Err: errNoRawFiles}
	}
	r.logger.Debug("raw files selected", "files", len(files), "debugging_mode", r.env.opts.DebuggingMode)

	tbl, err := readSafely(ctx, adapter, reader.Request{
		Args: reader.Args{
			RawDir:        r.env.campaign.RawDir,
			ProcessedDir:  r.env.campaign.ProcessedDir,
			StationName:   r.name,
			Force:         r.env.opts.Force,
			Verbose:       r.env.opts.Verbose,
			Parallel:      r.env.opts.Parallel,
			DebuggingMode: r.env.opts.DebuggingMode,
		},
		Files:   files,
		Station: st,
	})
	if err != nil {
		return fmt.Errorf("reader %s: %w", st.Reader, err)
	}
	if tbl.Skipped > 0 {
		r.p.metrics.SkippedLines.Add(float64(tbl.Skipped))
		r.warn(ctx, domain.KindPartialData, &domain.PartialDataError{Station: r.name, Skipped: tbl.Skipped})
	}
	r.table = tbl
	return nil
}

// readSafely invokes the adapter, converting a panic into an error.
func readSafely(ctx context.Context, a reader.Adapter, req reader.Request) (tbl *domain.Table, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("adapter panic: %v", v)
		}
	}()
	tbl, err = a.Read(ctx, req)
	if err == nil && tbl == nil {
		err = errors.New("adapter returned no table")
	}
	return tbl, err
}

func (r *stationRun) validate(ctx context.Context) error {
	frame, outcomes, err := r.p.standards.Coerce(r.table, r.station.SensorName)
	if err != nil {
		return err
	}
	for _, o := range outcomes {
		if o.Failures > 0 && o.Column == standards.TimeColumn {
			r.warn(ctx, domain.KindPartialData, fmt.Errorf("%d unparseable time values, rows dropped (e.g. %q)", o.Failures, o.Sample))
			continue
		}
		if !o.FellBack() {
			continue
		}
		r.p.metrics.ColumnFallbacks.WithLabelValues(o.Column).Inc()
		r.warn(ctx, KindCoercionFallback, fmt.Errorf("column %s kept as string: %d values failed %s coercion (e.g. %q)",
			o.Column, o.Failures, o.Declared, o.Sample))
	}
	if len(frame.Dropped) > 0 {
		r.logger.Debug("columns not in standards dropped", "columns", frame.Dropped)
	}
	if frame.DroppedRows > 0 {
		r.logger.Info("rows without time dropped", "rows", frame.DroppedRows)
	}
	r.frame = frame
	r.table = nil
	return nil
}

func (r *stationRun) writeTabular() error {
	if r.env.opts.Stages == StageGridded {
		return nil
	}
	path := product.TabularPath(r.env.campaign.ProcessedDir, r.station.CampaignName, r.station.StationName)
	if err := r.p.products.WriteTabular(path, r.frame, r.env.opts.Force); err != nil {
		return err
	}
	r.p.metrics.RowsWritten.Add(float64(r.frame.Len()))
	r.logStage("tabular product written", "path", path, "rows", r.frame.Len())
	return nil
}

func (r *stationRun) writeGridded() error {
	ds, err := r.p.builder.Build(r.frame, r.station)
	if err != nil {
		return err
	}
	path := product.GriddedPath(r.env.campaign.ProcessedDir, r.station.CampaignName, r.station.StationName)
	if err := r.p.products.WriteGridded(path, ds, r.env.opts.Force); err != nil {
		return err
	}
	r.logStage("gridded product written", "path", path, "dataset", ds.String())
	return nil
}

// logStage logs stage completion at info when verbose, debug otherwise.
func (r *stationRun) logStage(msg string, args ...any) {
	level := slog.LevelDebug
	if r.env.opts.Verbose {
		level = slog.LevelInfo
	}
	r.logger.Log(context.Background(), level, msg, args...)
}

func (r *stationRun) rows() int {
	if r.frame != nil {
		return r.frame.Len()
	}
	if r.table != nil {
		return r.table.Len()
	}
	return 0
}

func (r *stationRun) transition(ctx context.Context, next domain.State) {
	r.state = next
	ev := domain.NewStationEvent(r.env.runID, r.name, next, r.p.clock.Now())
	ev.Rows = r.rows()
	r.report(ctx, ev)
}

func (r *stationRun) warn(ctx context.Context, kind string, err error) {
	r.warnings = append(r.warnings, err.Error())
	ev := domain.NewStationEvent(r.env.runID, r.name, r.state, r.p.clock.Now())
	ev.Kind = kind
	ev.Message = err.Error()
	r.report(ctx, ev)
}

func (r *stationRun) fail(ctx context.Context, stage domain.State, err error) StationResult {
	kind := domain.ErrorKind(err)
	r.state = domain.StateFailed
	r.p.metrics.Stations.WithLabelValues(string(domain.StateFailed)).Inc()
	r.p.metrics.StationFailures.WithLabelValues(string(stage), kind).Inc()

	ev := domain.NewStationEvent(r.env.runID, r.name, domain.StateFailed, r.p.clock.Now())
	ev.Stage = stage
	ev.Kind = kind
	ev.Message = err.Error()
	r.report(ctx, ev)

	res := r.result()
	res.Stage = stage
	res.Kind = kind
	res.Error = err.Error()
	res.Err = err
	return res
}

func (r *stationRun) result() StationResult {
	return StationResult{
		Station:  r.name,
		State:    r.state,
		Rows:     r.rows(),
		Warnings: r.warnings,
	}
}

// report publishes an event even when ctx is already canceled.
func (r *stationRun) report(ctx context.Context, ev domain.StationEvent) {
	r.p.reporter.Report(context.WithoutCancel(ctx), ev)
}
