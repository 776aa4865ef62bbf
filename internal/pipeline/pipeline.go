// Package pipeline runs the generate → clean → filter sequence described by a
// config.Pipeline. The steps are pipz processors chained in a sequence over a
// per-run state value. Every step is logged, traced and recorded in metrics;
// the step packages themselves know nothing about either.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/zoobzio/pipz"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cargopipe/internal/cargo"
	"cargopipe/internal/cleaner"
	"cargopipe/internal/config"
	"cargopipe/internal/entropy"
	"cargopipe/internal/filter"
	"cargopipe/internal/generator"
	"cargopipe/internal/metrics"
)

// Step names used in logs, spans and metric labels.
const (
	StepGenerate = "generate"
	StepClean    = "clean"
	StepFilter   = "filter"
)

var tracer = otel.Tracer("cargopipe/internal/pipeline")

// Report is the outcome of one run.
type Report struct {
	RunID string
	Job   string
	// Index is the run's position within RunMany; 0 for a single run.
	Index int
	// Seed is the seed used for this run, or nil for an ambient source.
	Seed *uint64

	Generate generator.Stats
	// Dirty counts generated rows that fail the per-row checks.
	Dirty int

	// Clean is nil when the clean step is disabled.
	Clean   *CleanSummary
	Removed map[cleaner.Reason]int

	// Target is config.TargetRaw or config.TargetClean.
	Target string

	Raw     []cargo.RawCargo
	Cleaned []cargo.CleanCargo
	// Exactly one of FilteredRaw and FilteredClean is set, per Target.
	FilteredRaw   []cargo.RawCargo
	FilteredClean []cargo.CleanCargo

	// Fingerprint digests the ids of the filtered rows in order.
	Fingerprint uint64
	Duration    time.Duration
}

// CleanSummary mirrors cleaner.Result without the rows.
type CleanSummary struct {
	RemovedCount   int
	RemainingCount int
	Duration       time.Duration
}

// FilteredCount is the number of rows that passed the filter.
func (r Report) FilteredCount() int {
	if r.Target == config.TargetClean {
		return len(r.FilteredClean)
	}
	return len(r.FilteredRaw)
}

// Runner executes pipeline runs for one configuration.
type Runner struct {
	cfg config.Pipeline
	log *zap.Logger
	now func() time.Time
	seq pipz.Chainable[*runState]
}

// Option customizes a Runner.
type Option func(*Runner)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// WithClock overrides the clock passed to the generator and cleaner. It must
// be safe for concurrent use when RunMany runs in parallel.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// New returns a Runner for cfg. Defaults are applied to cfg; callers are
// expected to have run config.ValidatePipeline already.
func New(cfg config.Pipeline, opts ...Option) *Runner {
	r := &Runner{
		cfg: cfg.WithDefaults(),
		log: zap.NewNop(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.seq = r.sequence()
	return r
}

// Config returns the effective configuration.
func (r *Runner) Config() config.Pipeline { return r.cfg }

// Run executes a single run. A configured seed makes it reproducible.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	return r.run(ctx, 0)
}

// RunMany executes Runtime.Runs independent runs, at most
// Runtime.Parallelism at a time. With a seed, run i uses seed+i. The first
// failure cancels the remaining runs and is returned.
func (r *Runner) RunMany(ctx context.Context) ([]Report, error) {
	n := r.cfg.Runtime.Runs
	reports := make([]Report, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Runtime.Parallelism)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			rep, err := r.run(gctx, i)
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			reports[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *Runner) source(i int) (entropy.Source, *uint64) {
	if r.cfg.Runtime.Seed == nil {
		return entropy.NewAmbient(), nil
	}
	seed := *r.cfg.Runtime.Seed + uint64(i)
	return entropy.New(seed), &seed
}

func (r *Runner) run(ctx context.Context, index int) (Report, error) {
	job := r.cfg.Job
	src, seed := r.source(index)
	st := &runState{
		rep: Report{
			RunID: ulid.Make().String(),
			Job:   job,
			Index: index,
			Seed:  seed,
		},
		src: src,
	}
	st.log = r.log.With(zap.String("run_id", st.rep.RunID), zap.String("job", job), zap.Int("run", index))
	if seed != nil {
		st.log = st.log.With(zap.Uint64("seed", *seed))
	}

	ctx, span := tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("run_id", st.rep.RunID),
		attribute.String("job", job),
	))
	defer span.End()

	start := time.Now()
	err := r.process(ctx, st)
	st.rep.Duration = time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		st.log.Error("run failed", zap.Error(err), zap.Duration("duration", st.rep.Duration))
		return Report{}, err
	}

	rep := st.rep
	metrics.RecordRun(job)
	span.SetStatus(codes.Ok, "")
	st.log.Info("run done",
		zap.String("target", rep.Target),
		zap.Int("filtered", rep.FilteredCount()),
		zap.String("fingerprint", fmt.Sprintf("%016x", rep.Fingerprint)),
		zap.Duration("duration", rep.Duration),
	)
	return rep, nil
}

// runState is the value threaded through the step sequence. A failing step
// also stores its error in err; process returns that instead of the
// sequence's wrapper.
type runState struct {
	rep Report
	log *zap.Logger
	src entropy.Source
	err error
}

// process runs the step sequence over st.
func (r *Runner) process(ctx context.Context, st *runState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := r.seq.Process(ctx, st)
	switch {
	case st.err != nil:
		return st.err
	case err != nil:
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		return err
	}
	return nil
}

// sequence builds the generate, clean, filter chain for r. The clean step is
// left out when it is disabled.
func (r *Runner) sequence() pipz.Chainable[*runState] {
	steps := []pipz.Chainable[*runState]{
		pipz.Apply(StepGenerate, r.stepFunc(StepGenerate, r.generateStep)),
	}
	if r.cfg.Clean.IsEnabled() {
		steps = append(steps, pipz.Apply(StepClean, r.stepFunc(StepClean, r.cleanStep)))
	}
	steps = append(steps, pipz.Apply(StepFilter, r.stepFunc(StepFilter, r.filterStep)))
	return pipz.NewSequence[*runState]("cargo-run", steps...)
}

// stepFunc adapts a step to a sequence processor. A cancelled context stops
// the run before the step starts.
func (r *Runner) stepFunc(name string, fn func(*runState, trace.Span) error) func(context.Context, *runState) (*runState, error) {
	return func(ctx context.Context, st *runState) (*runState, error) {
		if err := ctx.Err(); err != nil {
			st.err = err
			return st, err
		}
		err := r.step(ctx, st.log, name, func(span trace.Span) error { return fn(st, span) })
		if err != nil {
			st.err = err
			return st, err
		}
		return st, nil
	}
}

func (r *Runner) generateStep(st *runState, span trace.Span) error {
	job := st.rep.Job
	gen, err := generator.Generate(r.cfg.Generate, generator.WithSource(st.src), generator.WithClock(r.now))
	if err != nil {
		return err
	}
	s := gen.Stats
	span.SetAttributes(attribute.Int("rows", s.GeneratedCount))
	metrics.RecordRow(job, "generated", int64(s.GeneratedCount))
	metrics.RecordRow(job, "null_status", int64(s.NullStatusCount))
	metrics.RecordRow(job, "null_kg", int64(s.NullKgCount))
	metrics.RecordRow(job, "negative_price", int64(s.NegativePriceCount))
	st.log.Debug("generated",
		zap.Int("count", s.GeneratedCount),
		zap.Int("null_status", s.NullStatusCount),
		zap.Int("null_kg", s.NullKgCount),
		zap.Int("negative_price", s.NegativePriceCount),
		zap.Int64("duration_ms", s.DurationMs()),
	)
	st.rep.Generate = s
	st.rep.Raw = gen.Rows
	st.rep.Dirty = cargo.CountDirty(gen.Rows)
	return nil
}

func (r *Runner) cleanStep(st *runState, span trace.Span) error {
	job := st.rep.Job
	removed := make(map[cleaner.Reason]int, len(cleaner.Reasons))
	res, err := cleaner.Clean(st.rep.Raw,
		cleaner.WithTimeout(r.cfg.Clean.Timeout()),
		cleaner.WithClock(r.now),
		cleaner.WithRejectHook(func(_ int, reason cleaner.Reason) { removed[reason]++ }),
	)
	if err != nil {
		return err
	}
	span.SetAttributes(
		attribute.Int("removed", res.RemovedCount),
		attribute.Int("remaining", res.RemainingCount),
	)
	metrics.RecordRow(job, "clean", int64(res.RemainingCount))
	metrics.RecordRow(job, "removed", int64(res.RemovedCount))
	for _, reason := range cleaner.Reasons {
		metrics.RecordRow(job, "removed_"+string(reason), int64(removed[reason]))
	}
	st.log.Debug("cleaned",
		zap.Int("removed", res.RemovedCount),
		zap.Int("remaining", res.RemainingCount),
		zap.Int64("duration_ms", res.DurationMs()),
	)
	st.rep.Cleaned = res.Rows
	st.rep.Removed = removed
	st.rep.Clean = &CleanSummary{
		RemovedCount:   res.RemovedCount,
		RemainingCount: res.RemainingCount,
		Duration:       res.Duration,
	}
	return nil
}

func (r *Runner) filterStep(st *runState, span trace.Span) error {
	rep := &st.rep
	rep.Target = r.cfg.FilterTarget()
	spec := r.cfg.Filter.Spec
	if rep.Target == config.TargetClean {
		rep.FilteredClean = filter.Apply(rep.Cleaned, spec)
		rep.Fingerprint = cargo.Fingerprint(cargo.CleanIDs(rep.FilteredClean))
	} else {
		rep.FilteredRaw = filter.Apply(rep.Raw, spec)
		rep.Fingerprint = cargo.Fingerprint(cargo.RawIDs(rep.FilteredRaw))
	}
	matched := rep.FilteredCount()
	span.SetAttributes(
		attribute.String("target", rep.Target),
		attribute.Int("matched", matched),
	)
	metrics.RecordRow(rep.Job, "filtered", int64(matched))
	st.log.Debug("filtered", zap.String("target", rep.Target), zap.Int("matched", matched))
	return nil
}

// step wraps fn in a span and records its duration and outcome. Errors are
// wrapped with the step name.
func (r *Runner) step(ctx context.Context, log *zap.Logger, name string, fn func(trace.Span) error) error {
	_, span := tracer.Start(ctx, "pipeline."+name)
	defer span.End()

	start := time.Now()
	err := fn(span)
	d := time.Since(start)
	metrics.RecordStep(r.cfg.Job, name, err, d)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn("step failed", zap.String("step", name), zap.Error(err), zap.Duration("duration", d))
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
