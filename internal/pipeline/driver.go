package pipeline

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/vendorroll/internal/buildfile"
	"git.home.luguber.info/inful/vendorroll/internal/classify"
	"git.home.luguber.info/inful/vendorroll/internal/config"
	"git.home.luguber.info/inful/vendorroll/internal/fileset"
	"git.home.luguber.info/inful/vendorroll/internal/foundation/errors"
	"git.home.luguber.info/inful/vendorroll/internal/git"
	"git.home.luguber.info/inful/vendorroll/internal/logfields"
	"git.home.luguber.info/inful/vendorroll/internal/materialize"
	"git.home.luguber.info/inful/vendorroll/internal/metrics"
	"git.home.luguber.info/inful/vendorroll/internal/observability"
	"git.home.luguber.info/inful/vendorroll/internal/preflight"
	"git.home.luguber.info/inful/vendorroll/internal/shim"
	"git.home.luguber.info/inful/vendorroll/internal/stage"
	"git.home.luguber.info/inful/vendorroll/internal/workspace"
)

// FetcherFactory returns the fetcher for a configured backend.
type FetcherFactory func(backend string, progress io.Writer) (git.Fetcher, error)

// ClassifierFactory returns the classifier for a configured strategy.
type ClassifierFactory func(cfg config.ClassifierConfig) (classify.Classifier, error)

// Driver runs targets of one configuration.
type Driver struct {
	cfg               *config.Config
	fetcherFactory    FetcherFactory
	classifierFactory ClassifierFactory
	toolChecker       func(tools []string) error
	recorder          metrics.Recorder
	progress          io.Writer
	staging           bool
}

// Option configures a Driver.
type Option func(*Driver)

// WithFetcher uses f for every target regardless of its fetcher setting.
func WithFetcher(f git.Fetcher) Option {
	return func(d *Driver) {
		d.fetcherFactory = func(string, io.Writer) (git.Fetcher, error) { return f, nil }
	}
}

// WithClassifier uses c for every target regardless of its strategy.
func WithClassifier(c classify.Classifier) Option {
	return func(d *Driver) {
		d.classifierFactory = func(config.ClassifierConfig) (classify.Classifier, error) { return c, nil }
	}
}

// WithToolChecker replaces the PATH lookup used by preflight.
func WithToolChecker(check func(tools []string) error) Option {
	return func(d *Driver) { d.toolChecker = check }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(d *Driver) {
		if r != nil {
			d.recorder = r
		}
	}
}

// WithProgress streams clone progress to w.
func WithProgress(w io.Writer) Option {
	return func(d *Driver) { d.progress = w }
}

// WithStaging toggles staged writes. Without staging the destination and shim
// trees are wiped up front and written in place.
func WithStaging(enabled bool) Option {
	return func(d *Driver) { d.staging = enabled }
}

// NewDriver creates a Driver for cfg.
func NewDriver(cfg *config.Config, opts ...Option) *Driver {
	d := &Driver{
		cfg:               cfg,
		fetcherFactory:    git.New,
		classifierFactory: classify.New,
		toolChecker:       preflight.Check,
		recorder:          metrics.NoopRecorder{},
		staging:           true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// RunAll runs the named targets in order, or every target when names is empty.
// It stops at the first failure.
func (d *Driver) RunAll(ctx context.Context, names []string) ([]*Result, error) {
	targets := make([]*config.Target, 0, len(d.cfg.Targets))
	if len(names) == 0 {
		for i := range d.cfg.Targets {
			targets = append(targets, &d.cfg.Targets[i])
		}
	} else {
		for _, name := range names {
			t, ok := d.cfg.Target(name)
			if !ok {
				return nil, errors.ValidationError("unknown target").WithContext("target", name).Build()
			}
			targets = append(targets, t)
		}
	}

	results := make([]*Result, 0, len(targets))
	for _, t := range targets {
		res, err := d.Run(ctx, t)
		results = append(results, res)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// run is the per-target state carried between steps.
type run struct {
	target    *config.Target
	result    *Result
	checkout  string
	files     *fileset.FileSet
	destWrite string
	shimWrite string
	stages    []*stage.Stage
}

// Run vendors one target.
func (d *Driver) Run(ctx context.Context, t *config.Target) (res *Result, err error) {
	start := time.Now()
	res = &Result{
		Target:      t.Name,
		RunID:       uuid.NewString(),
		Revision:    t.Revision,
		Destination: d.cfg.Resolve(t.Destination),
		StartTime:   start,
	}
	if t.Shims != nil {
		res.ShimRoot = d.cfg.Resolve(t.Shims.Root)
	}
	ctx = observability.WithRunID(ctx, res.RunID)
	ctx = observability.WithTarget(ctx, t.Name)
	r := &run{target: t, result: res, destWrite: res.Destination, shimWrite: res.ShimRoot}

	observability.InfoContext(ctx, "Vendoring target",
		logfields.Repository(t.Repository),
		logfields.Revision(t.Revision),
		logfields.Path(res.Destination))

	defer func() {
		for _, s := range r.stages {
			s.Discard()
		}
		res.EndTime = time.Now()
		res.Duration = res.EndTime.Sub(start)
		d.recorder.ObserveRunDuration(t.Name, res.Duration)
		switch {
		case err == nil:
			d.recorder.IncRunOutcome(t.Name, metrics.OutcomeSuccess)
			observability.InfoContext(ctx, "Vendoring complete",
				logfields.Revision(res.Revision),
				logfields.Count(res.Files),
				logfields.DurationMS(float64(res.Duration.Milliseconds())))
		default:
			res.States = append(res.States, StateFailed)
			outcome := metrics.OutcomeFailed
			if ctx.Err() != nil {
				outcome = metrics.OutcomeCanceled
			}
			d.recorder.IncRunOutcome(t.Name, outcome)
			observability.ErrorContext(ctx, "Vendoring failed",
				slog.String("category", string(errors.GetCategory(err))),
				logfields.Error(err))
		}
	}()

	if err := d.step(ctx, r, StatePreflight, func(context.Context) error {
		return d.toolChecker(preflight.Tools(t))
	}); err != nil {
		return res, err
	}

	if err := d.step(ctx, r, StateCleaned, func(ctx context.Context) error { return d.clean(ctx, r) }); err != nil {
		return res, err
	}

	err = workspace.With(d.cfg.WorkspaceDir, t.Name, func(ws string) error {
		r.checkout = filepath.Join(ws, "checkout")
		for _, s := range []struct {
			state State
			fn    func(context.Context, *run) error
		}{
			{StateFetched, d.fetch},
			{StateClassified, d.classify},
			{StateMaterialized, d.materialize},
			{StateManifested, d.manifest},
			{StateShimmed, d.shim},
		} {
			if err := d.step(ctx, r, s.state, func(ctx context.Context) error { return s.fn(ctx, r) }); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return res, err
	}

	if err := d.step(ctx, r, StateDone, func(context.Context) error {
		if err := stage.Commit(r.stages...); err != nil {
			return err
		}
		r.stages = nil
		return nil
	}); err != nil {
		return res, err
	}
	d.recorder.SetVendoredFiles(t.Name, "files", res.Files)
	d.recorder.SetVendoredFiles(t.Name, "shims", res.Shims)
	return res, nil
}

// step runs fn and records the transition to next.
func (d *Driver) step(ctx context.Context, r *run, next State, fn func(context.Context) error) error {
	name := next.stageName()
	ctx = observability.WithStage(ctx, name)
	if err := ctx.Err(); err != nil {
		d.recorder.IncStageResult(r.target.Name, name, metrics.ResultCanceled)
		return errors.WrapError(err, errors.CategoryInternal, "run canceled").Build()
	}

	started := time.Now()
	err := fn(ctx)
	d.recorder.ObserveStageDuration(r.target.Name, name, time.Since(started))
	if err != nil {
		result := metrics.ResultFatal
		if ctx.Err() != nil {
			result = metrics.ResultCanceled
		}
		d.recorder.IncStageResult(r.target.Name, name, result)
		return err
	}
	d.recorder.IncStageResult(r.target.Name, name, metrics.ResultSuccess)
	r.result.States = append(r.result.States, next)
	observability.DebugContext(ctx, "State reached",
		slog.String("state", string(next)),
		logfields.DurationMS(float64(time.Since(started).Milliseconds())))
	return nil
}

// clean prepares empty trees to write into: staging directories beside the
// final locations, or the final locations themselves wiped in place.
func (d *Driver) clean(_ context.Context, r *run) error {
	finals := []*string{&r.destWrite}
	if r.result.ShimRoot != "" {
		finals = append(finals, &r.shimWrite)
	}
	for _, p := range finals {
		if d.staging {
			s, err := stage.New(*p)
			if err != nil {
				return err
			}
			r.stages = append(r.stages, s)
			*p = s.Path()
			continue
		}
		if err := os.RemoveAll(*p); err != nil {
			return errors.FileSystemFailure(err, "wipe tree").WithContext("path", *p).Build()
		}
		if err := os.MkdirAll(*p, 0o755); err != nil {
			return errors.FileSystemFailure(err, "create tree").WithContext("path", *p).Build()
		}
	}
	return nil
}

func (d *Driver) fetch(ctx context.Context, r *run) error {
	t := r.target
	fetcher, err := d.fetcherFactory(t.Fetcher, d.progress)
	if err != nil {
		return err
	}
	started := time.Now()
	err = fetcher.Fetch(ctx, t.Repository, t.Revision, r.checkout)
	d.recorder.ObserveFetchDuration(t.Name, time.Since(started), err == nil)
	if err != nil {
		return err
	}
	if hash, detached, headErr := git.ReadRepoHead(r.checkout); headErr == nil {
		r.result.Revision = hash
		if !detached {
			observability.WarnContext(ctx, "Checkout is not detached", logfields.Revision(hash))
		}
	}
	return nil
}

func (d *Driver) classify(ctx context.Context, r *run) error {
	c, err := d.classifierFactory(r.target.Classifier)
	if err != nil {
		return err
	}
	fs, err := classify.Run(ctx, c, r.checkout, r.target.Required)
	if err != nil {
		return err
	}
	r.files = fs
	observability.InfoContext(ctx, "Classified checkout",
		logfields.Count(fs.Count()),
		slog.Int("categories", len(fs.Categories)),
		slog.Int("asm_groups", len(fs.Asm)))
	return nil
}

func (d *Driver) materialize(_ context.Context, r *run) error {
	n, err := materialize.New(materialize.FromTarget(r.target)).Materialize(r.files, r.checkout, r.destWrite)
	if err != nil {
		return err
	}
	r.result.Files = n
	return nil
}

func (d *Driver) manifest(_ context.Context, r *run) error {
	return buildfile.FromTarget(r.target).Write(r.files, r.destWrite)
}

func (d *Driver) shim(ctx context.Context, r *run) error {
	if r.target.Shims == nil {
		observability.DebugContext(ctx, "No shims configured")
		return nil
	}
	sources := shim.Sources(r.files, r.target.Shims.Categories)
	n, err := shim.FromTarget(r.target).Generate(sources, r.result.Destination, r.result.ShimRoot, r.shimWrite)
	if err != nil {
		return err
	}
	r.result.Shims = n
	return nil
}
