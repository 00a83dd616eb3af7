package preprocess

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/platinummonkey/cssprep/pkg/artifacts"
	"github.com/platinummonkey/cssprep/pkg/async"
	"github.com/platinummonkey/cssprep/pkg/cache"
	"github.com/platinummonkey/cssprep/pkg/config"
	"github.com/platinummonkey/cssprep/pkg/observability"
	"github.com/platinummonkey/cssprep/pkg/plugins"
	"github.com/platinummonkey/cssprep/pkg/selector"
	"github.com/platinummonkey/cssprep/pkg/versionfile"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Preprocessor compiles the application's stylesheets through the
// configured compiler plugin.
//
// A run moves through the states in state.go:
//
//	READY -> SKIPPED                                  no compiler configured
//	READY -> PLUGIN_LOAD_FAILED -> DISABLED           compiler not registered
//	READY -> VALIDATING -> VALIDATION_FAILED -> PROCESS_EXIT
//	READY -> VALIDATING -> SELECTING_FILES -> COMPILING -> DONE | PROCESS_EXIT
//
// Every terminal state except PROCESS_EXIT invokes OnComplete exactly once.
// PROCESS_EXIT is reported by Run returning an error; the caller decides how
// to stop the process.
type Preprocessor struct {
	params     *config.Params
	registry   *plugins.Registry
	log        logrus.FieldLogger
	metrics    *observability.Metrics
	cache      cache.Cache
	publisher  Publisher
	onComplete func()

	writer   *artifacts.Writer
	versions *versionfile.Writer

	// runMu serialises runs
	runMu sync.Mutex

	// unpublished holds output paths whose last upload failed
	pubMu       sync.Mutex
	unpublished map[string]struct{}

	mu       sync.RWMutex
	state    State
	disabled bool
	report   *Report
}

// New creates a Preprocessor
func New(opts Options) (*Preprocessor, error) {
	if opts.Params == nil {
		return nil, fmt.Errorf("params are required")
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("plugin registry is required")
	}

	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	writer := artifacts.NewWriter(log)

	return &Preprocessor{
		params:      opts.Params,
		registry:    opts.Registry,
		log:         log,
		metrics:     opts.Metrics,
		cache:       opts.Cache,
		publisher:   opts.Publisher,
		onComplete:  opts.OnComplete,
		writer:      writer,
		versions:    versionfile.NewWriter(writer, log),
		unpublished: make(map[string]struct{}),
		state:       StateReady,
	}, nil
}

// State returns the state of the current or last run
func (p *Preprocessor) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Disabled reports whether a failed plugin load turned the compiler off
func (p *Preprocessor) Disabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.disabled
}

// LastReport returns the report of the last finished run, or nil
func (p *Preprocessor) LastReport() *Report {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.report == nil {
		return nil
	}
	report := *p.report
	report.States = append([]State(nil), p.report.States...)
	return &report
}

// run carries per-run bookkeeping
type run struct {
	id     string
	log    logrus.FieldLogger
	start  time.Time
	states []State
	once   sync.Once

	selected  int
	compiled  atomic.Int64
	written   atomic.Int64
	unchanged atomic.Int64
	skipped   atomic.Int64
	cacheHits atomic.Int64
}

// Run performs one preprocessing pass. A non-nil error means the run ended
// in PROCESS_EXIT and the host must not continue.
func (p *Preprocessor) Run(ctx context.Context) error {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	r := &run{
		id:    uuid.NewString(),
		start: time.Now(),
	}
	r.log = p.log.WithFields(logrus.Fields{
		"app":    p.params.AppName,
		"run_id": r.id,
	})

	ctx, span := observability.Tracer().Start(ctx, "preprocess.Run",
		trace.WithAttributes(
			attribute.String("run.id", r.id),
			attribute.String("app.name", p.params.AppName),
			attribute.String("css.compiler", p.params.CSSCompiler.Name()),
		),
	)
	defer span.End()

	p.transition(r, StateReady)
	err := p.run(ctx, r)

	report := p.finish(r)
	span.SetAttributes(
		attribute.String("run.state", string(report.State)),
		attribute.Int("files.selected", report.Selected),
		attribute.Int("files.written", report.Written),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "preprocessing failed")
		r.log.WithError(err).Error("CSS preprocessing failed")
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

func (p *Preprocessor) run(ctx context.Context, r *run) error {
	setting := p.params.CSSCompiler
	if !setting.Enabled() || p.Disabled() {
		r.log.Info("No CSS compiler configured, skipping stylesheet preprocessing")
		p.transition(r, StateSkipped)
		p.signal(r)
		return nil
	}

	candidate, err := p.registry.Lookup(setting.Name())
	if err != nil {
		r.log.WithError(err).Errorf("Failed to load CSS compiler %s, disabling it", setting.Name())
		p.transition(r, StatePluginLoadFailed)
		p.mu.Lock()
		p.disabled = true
		p.mu.Unlock()
		p.transition(r, StateDisabled)
		p.signal(r)
		return nil
	}

	p.transition(r, StateValidating)

	versioned := p.params.VersionedCSSFile
	if versioned != nil {
		if err := versionfile.Validate(versioned); err != nil {
			r.log.WithError(err).Error("Invalid versioned_css_file, version file will not be generated")
			versioned = nil
		}
	}

	compiler, err := plugins.ValidateCompiler(candidate, versioned != nil)
	if err != nil {
		p.transition(r, StateValidationFailed)
		p.transition(r, StateProcessExit)
		return fmt.Errorf("css compiler %s: %w", setting.Name(), err)
	}

	app := p.app(versioned)

	for _, dir := range []string{app.SourceRoot, app.OutputRoot} {
		if err := ensureDir(dir, r.log); err != nil {
			p.transition(r, StateProcessExit)
			return err
		}
	}

	if versioned != nil {
		coder := compiler.(plugins.VersionCoder)
		task := async.Go(ctx, "version file", r.log, func(ctx context.Context) error {
			_, err := p.versions.Write(ctx, coder, app, versioned.FileName)
			return err
		})
		// The version file is a selectable source: it must be settled before
		// the scan, the tree digest and any compile task read it. Its failure
		// is already logged by the task and never fails the batch.
		_ = task.Wait()
	}

	p.transition(r, StateSelectingFiles)

	entries, err := selector.Select(selector.Config{
		Root:      app.SourceRoot,
		Whitelist: p.params.CSSCompilerWhitelist,
		Ignore:    p.params.CSSIgnoreFiles,
	})
	if errors.Is(err, selector.ErrWhitelistMisconfigured) {
		r.log.WithError(err).Error("css_compiler_whitelist must be a list of files, no stylesheets compiled")
		p.metrics.SetSelected(0)
		p.transition(r, StateDone)
		p.signal(r)
		return nil
	}
	if err != nil {
		p.transition(r, StateProcessExit)
		return err
	}

	r.selected = len(entries)
	p.metrics.SetSelected(len(entries))

	p.transition(r, StateCompiling)
	r.log.WithField("files", len(entries)).Infof("Compiling stylesheets with %s", setting.Name())

	if err := p.compileAll(ctx, r, compiler, app, entries); err != nil {
		p.transition(r, StateProcessExit)
		return err
	}

	p.transition(r, StateDone)
	p.signal(r)
	return nil
}

// app builds the handle passed to the plugin
func (p *Preprocessor) app(versioned *config.VersionedFile) *plugins.App {
	options := make(map[string]string, len(p.params.CSSCompiler.Options))
	for k, v := range p.params.CSSCompiler.Options {
		options[k] = v
	}

	app := &plugins.App{
		Name:       p.params.AppName,
		Version:    p.params.AppVersion,
		SourceRoot: p.params.CSSPath,
		OutputRoot: p.params.CSSCompiledOutput,
		Options:    options,
	}
	if versioned != nil {
		app.VersionVar = versioned.VarName
	}
	return app
}

func (p *Preprocessor) transition(r *run, state State) {
	p.mu.Lock()
	p.state = state
	p.mu.Unlock()

	r.states = append(r.states, state)
	r.log.WithField("state", state).Debug("Preprocessor state changed")
}

// signal invokes the completion callback at most once per run
func (p *Preprocessor) signal(r *run) {
	r.once.Do(func() {
		if p.onComplete != nil {
			p.onComplete()
		}
	})
}

// finish records the report and run metrics
func (p *Preprocessor) finish(r *run) *Report {
	report := &Report{
		RunID:     r.id,
		State:     r.states[len(r.states)-1],
		States:    r.states,
		Selected:  r.selected,
		Compiled:  int(r.compiled.Load()),
		Written:   int(r.written.Load()),
		Unchanged: int(r.unchanged.Load()),
		Skipped:   int(r.skipped.Load()),
		CacheHits: int(r.cacheHits.Load()),
		Duration:  time.Since(r.start),
	}

	p.mu.Lock()
	p.report = report
	p.mu.Unlock()

	p.metrics.ObserveRun(string(report.State), report.Duration)

	r.log.WithFields(logrus.Fields{
		"state":      report.State,
		"selected":   report.Selected,
		"compiled":   report.Compiled,
		"written":    report.Written,
		"unchanged":  report.Unchanged,
		"skipped":    report.Skipped,
		"cache_hits": report.CacheHits,
		"duration":   report.Duration.Round(time.Millisecond).String(),
	}).Info("CSS preprocessing finished")

	return report
}

func ensureDir(dir string, log logrus.FieldLogger) error {
	if _, err := os.Stat(dir); err == nil {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: create %s: %v", artifacts.ErrWriteFailed, dir, err)
	}
	log.WithField("dir", dir).Info("Created directory")
	return nil
}
