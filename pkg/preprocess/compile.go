package preprocess

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/platinummonkey/cssprep/pkg/artifacts"
	"github.com/platinummonkey/cssprep/pkg/cache"
	"github.com/platinummonkey/cssprep/pkg/config"
	"github.com/platinummonkey/cssprep/pkg/observability"
	"github.com/platinummonkey/cssprep/pkg/plugins"
	"github.com/platinummonkey/cssprep/pkg/selector"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// compileAll runs one task per entry and applies the aggregation policy
func (p *Preprocessor) compileAll(ctx context.Context, r *run, compiler plugins.CompilerPlugin, app *plugins.App, entries []selector.Entry) error {
	failFast := p.params.Aggregation == config.AggregateFailFast

	var (
		g    *errgroup.Group
		gctx = ctx
	)
	if failFast {
		g, gctx = errgroup.WithContext(ctx)
	} else {
		g = new(errgroup.Group)
	}
	if p.params.MaxParallel > 0 {
		g.SetLimit(p.params.MaxParallel)
	}

	t := &task{
		compiler: compiler,
		app:      app,
		guard:    artifacts.NewGuard(),
		treeHash: p.treeHash(r, app),
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	for _, entry := range entries {
		entry := entry
		g.Go(func() error {
			err := p.compileOne(gctx, r, t, entry)
			if err == nil || failFast {
				return err
			}
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d of %d stylesheets failed: %w", len(errs), len(entries), errors.Join(errs...))
	}
	return nil
}

// task holds what every per-file compilation of a run shares
type task struct {
	compiler plugins.CompilerPlugin
	app      *plugins.App
	guard    *artifacts.Guard
	treeHash string
}

// treeHash digests the source tree for cache keys. The version file is part
// of the tree: it is written before selection and its content depends on the
// plugin, so a new stamp must invalidate every sheet that imports it.
func (p *Preprocessor) treeHash(r *run, app *plugins.App) string {
	if p.cache == nil {
		return ""
	}

	digest, err := cache.TreeDigest(app.SourceRoot, p.params.CSSIgnoreFiles)
	if err != nil {
		r.log.WithError(err).Warn("Failed to digest source tree, parse cache disabled for this run")
		return ""
	}
	return digest
}

func (p *Preprocessor) compileOne(ctx context.Context, r *run, t *task, entry selector.Entry) error {
	log := r.log.WithField("file", entry.Source)

	ctx, span := observability.Tracer().Start(ctx, "preprocess.compile",
		trace.WithAttributes(attribute.String("file", entry.Source)),
	)
	defer span.End()

	err := p.compileEntry(ctx, r, t, entry, log, span)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "compile failed")
		log.WithError(err).Error("Failed to compile stylesheet")
	}
	return err
}

func (p *Preprocessor) compileEntry(ctx context.Context, r *run, t *task, entry selector.Entry, log logrus.FieldLogger, span trace.Span) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	root := t.app.SourceRoot
	if entry.Whitelisted {
		if err := selector.Verify(root, entry); err != nil {
			return err
		}
	}

	info, err := os.Stat(filepath.Join(root, filepath.FromSlash(entry.Source)))
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", entry.Source, err)
	}
	if info.IsDir() || selector.IsIgnorable(info.Name(), p.params.CSSIgnoreFiles) {
		r.skipped.Add(1)
		log.Debug("Skipping non-source entry")
		return nil
	}

	name := path.Clean(filepath.ToSlash(entry.Source))

	start := time.Now()
	outputName, compiled, hit, err := p.parse(ctx, t, name, log)
	if err != nil {
		p.metrics.ObserveCompile("error", time.Since(start))
		return fmt.Errorf("%w: %s: %w", ErrParseFailed, name, err)
	}
	p.metrics.ObserveCompile("success", time.Since(start))
	if hit {
		r.cacheHits.Add(1)
	}

	relOutput := entry.Destination
	if relOutput == "" {
		relOutput = outputName
	}
	if relOutput == "" {
		return fmt.Errorf("%w: %s: compiler returned no output name", ErrParseFailed, name)
	}

	outputPath, err := resolveOutput(t.app.OutputRoot, relOutput)
	if err != nil {
		return err
	}
	if err := t.guard.Claim(outputPath, name); err != nil {
		return err
	}

	span.SetAttributes(attribute.String("output", outputPath), attribute.Bool("cache.hit", hit))

	artifact, err := p.writer.Write(outputPath, []byte(compiled))
	if err != nil {
		return err
	}
	r.compiled.Add(1)

	if artifact.Written {
		r.written.Add(1)
		p.metrics.IncWrite("written")
		log.WithField("output", outputPath).Info("Compiled stylesheet")
	} else {
		r.unchanged.Add(1)
		p.metrics.IncWrite("unchanged")
	}

	p.publish(ctx, t.app.OutputRoot, outputPath, artifact, log)
	return nil
}

// publish uploads written artifacts, and unchanged ones whose last upload
// failed. Failures are remembered so a later run retries them.
func (p *Preprocessor) publish(ctx context.Context, root, outputPath string, artifact *artifacts.Artifact, log logrus.FieldLogger) {
	if p.publisher == nil {
		return
	}

	rel, err := filepath.Rel(root, outputPath)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	p.pubMu.Lock()
	_, pending := p.unpublished[rel]
	p.pubMu.Unlock()
	if !artifact.Written && !pending {
		return
	}

	if err := p.publisher.Publish(ctx, rel, artifact.Content); err != nil {
		p.metrics.IncPublish("error")
		log.WithError(err).Warn("Failed to publish stylesheet, will retry on the next run")
		p.pubMu.Lock()
		p.unpublished[rel] = struct{}{}
		p.pubMu.Unlock()
		return
	}

	p.metrics.IncPublish("success")
	if pending {
		p.pubMu.Lock()
		delete(p.unpublished, rel)
		p.pubMu.Unlock()
	}
}

// parse consults the cache before calling the compiler
func (p *Preprocessor) parse(ctx context.Context, t *task, name string, log logrus.FieldLogger) (string, string, bool, error) {
	var key *cache.Key
	if p.cache != nil && t.treeHash != "" {
		manifest := t.compiler.Manifest()
		key = &cache.Key{
			PluginID:      manifest.ID,
			PluginVersion: manifest.Version,
			AppName:       t.app.Name,
			AppVersion:    t.app.Version,
			Options:       t.app.Options,
			TreeHash:      t.treeHash,
			Source:        name,
		}

		entry, err := p.cache.Get(ctx, key)
		if err == nil {
			p.metrics.IncCache("hit")
			return entry.OutputName, entry.Compiled, true, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.WithError(err).Warn("Parse cache lookup failed")
		}
		p.metrics.IncCache("miss")
	}

	outputName, compiled, err := safeParse(ctx, t.compiler, t.app, name)
	if err != nil {
		return "", "", false, err
	}

	if key != nil {
		if err := p.cache.Set(ctx, key, &cache.Entry{OutputName: outputName, Compiled: compiled}); err != nil {
			log.WithError(err).Debug("Failed to store parse result")
		}
	}
	return outputName, compiled, false, nil
}

// safeParse turns a panicking plugin into a parse error
func safeParse(ctx context.Context, compiler plugins.CompilerPlugin, app *plugins.App, name string) (outputName, compiled string, err error) {
	defer func() {
		if perr := observability.MustRecover(recover()); perr != nil {
			err = perr
		}
	}()
	return compiler.Parse(ctx, app, name)
}

// resolveOutput joins a compiler or whitelist output name under root.
// Leading slashes are ignored; names climbing out of root are rejected.
func resolveOutput(root, name string) (string, error) {
	clean := path.Clean(strings.TrimLeft(filepath.ToSlash(name), "/"))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q is outside %s", ErrInvalidOutputPath, name, root)
	}
	return filepath.Join(root, filepath.FromSlash(clean)), nil
}
