package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/platinummonkey/cssprep/pkg/async"
	"github.com/platinummonkey/cssprep/pkg/selector"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce is used when Config.Debounce is not positive
const DefaultDebounce = 250 * time.Millisecond

// Runner performs one rebuild
type Runner interface {
	Run(ctx context.Context) error
}

// Config controls what is watched
type Config struct {
	// SourceRoot is watched recursively
	SourceRoot string
	// OutputRoot is never watched, even when it lives under SourceRoot
	OutputRoot string
	// Debounce is the quiet period after the last change before a rebuild
	Debounce time.Duration
	// Ignore lists base names whose changes never trigger a rebuild
	Ignore []string
}

// Watcher reruns the preprocessor when stylesheets change
type Watcher struct {
	cfg     Config
	runner  Runner
	log     logrus.FieldLogger
	watcher *fsnotify.Watcher
}

// New creates a Watcher and registers every directory under the source root
func New(cfg Config, runner Runner, log logrus.FieldLogger) (*Watcher, error) {
	if runner == nil {
		return nil, fmt.Errorf("runner is required")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	cfg.SourceRoot = filepath.Clean(cfg.SourceRoot)
	if cfg.OutputRoot != "" {
		cfg.OutputRoot = filepath.Clean(cfg.OutputRoot)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		cfg:     cfg,
		runner:  runner,
		log:     log.WithField("component", "watch"),
		watcher: fw,
	}
	if err := w.addTree(cfg.SourceRoot); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// Close releases the underlying watcher
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Watch blocks until ctx is done or a rebuild fails. A cancelled context is
// a clean stop and returns nil.
func (w *Watcher) Watch(ctx context.Context) error {
	w.log.WithField("root", w.cfg.SourceRoot).Info("Watching stylesheets for changes")

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.log.WithFields(logrus.Fields{
				"file": event.Name,
				"op":   event.Op.String(),
			}).Debug("Stylesheet changed")

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.log.WithError(err).Warn("Failed to watch new directory")
					}
				}
			}
			pending = time.After(w.cfg.Debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("Watcher error")

		case <-pending:
			pending = nil
			if err := w.rebuild(ctx); err != nil {
				return err
			}
		}
	}
}

func (w *Watcher) rebuild(ctx context.Context) error {
	w.log.Info("Rebuilding stylesheets")
	task := async.Go(ctx, "rebuild", w.log, w.runner.Run)
	if err := task.Wait(); err != nil {
		return fmt.Errorf("rebuild: %w", err)
	}
	return nil
}

// relevant filters out output artifacts, ignorable names and chmod-only events
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	if w.underOutput(event.Name) {
		return false
	}
	return !selector.IsIgnorable(filepath.Base(event.Name), w.cfg.Ignore)
}

func (w *Watcher) underOutput(name string) bool {
	if w.cfg.OutputRoot == "" {
		return false
	}
	name = filepath.Clean(name)
	return name == w.cfg.OutputRoot || strings.HasPrefix(name, w.cfg.OutputRoot+string(filepath.Separator))
}

// addTree recursively adds all directories to the watcher
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.underOutput(p) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(p); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		return nil
	})
}
