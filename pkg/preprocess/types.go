package preprocess

import (
	"context"
	"time"

	"github.com/platinummonkey/cssprep/pkg/cache"
	"github.com/platinummonkey/cssprep/pkg/config"
	"github.com/platinummonkey/cssprep/pkg/observability"
	"github.com/platinummonkey/cssprep/pkg/plugins"
	"github.com/sirupsen/logrus"
)

// Publisher mirrors a written artifact somewhere else. relPath is relative
// to the compiled-output root, with forward slashes.
type Publisher interface {
	Publish(ctx context.Context, relPath string, content []byte) error
}

// Options configures a Preprocessor. Params and Registry are required.
type Options struct {
	Params   *config.Params
	Registry *plugins.Registry
	Logger   logrus.FieldLogger

	// Optional collaborators
	Metrics   *observability.Metrics
	Cache     cache.Cache
	Publisher Publisher

	// OnComplete is invoked once per run when the run reaches a non-fatal
	// terminal state
	OnComplete func()
}

// Report summarises one run
type Report struct {
	RunID     string
	State     State
	States    []State
	Selected  int
	Compiled  int
	Written   int
	Unchanged int
	Skipped   int
	CacheHits int
	Duration  time.Duration
}
