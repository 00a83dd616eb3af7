package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/platinummonkey/cssprep/pkg/cache"
	"github.com/platinummonkey/cssprep/pkg/config"
	"github.com/platinummonkey/cssprep/pkg/observability"
	"github.com/platinummonkey/cssprep/pkg/plugins"
	"github.com/platinummonkey/cssprep/pkg/preprocess"
	"github.com/platinummonkey/cssprep/pkg/publish"
	"github.com/platinummonkey/cssprep/pkg/watch"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

var version = "dev"

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to the YAML settings file (defaults to environment only)")
	watchMode := flag.Bool("watch", false, "Keep running and rebuild when stylesheets change")
	logLevel := flag.String("log-level", "", "Override the configured log level")
	flag.Parse()

	params, err := loadParams(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cssprep: %v\n", err)
		os.Exit(2)
	}
	if *logLevel != "" {
		params.LogLevel = *logLevel
	}

	logger, err := observability.NewLogger(params.LogLevel, params.LogFormat, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cssprep: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, params, logger, *watchMode); err != nil {
		logger.WithError(err).Fatal("cssprep failed")
	}
}

func loadParams(path string) (*config.Params, error) {
	if path == "" {
		return config.LoadFromEnv()
	}
	return config.Load(path)
}

func run(ctx context.Context, params *config.Params, logger *logrus.Logger, watchMode bool) error {
	shutdown := observability.NewShutdownManager(logger, 10*time.Second)
	defer func() {
		if err := shutdown.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Warn("Shutdown finished with errors")
		}
	}()

	tp := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "cssprep",
		ServiceVersion: version,
	}, logger)
	shutdown.Register("tracer", tp.Shutdown)

	promRegistry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(promRegistry)
	if params.MetricsFile != "" {
		shutdown.Register("metrics", func(context.Context) error {
			return observability.WriteTextfile(params.MetricsFile, promRegistry)
		})
	}

	// Initialize plugin registry and load command plugins
	registry := plugins.NewRegistry()
	loaded, err := plugins.NewLoader(params.PluginDirs, logger).Load(ctx, registry)
	if err != nil {
		return err
	}
	logger.WithField("plugins", loaded).Debug("Loaded compiler plugins")

	opts := preprocess.Options{
		Params:   params,
		Registry: registry,
		Logger:   logger,
		Metrics:  metrics,
		OnComplete: func() {
			logger.Debug("Stylesheets ready")
		},
	}

	if params.Cache.Enabled {
		parseCache, err := newCache(ctx, params.Cache, logger)
		if err != nil {
			return err
		}
		shutdown.Register("cache", func(context.Context) error { return parseCache.Close() })
		opts.Cache = parseCache
	}

	if params.Publish.Enabled {
		publisher, err := publish.New(ctx, params.Publish, logger)
		if err != nil {
			return err
		}
		opts.Publisher = publisher
	}

	preprocessor, err := preprocess.New(opts)
	if err != nil {
		return err
	}

	if err := preprocessor.Run(ctx); err != nil {
		return err
	}
	if !watchMode {
		return nil
	}

	ignore := append([]string(nil), params.CSSIgnoreFiles...)
	if params.VersionedCSSFile != nil && params.VersionedCSSFile.FileName != "" {
		ignore = append(ignore, filepath.Base(params.VersionedCSSFile.FileName))
	}

	w, err := watch.New(watch.Config{
		SourceRoot: params.CSSPath,
		OutputRoot: params.CSSCompiledOutput,
		Debounce:   params.WatchDebounce,
		Ignore:     ignore,
	}, preprocessor, logger)
	if err != nil {
		return err
	}
	defer w.Close()

	return w.Watch(ctx)
}

// newCache returns the in-process cache, backed by Redis when configured
func newCache(ctx context.Context, cfg config.CacheConfig, logger logrus.FieldLogger) (cache.Cache, error) {
	memory := cache.NewMemoryCache(cfg.Size, cfg.TTL)
	if cfg.RedisURL == "" {
		return memory, nil
	}

	redis, err := cache.NewRedisCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.WithField("redis", cfg.RedisURL).Info("Parse cache backed by Redis")
	return cache.NewTiered(memory, redis, logger), nil
}
