package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Params holds the settings the preprocessor reads from the host application
type Params struct {
	// Application identity
	AppName    string `yaml:"app_name"`
	AppVersion string `yaml:"app_version"`

	// Roots
	CSSPath           string `yaml:"css_path"`
	CSSCompiledOutput string `yaml:"css_compiled_output"`

	// Compiler selection
	CSSCompiler          CompilerSetting `yaml:"css_compiler"`
	CSSCompilerWhitelist Whitelist       `yaml:"css_compiler_whitelist"`
	CSSIgnoreFiles       []string        `yaml:"css_ignore_files"`
	VersionedCSSFile     *VersionedFile  `yaml:"versioned_css_file"`

	// Execution
	MaxParallel   int               `yaml:"max_parallel"` // 0 means one goroutine per file
	Aggregation   AggregationPolicy `yaml:"aggregation"`
	WatchDebounce time.Duration     `yaml:"watch_debounce"`

	Cache      CacheConfig   `yaml:"cache"`
	Publish    PublishConfig `yaml:"publish"`
	PluginDirs []string      `yaml:"plugin_dirs"`

	// Observability
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	MetricsFile string `yaml:"metrics_file"`
}

// VersionedFile configures the generated version-stamp file
type VersionedFile struct {
	FileName string `yaml:"file_name"`
	VarName  string `yaml:"var_name"`
}

// CacheConfig configures the parse-result cache
type CacheConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Size          int           `yaml:"size"`
	TTL           time.Duration `yaml:"ttl"`
	RedisURL      string        `yaml:"redis_url"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
}

// PublishConfig configures mirroring of written artifacts to S3
type PublishConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix"`
	Region       string `yaml:"region"`
	Endpoint     string `yaml:"endpoint"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

// AggregationPolicy decides how per-file failures end a batch
type AggregationPolicy string

const (
	// AggregateCollectAll lets every task finish and reports all failures together
	AggregateCollectAll AggregationPolicy = "collect_all"
	// AggregateFailFast cancels the remaining tasks on the first failure
	AggregateFailFast AggregationPolicy = "fail_fast"
)

// DefaultIgnoreFiles are non-source artifacts skipped during a directory scan
var DefaultIgnoreFiles = []string{"Thumbs.db", ".DS_Store", "desktop.ini"}

// Default returns the settings used when no config file is given
func Default() *Params {
	return &Params{
		AppName:           "app",
		AppVersion:        "0.0.0",
		CSSPath:           filepath.Join("statics", "css"),
		CSSCompiledOutput: filepath.Join(".build", "css"),
		CSSIgnoreFiles:    append([]string(nil), DefaultIgnoreFiles...),
		Aggregation:       AggregateCollectAll,
		WatchDebounce:     250 * time.Millisecond,
		Cache: CacheConfig{
			Size: 512,
			TTL:  10 * time.Minute,
		},
		PluginDirs: []string{"plugins"},
		LogLevel:   "info",
		LogFormat:  "text",
	}
}

// Load reads a YAML settings file, applies CSSPREP_* environment overrides
// and validates the result. Relative paths are resolved against the
// directory holding the file.
func Load(path string) (*Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	params, err := Parse(data)
	if err != nil {
		return nil, err
	}

	applyEnv(params)
	params.resolvePaths(filepath.Dir(path))

	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return params, nil
}

// LoadFromEnv builds settings from defaults and environment overrides only
func LoadFromEnv() (*Params, error) {
	params := Default()
	applyEnv(params)

	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return params, nil
}

// Parse decodes YAML settings on top of the defaults without validating
func Parse(data []byte) (*Params, error) {
	params := Default()
	if err := yaml.Unmarshal(data, params); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return params, nil
}

func applyEnv(p *Params) {
	p.AppName = getEnv("CSSPREP_APP_NAME", p.AppName)
	p.AppVersion = getEnv("CSSPREP_APP_VERSION", p.AppVersion)
	p.CSSPath = getEnv("CSSPREP_CSS_PATH", p.CSSPath)
	p.CSSCompiledOutput = getEnv("CSSPREP_CSS_COMPILED_OUTPUT", p.CSSCompiledOutput)
	p.LogLevel = getEnv("CSSPREP_LOG_LEVEL", p.LogLevel)
	p.LogFormat = getEnv("CSSPREP_LOG_FORMAT", p.LogFormat)
	p.MetricsFile = getEnv("CSSPREP_METRICS_FILE", p.MetricsFile)
	p.MaxParallel = getEnvInt("CSSPREP_MAX_PARALLEL", p.MaxParallel)
	p.WatchDebounce = getEnvDuration("CSSPREP_WATCH_DEBOUNCE", p.WatchDebounce)

	if compiler := getEnv("CSSPREP_COMPILER", ""); compiler != "" {
		p.CSSCompiler = ParseCompilerSetting(compiler)
	}

	if redisURL := getEnv("CSSPREP_REDIS_URL", ""); redisURL != "" {
		p.Cache.RedisURL = redisURL
	}
	p.Cache.Enabled = getEnvBool("CSSPREP_CACHE_ENABLED", p.Cache.Enabled)

	if bucket := getEnv("CSSPREP_S3_BUCKET", ""); bucket != "" {
		p.Publish.Bucket = bucket
		p.Publish.Enabled = true
	}
	p.Publish.Region = getEnv("CSSPREP_S3_REGION", p.Publish.Region)
	p.Publish.Endpoint = getEnv("CSSPREP_S3_ENDPOINT", p.Publish.Endpoint)
	p.Publish.AccessKey = getEnv("CSSPREP_S3_ACCESS_KEY", p.Publish.AccessKey)
	p.Publish.SecretKey = getEnv("CSSPREP_S3_SECRET_KEY", p.Publish.SecretKey)
}

func (p *Params) resolvePaths(base string) {
	p.CSSPath = resolve(base, p.CSSPath)
	p.CSSCompiledOutput = resolve(base, p.CSSCompiledOutput)
	if p.MetricsFile != "" {
		p.MetricsFile = resolve(base, p.MetricsFile)
	}
	for i, dir := range p.PluginDirs {
		p.PluginDirs[i] = resolve(base, dir)
	}
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// Validate checks if the settings are usable
func (p *Params) Validate() error {
	if p.CSSPath == "" {
		return fmt.Errorf("css_path is required")
	}
	if p.CSSCompiledOutput == "" {
		return fmt.Errorf("css_compiled_output is required")
	}
	if filepath.Clean(p.CSSPath) == filepath.Clean(p.CSSCompiledOutput) {
		return fmt.Errorf("css_path and css_compiled_output must be different")
	}

	if p.MaxParallel < 0 {
		return fmt.Errorf("max_parallel must not be negative")
	}

	switch p.Aggregation {
	case AggregateCollectAll, AggregateFailFast:
	case "":
		p.Aggregation = AggregateCollectAll
	default:
		return fmt.Errorf("invalid aggregation: %s (must be collect_all or fail_fast)", p.Aggregation)
	}

	switch strings.ToLower(p.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format: %s (must be text or json)", p.LogFormat)
	}

	if p.Cache.Enabled && p.Cache.Size <= 0 {
		return fmt.Errorf("cache size must be positive when the cache is enabled")
	}

	if p.Publish.Enabled && p.Publish.Bucket == "" {
		return fmt.Errorf("publish bucket is required when publishing is enabled")
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
