package plugins

import (
	"context"
	"fmt"
)

const (
	// CurrentAPIVersion is the version of the compiler plugin contract
	CurrentAPIVersion = "1.0.0"
)

// App is the read-only view of the host application handed to plugins
type App struct {
	Name       string
	Version    string
	SourceRoot string
	OutputRoot string
	VersionVar string            // variable name configured for the version-stamp file
	Options    map[string]string // css_compiler.options
}

// Option returns a compiler option or "" when unset
func (a *App) Option(key string) string {
	if a == nil || a.Options == nil {
		return ""
	}
	return a.Options[key]
}

// CompilerPlugin transforms one source file into compiled text.
//
// Parse receives the file name relative to App.SourceRoot (slash separated)
// and returns the suggested output name, relative to App.OutputRoot, along
// with the compiled content.
type CompilerPlugin interface {
	Manifest() *Manifest
	Parse(ctx context.Context, app *App, fileName string) (outputName string, compiled string, err error)
}

// VersionCoder is implemented by plugins that can render the version-stamp file
type VersionCoder interface {
	VersionCode(app *App) (string, error)
}

// Manifest describes plugin metadata
type Manifest struct {
	ID          string            `yaml:"id"`          // Unique ID, also the registry name (e.g., "stylus")
	Name        string            `yaml:"name"`        // Display name
	Version     string            `yaml:"version"`     // Semver
	APIVersion  string            `yaml:"api_version"` // Plugin contract version
	Description string            `yaml:"description,omitempty"`
	Author      string            `yaml:"author,omitempty"`
	Homepage    string            `yaml:"homepage,omitempty"`
	Metadata    map[string]string `yaml:"metadata,omitempty"`

	// Command-backed plugins only
	Command     string   `yaml:"command,omitempty"`
	Args        []string `yaml:"args,omitempty"`
	OutputExt   string   `yaml:"output_ext,omitempty"`
	VersionCode string   `yaml:"version_code,omitempty"`
}

// ValidationError represents a manifest validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
