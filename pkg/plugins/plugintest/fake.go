// Package plugintest provides an in-memory compiler plugin for tests.
package plugintest

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/platinummonkey/cssprep/pkg/plugins"
)

// Compiler is a fake compiler plugin. By default it upper-cases the source
// text and suggests "<name>.css" as the output name.
type Compiler struct {
	ID      string
	Version string

	// ParseFunc overrides the default transform when set
	ParseFunc func(ctx context.Context, app *plugins.App, fileName string) (string, string, error)
	// VersionText is returned by VersionCode
	VersionText string

	mu    sync.Mutex
	calls []string
}

// New returns a fake compiler registered as id
func New(id string) *Compiler {
	return &Compiler{ID: id, Version: "1.0.0", VersionText: "body{}"}
}

// Manifest returns a valid manifest for the fake
func (c *Compiler) Manifest() *plugins.Manifest {
	return &plugins.Manifest{
		ID:         c.ID,
		Name:       c.ID,
		Version:    c.Version,
		APIVersion: plugins.CurrentAPIVersion,
	}
}

// Parse records the call and compiles the file
func (c *Compiler) Parse(ctx context.Context, app *plugins.App, fileName string) (string, string, error) {
	c.mu.Lock()
	c.calls = append(c.calls, fileName)
	c.mu.Unlock()

	if c.ParseFunc != nil {
		return c.ParseFunc(ctx, app, fileName)
	}

	data, err := os.ReadFile(filepath.Join(app.SourceRoot, filepath.FromSlash(fileName)))
	if err != nil {
		return "", "", fmt.Errorf("read %s: %w", fileName, err)
	}

	out := strings.TrimSuffix(fileName, path.Ext(fileName)) + ".css"
	return out, strings.ToUpper(string(data)), nil
}

// VersionCode returns VersionText
func (c *Compiler) VersionCode(app *plugins.App) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.VersionText, nil
}

// SetVersionText changes what VersionCode returns
func (c *Compiler) SetVersionText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.VersionText = text
}

// Calls returns the file names passed to Parse so far
func (c *Compiler) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

// ParseOnly wraps a Compiler without exposing VersionCode
type ParseOnly struct {
	Inner *Compiler
}

// Manifest returns the wrapped compiler's manifest
func (p ParseOnly) Manifest() *plugins.Manifest { return p.Inner.Manifest() }

// Parse delegates to the wrapped compiler
func (p ParseOnly) Parse(ctx context.Context, app *plugins.App, fileName string) (string, string, error) {
	return p.Inner.Parse(ctx, app, fileName)
}
