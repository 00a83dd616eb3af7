package plugins

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
)

// CommandPlugin is a compiler backed by an external command declared in a
// plugin.yaml manifest. The command's stdout is the compiled text.
//
// Placeholders expanded in args: {file} (absolute source path), {name}
// (source path relative to the source root), {root}, {out}, and
// {opt:KEY} for css_compiler options. VersionCode expands {var},
// {version} and {app} in the manifest's version_code template.
type CommandPlugin struct {
	manifest *Manifest
	dir      string
}

// NewCommandPlugin creates a command-backed plugin from its manifest
func NewCommandPlugin(manifest *Manifest, dir string) *CommandPlugin {
	return &CommandPlugin{
		manifest: manifest,
		dir:      dir,
	}
}

// Manifest returns the plugin manifest
func (p *CommandPlugin) Manifest() *Manifest {
	return p.manifest
}

// Parse runs the command for one source file
func (p *CommandPlugin) Parse(ctx context.Context, app *App, fileName string) (string, string, error) {
	source := filepath.Join(app.SourceRoot, filepath.FromSlash(fileName))
	replacer := p.argReplacer(app, fileName, source)

	args := make([]string, 0, len(p.manifest.Args))
	for _, arg := range p.manifest.Args {
		args = append(args, expandOptions(replacer.Replace(arg), app))
	}
	if len(p.manifest.Args) == 0 {
		args = append(args, source)
	}

	cmd := exec.CommandContext(ctx, p.resolveCommand(), args...)
	cmd.Dir = app.SourceRoot

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return "", "", fmt.Errorf("%w: %s %s: %s", ErrCommandFailed, p.manifest.Command, fileName, detail)
	}

	return p.outputName(fileName), stdout.String(), nil
}

// VersionCode renders the manifest's version_code template
func (p *CommandPlugin) VersionCode(app *App) (string, error) {
	if p.manifest.VersionCode == "" {
		return "", fmt.Errorf("plugin %s has no version_code template", p.manifest.ID)
	}

	replacer := strings.NewReplacer(
		"{var}", app.VersionVar,
		"{version}", app.Version,
		"{app}", app.Name,
	)
	return replacer.Replace(p.manifest.VersionCode), nil
}

// outputName swaps the source extension for output_ext
func (p *CommandPlugin) outputName(fileName string) string {
	if p.manifest.OutputExt == "" {
		return fileName
	}
	return strings.TrimSuffix(fileName, path.Ext(fileName)) + p.manifest.OutputExt
}

// resolveCommand lets a manifest ship its command next to plugin.yaml
func (p *CommandPlugin) resolveCommand() string {
	command := p.manifest.Command
	if p.dir != "" && strings.HasPrefix(command, "./") {
		return filepath.Join(p.dir, command)
	}
	return command
}

func (p *CommandPlugin) argReplacer(app *App, fileName, source string) *strings.Replacer {
	return strings.NewReplacer(
		"{file}", source,
		"{name}", fileName,
		"{root}", app.SourceRoot,
		"{out}", app.OutputRoot,
	)
}

// expandOptions replaces {opt:KEY} placeholders with compiler options
func expandOptions(arg string, app *App) string {
	for {
		start := strings.Index(arg, "{opt:")
		if start < 0 {
			return arg
		}
		end := strings.Index(arg[start:], "}")
		if end < 0 {
			return arg
		}
		key := arg[start+len("{opt:") : start+end]
		arg = arg[:start] + app.Option(key) + arg[start+end+1:]
	}
}
