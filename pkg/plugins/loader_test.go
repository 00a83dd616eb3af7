package plugins

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePluginDir(t *testing.T, root, name string, manifest *Manifest) string {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, SaveManifest(manifest, filepath.Join(dir, ManifestFileName)))
	return dir
}

func catManifest(id string) *Manifest {
	return &Manifest{
		ID:          id,
		Name:        id,
		Version:     "1.0.0",
		APIVersion:  "1.0.0",
		Command:     "cat",
		Args:        []string{"{file}"},
		OutputExt:   ".css",
		VersionCode: "${var}: '{version}'",
	}
}

func TestNewLoader_DefaultLogger(t *testing.T) {
	loader := NewLoader([]string{"/tmp/plugins"}, nil)
	assert.NotNil(t, loader.log)
	assert.Equal(t, []string{"/tmp/plugins"}, loader.pluginDirs)
}

func TestLoader_Load(t *testing.T) {
	root := t.TempDir()
	writePluginDir(t, root, "copy", catManifest("copy"))
	writePluginDir(t, root, "broken", &Manifest{ID: "broken"})
	require.NoError(t, os.WriteFile(filepath.Join(root, "README"), []byte("not a plugin"), 0644))

	logger, hook := test.NewNullLogger()
	loader := NewLoader([]string{root, filepath.Join(root, "missing")}, logger)

	registry := NewRegistry()
	require.NoError(t, registry.RegisterCompiler(goodCompiler{manifest: validManifest("taken")}))
	writePluginDir(t, root, "taken", catManifest("taken"))

	loaded, err := loader.Load(context.Background(), registry)
	require.NoError(t, err)

	assert.Equal(t, 1, loaded)
	assert.True(t, registry.Has("copy"))
	assert.False(t, registry.Has("broken"))

	warnings := 0
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			warnings++
		}
	}
	assert.Equal(t, 2, warnings, "broken manifest and duplicate id are both reported")
}

func TestLoader_DiscoverCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLoader([]string{t.TempDir()}, nil).DiscoverPlugins(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCommandPlugin_Parse(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "nested"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "nested", "main.styl"), []byte("body\n  color red\n"), 0644))

	plugin := NewCommandPlugin(catManifest("copy"), "")
	app := &App{Name: "shop", Version: "2.0.0", SourceRoot: root, VersionVar: "appVersion"}

	out, compiled, err := plugin.Parse(context.Background(), app, "nested/main.styl")
	require.NoError(t, err)
	assert.Equal(t, "nested/main.css", out)
	assert.Equal(t, "body\n  color red\n", compiled)

	_, err = ValidateCompiler(plugin, true)
	assert.NoError(t, err)

	code, err := plugin.VersionCode(app)
	require.NoError(t, err)
	assert.Equal(t, "$appVersion: '2.0.0'", code)
}

func TestCommandPlugin_ParseFailure(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}

	plugin := NewCommandPlugin(catManifest("copy"), "")
	app := &App{SourceRoot: t.TempDir()}

	_, _, err := plugin.Parse(context.Background(), app, "missing.styl")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCommandFailed)
	assert.Contains(t, err.Error(), "missing.styl")
}

func TestCommandPlugin_VersionCodeWithoutTemplate(t *testing.T) {
	manifest := catManifest("copy")
	manifest.VersionCode = ""

	plugin := NewCommandPlugin(manifest, "")
	_, err := plugin.VersionCode(&App{})
	assert.Error(t, err)

	_, err = ValidateCompiler(plugin, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIncompatible)
	assert.Contains(t, err.Error(), "version_code")

	_, err = ValidateCompiler(plugin, false)
	assert.NoError(t, err, "the template is only needed when a version file is configured")
}

func TestCommandPlugin_OutputNameAndOptions(t *testing.T) {
	manifest := catManifest("copy")
	plugin := NewCommandPlugin(manifest, "/opt/plugins/copy")

	assert.Equal(t, "a/b.css", plugin.outputName("a/b.styl"))
	assert.Equal(t, "a/b.css", plugin.outputName("a/b"))

	manifest.OutputExt = ""
	assert.Equal(t, "a/b.styl", plugin.outputName("a/b.styl"))

	manifest.Command = "./bin/compile"
	assert.Equal(t, filepath.Join("/opt/plugins/copy", "bin", "compile"), plugin.resolveCommand())

	app := &App{Options: map[string]string{"compress": "true"}}
	assert.Equal(t, "--compress=true", expandOptions("--compress={opt:compress}", app))
	assert.Equal(t, "--x=", expandOptions("--x={opt:unset}", app))
	assert.Equal(t, "{opt:open", expandOptions("{opt:open", app))
}
