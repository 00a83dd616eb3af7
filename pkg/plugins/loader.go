package plugins

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Loader discovers command-backed plugins from plugin directories
type Loader struct {
	pluginDirs []string
	log        logrus.FieldLogger
}

// NewLoader creates a new plugin loader
func NewLoader(dirs []string, log logrus.FieldLogger) *Loader {
	if log == nil {
		log = logrus.New()
	}

	return &Loader{
		pluginDirs: dirs,
		log:        log,
	}
}

// DiscoverPlugins scans each plugin directory for subdirectories holding a
// plugin.yaml. Unreadable directories and invalid manifests are logged and
// skipped.
func (l *Loader) DiscoverPlugins(ctx context.Context) ([]*CommandPlugin, error) {
	var found []*CommandPlugin

	for _, dir := range l.pluginDirs {
		if err := ctx.Err(); err != nil {
			return found, err
		}

		if _, err := os.Stat(dir); os.IsNotExist(err) {
			l.log.Debugf("Plugin directory does not exist: %s", dir)
			continue
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			l.log.Warnf("Failed to read plugin directory %s: %v", dir, err)
			continue
		}

		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}

			pluginDir := filepath.Join(dir, entry.Name())
			plugin, err := l.LoadPlugin(pluginDir)
			if err != nil {
				l.log.Warnf("Failed to load plugin from %s: %v", pluginDir, err)
				continue
			}

			found = append(found, plugin)
		}
	}

	return found, nil
}

// LoadPlugin loads a single command-backed plugin from a directory
func (l *Loader) LoadPlugin(pluginDir string) (*CommandPlugin, error) {
	manifest, err := LoadManifestFromDir(pluginDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}

	if problems := ValidateCommandManifest(manifest); len(problems) > 0 {
		return nil, fmt.Errorf("manifest validation failed: %v", problems)
	}

	return NewCommandPlugin(manifest, pluginDir), nil
}

// Load discovers plugins and registers them by manifest ID. Plugins whose
// ID is already taken (for example by a compiler the host registered in
// code) are skipped with a warning.
func (l *Loader) Load(ctx context.Context, registry *Registry) (int, error) {
	found, err := l.DiscoverPlugins(ctx)
	if err != nil {
		return 0, err
	}

	loaded := 0
	for _, plugin := range found {
		manifest := plugin.Manifest()
		if err := registry.RegisterCompiler(plugin); err != nil {
			l.log.Warnf("Skipping plugin %s: %v", manifest.ID, err)
			continue
		}
		l.log.Infof("Loaded plugin: %s v%s (command: %s)", manifest.Name, manifest.Version, manifest.Command)
		loaded++
	}

	return loaded, nil
}
