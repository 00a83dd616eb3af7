package plugins

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// ManifestFileName is the manifest looked up in each plugin directory
const ManifestFileName = "plugin.yaml"

var semverRegex = regexp.MustCompile(`^v?(\d+)\.(\d+)\.(\d+)(-[a-zA-Z0-9.-]+)?(\+[a-zA-Z0-9.-]+)?$`)

// LoadManifest loads and parses a plugin manifest from a file
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	return &manifest, nil
}

// LoadManifestFromDir loads the plugin.yaml manifest of a plugin directory
func LoadManifestFromDir(dir string) (*Manifest, error) {
	return LoadManifest(filepath.Join(dir, ManifestFileName))
}

// SaveManifest saves a plugin manifest to a file
func SaveManifest(manifest *Manifest, path string) error {
	data, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}

// ValidateManifest performs basic validation on a plugin manifest
func ValidateManifest(manifest *Manifest) []ValidationError {
	if manifest == nil {
		return []ValidationError{{Field: "manifest", Message: "Manifest is required"}}
	}

	var errors []ValidationError

	if manifest.ID == "" {
		errors = append(errors, ValidationError{Field: "id", Message: "Plugin ID is required"})
	}
	if manifest.Name == "" {
		errors = append(errors, ValidationError{Field: "name", Message: "Plugin name is required"})
	}
	if manifest.Version == "" {
		errors = append(errors, ValidationError{Field: "version", Message: "Version is required"})
	}
	if manifest.APIVersion == "" {
		errors = append(errors, ValidationError{Field: "api_version", Message: "API version is required"})
	}

	if manifest.Version != "" && !isValidSemver(manifest.Version) {
		errors = append(errors, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("Invalid semver format: %s", manifest.Version),
		})
	}

	if manifest.APIVersion != "" {
		if !isValidSemver(manifest.APIVersion) {
			errors = append(errors, ValidationError{
				Field:   "api_version",
				Message: fmt.Sprintf("Invalid semver format: %s", manifest.APIVersion),
			})
		} else if !IsCompatibleAPIVersion(manifest.APIVersion, CurrentAPIVersion) {
			errors = append(errors, ValidationError{
				Field:   "api_version",
				Message: fmt.Sprintf("Plugin requires API %s, host provides %s", manifest.APIVersion, CurrentAPIVersion),
			})
		}
	}

	return errors
}

// ValidateCommandManifest adds the checks specific to command-backed plugins
func ValidateCommandManifest(manifest *Manifest) []ValidationError {
	errors := ValidateManifest(manifest)
	if manifest == nil {
		return errors
	}

	if manifest.Command == "" {
		errors = append(errors, ValidationError{Field: "command", Message: "Command is required"})
	}
	if manifest.OutputExt != "" && manifest.OutputExt[0] != '.' {
		errors = append(errors, ValidationError{
			Field:   "output_ext",
			Message: fmt.Sprintf("Output extension must start with a dot: %s", manifest.OutputExt),
		})
	}

	return errors
}

// isValidSemver checks if a version string follows semantic versioning
func isValidSemver(version string) bool {
	return semverRegex.MatchString(version)
}

// IsCompatibleAPIVersion reports whether a plugin's API version shares the
// host's major version
func IsCompatibleAPIVersion(pluginAPIVersion, hostAPIVersion string) bool {
	return extractMajorVersion(pluginAPIVersion) == extractMajorVersion(hostAPIVersion)
}

func extractMajorVersion(version string) string {
	matches := semverRegex.FindStringSubmatch(version)
	if len(matches) > 1 {
		return matches[1]
	}
	return "0"
}
