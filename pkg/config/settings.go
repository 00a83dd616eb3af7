package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// CompilerSetting is the css_compiler value: a mapping naming a plugin,
// the string "none", or absent.
type CompilerSetting struct {
	Plugin  string            `yaml:"plugin"`
	Options map[string]string `yaml:"options"`
}

// ParseCompilerSetting builds a setting from a bare plugin name or "none"
func ParseCompilerSetting(value string) CompilerSetting {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, "none") {
		return CompilerSetting{}
	}
	return CompilerSetting{Plugin: value}
}

// Name returns the configured plugin name, or "" when no compiler is configured
func (c CompilerSetting) Name() string {
	return c.Plugin
}

// Enabled reports whether a compiler plugin is configured
func (c CompilerSetting) Enabled() bool {
	return c.Plugin != ""
}

// UnmarshalYAML accepts either a scalar ("none" or a plugin name) or a mapping
func (c *CompilerSetting) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*c = ParseCompilerSetting(value.Value)
		return nil
	case yaml.MappingNode:
		type plain CompilerSetting
		var decoded plain
		if err := value.Decode(&decoded); err != nil {
			return fmt.Errorf("css_compiler: %w", err)
		}
		*c = CompilerSetting(decoded)
		if strings.EqualFold(c.Plugin, "none") {
			*c = CompilerSetting{}
		}
		return nil
	default:
		return fmt.Errorf("css_compiler: line %d: expected a mapping or \"none\"", value.Line)
	}
}

// Whitelist is the css_compiler_whitelist value. A present but malformed
// value is kept (Valid=false) so the selector can report it at run time
// instead of failing the whole config load.
type Whitelist struct {
	Present bool
	Valid   bool
	Entries []string

	kind string
}

// NewWhitelist returns a present, well-formed whitelist
func NewWhitelist(entries ...string) Whitelist {
	return Whitelist{Present: true, Valid: true, Entries: entries}
}

// Kind describes the YAML node that was found when the whitelist is malformed
func (w Whitelist) Kind() string {
	return w.kind
}

// UnmarshalYAML records whether the value is a sequence of strings
func (w *Whitelist) UnmarshalYAML(value *yaml.Node) error {
	w.Present = true
	w.Valid = false
	w.Entries = nil
	w.kind = nodeKindName(value.Kind)

	if value.Kind != yaml.SequenceNode {
		return nil
	}

	entries := make([]string, 0, len(value.Content))
	for _, item := range value.Content {
		if item.Kind != yaml.ScalarNode {
			w.kind = "sequence of " + nodeKindName(item.Kind)
			return nil
		}
		entries = append(entries, item.Value)
	}

	w.Valid = true
	w.Entries = entries
	return nil
}

func nodeKindName(kind yaml.Kind) string {
	switch kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}
