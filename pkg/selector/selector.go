package selector

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/platinummonkey/cssprep/pkg/config"
)

// Entry is one candidate source file
type Entry struct {
	// Source is relative to the source root, with forward slashes
	Source string
	// Destination overrides the plugin's output name when non-empty
	Destination string
	// Whitelisted is set for entries that came from the whitelist
	Whitelisted bool
}

// Config controls a selection
type Config struct {
	Root      string
	Whitelist config.Whitelist
	Ignore    []string
}

// Select produces the candidate entries for a run.
//
// When a whitelist is present it is used verbatim: entries keep their order
// and their sources are not checked here (see Verify). Otherwise the source
// root is walked and every non-directory, non-ignorable file is returned in
// lexical order.
func Select(cfg Config) ([]Entry, error) {
	if cfg.Whitelist.Present {
		return fromWhitelist(cfg.Whitelist)
	}
	return scan(cfg.Root, cfg.Ignore)
}

func fromWhitelist(whitelist config.Whitelist) ([]Entry, error) {
	if !whitelist.Valid {
		return nil, fmt.Errorf("%w: expected a sequence of strings, got %s", ErrWhitelistMisconfigured, whitelist.Kind())
	}

	entries := make([]Entry, 0, len(whitelist.Entries))
	for _, raw := range whitelist.Entries {
		entry, err := ParseWhitelistEntry(raw)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ParseWhitelistEntry splits "source[:destination]". Entries with more than
// one colon are rejected rather than silently truncated.
func ParseWhitelistEntry(raw string) (Entry, error) {
	if strings.Count(raw, ":") > 1 {
		return Entry{}, fmt.Errorf("%w: %q has more than one ':' separator", ErrWhitelistEntryInvalid, raw)
	}

	source, destination, _ := strings.Cut(strings.TrimSpace(raw), ":")
	source = strings.TrimSpace(source)
	if source == "" {
		return Entry{}, fmt.Errorf("%w: empty source in entry %q", ErrWhitelistFileMissing, raw)
	}

	return Entry{
		Source:      path.Clean(filepath.ToSlash(source)),
		Destination: strings.TrimSpace(destination),
		Whitelisted: true,
	}, nil
}

func scan(root string, ignore []string) ([]Entry, error) {
	var entries []Entry

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || IsIgnorable(d.Name(), ignore) {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		entries = append(entries, Entry{Source: filepath.ToSlash(rel)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Source < entries[j].Source
	})
	return entries, nil
}

// Verify checks that a whitelisted source exists under root
func Verify(root string, entry Entry) error {
	if !local(entry.Source) {
		return fmt.Errorf("%w: %s is outside the source root", ErrWhitelistFileMissing, entry.Source)
	}

	if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(entry.Source))); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s (in %s)", ErrWhitelistFileMissing, entry.Source, root)
		}
		return fmt.Errorf("failed to stat %s: %w", entry.Source, err)
	}
	return nil
}

// IsIgnorable reports whether a base name is a directory marker or a known
// non-source artifact
func IsIgnorable(name string, ignore []string) bool {
	if name == "." || name == ".." {
		return true
	}
	for _, candidate := range ignore {
		if name == candidate {
			return true
		}
	}
	return false
}

func local(p string) bool {
	return p != ".." && !strings.HasPrefix(p, "../") && !path.IsAbs(p)
}
