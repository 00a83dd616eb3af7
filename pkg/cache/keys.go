// Cache key format version: v1
// Format: v1:{pluginID}:{pluginVersion}:{appName}:{appVersion}:{optionsHash}:{treeHash}:{source}
//
// Options are hashed with their keys sorted, and the tree digest walks files
// in lexical order, so identical inputs always produce identical keys.
// Changing either algorithm invalidates every cached entry.

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const keyVersion = "v1"

// FormatKey formats a cache key as a string for storage
func FormatKey(key *Key) string {
	return strings.Join([]string{
		keyVersion,
		key.PluginID,
		key.PluginVersion,
		key.AppName,
		key.AppVersion,
		hashOptions(key.Options),
		key.TreeHash,
		key.Source,
	}, ":")
}

// ValidateKey validates a cache key
func ValidateKey(key *Key) error {
	if key == nil {
		return fmt.Errorf("%w: key is nil", ErrInvalidCacheKey)
	}
	if key.PluginID == "" {
		return fmt.Errorf("%w: plugin id is required", ErrInvalidCacheKey)
	}
	if key.TreeHash == "" {
		return fmt.Errorf("%w: tree hash is required", ErrInvalidCacheKey)
	}
	if key.Source == "" {
		return fmt.Errorf("%w: source is required", ErrInvalidCacheKey)
	}
	return nil
}

// hashOptions returns the first 16 hex characters of a SHA256 over the
// sorted options, or "" when there are none
func hashOptions(options map[string]string) string {
	if len(options) == 0 {
		return ""
	}

	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	hasher := sha256.New()
	for _, k := range keys {
		hasher.Write([]byte(k))
		hasher.Write([]byte{0})
		hasher.Write([]byte(options[k]))
		hasher.Write([]byte{0})
	}

	return hex.EncodeToString(hasher.Sum(nil))[:16]
}

// TreeDigest hashes the relative path and content of every file under root,
// skipping the base names in skip. Files are visited in lexical order.
func TreeDigest(root string, skip []string) (string, error) {
	skipped := make(map[string]bool, len(skip))
	for _, name := range skip {
		skipped[name] = true
	}

	var paths []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || skipped[d.Name()] {
			return nil
		}
		paths = append(paths, p)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to walk %s: %w", root, err)
	}
	sort.Strings(paths)

	hasher := sha256.New()
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return "", err
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", p, err)
		}

		hasher.Write([]byte(filepath.ToSlash(rel)))
		hasher.Write([]byte{0})
		hasher.Write(content)
		hasher.Write([]byte{0})
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
