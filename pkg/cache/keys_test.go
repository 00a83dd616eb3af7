package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(source string) *Key {
	return &Key{
		PluginID:      "stylus",
		PluginVersion: "1.0.0",
		AppName:       "shop",
		AppVersion:    "2.0.0",
		TreeHash:      "abc",
		Source:        source,
	}
}

func TestFormatKey(t *testing.T) {
	key := testKey("main.styl")
	assert.Equal(t, "v1:stylus:1.0.0:shop:2.0.0::abc:main.styl", key.String())

	a := testKey("main.styl")
	a.Options = map[string]string{"compress": "true", "sourcemap": "false"}
	b := testKey("main.styl")
	b.Options = map[string]string{"sourcemap": "false", "compress": "true"}
	assert.Equal(t, a.String(), b.String(), "option order does not matter")

	c := testKey("main.styl")
	c.Options = map[string]string{"compress": "false", "sourcemap": "false"}
	assert.NotEqual(t, a.String(), c.String())
}

func TestValidateKey(t *testing.T) {
	assert.NoError(t, ValidateKey(testKey("a.styl")))
	assert.ErrorIs(t, ValidateKey(nil), ErrInvalidCacheKey)
	assert.ErrorIs(t, ValidateKey(&Key{TreeHash: "x", Source: "a"}), ErrInvalidCacheKey)
	assert.ErrorIs(t, ValidateKey(&Key{PluginID: "x", Source: "a"}), ErrInvalidCacheKey)
	assert.ErrorIs(t, ValidateKey(&Key{PluginID: "x", TreeHash: "a"}), ErrInvalidCacheKey)
}

func TestTreeDigest(t *testing.T) {
	root := t.TempDir()
	write := func(name, content string) {
		full := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	}
	write("main.styl", "@import 'partials/vars'")
	write("partials/vars.styl", "color = red")

	first, err := TreeDigest(root, nil)
	require.NoError(t, err)
	again, err := TreeDigest(root, nil)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	write("partials/vars.styl", "color = blue")
	changed, err := TreeDigest(root, nil)
	require.NoError(t, err)
	assert.NotEqual(t, first, changed, "a partial change alters the digest")

	write("Thumbs.db", "junk")
	skipped, err := TreeDigest(root, []string{"Thumbs.db"})
	require.NoError(t, err)
	assert.Equal(t, changed, skipped)

	_, err = TreeDigest(filepath.Join(root, "missing"), nil)
	assert.Error(t, err)
}
