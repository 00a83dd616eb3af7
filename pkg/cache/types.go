package cache

import "context"

// Key identifies one parse result
type Key struct {
	PluginID      string
	PluginVersion string
	AppName       string
	AppVersion    string
	Options       map[string]string
	// TreeHash is the digest of the whole source tree, so that a change to
	// an imported partial invalidates every file
	TreeHash string
	// Source is the file name handed to Parse
	Source string
}

// String formats the key for storage
func (k *Key) String() string {
	return FormatKey(k)
}

// Entry is a cached Parse result
type Entry struct {
	OutputName string `json:"output_name"`
	Compiled   string `json:"compiled"`
}

// Stats represents cache statistics
type Stats struct {
	Hits      int64
	Misses    int64
	HitRate   float64
	ItemCount int64
}

// Cache stores parse results
type Cache interface {
	// Get returns ErrCacheMiss when the key is absent
	Get(ctx context.Context, key *Key) (*Entry, error)
	Set(ctx context.Context, key *Key, entry *Entry) error
	Stats(ctx context.Context) (*Stats, error)
	Close() error
}
