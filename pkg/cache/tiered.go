package cache

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

// Tiered checks a fast local cache before a shared one, and backfills the
// local cache on a shared hit. Shared-cache failures are logged and treated
// as misses so an unreachable Redis never fails a run.
type Tiered struct {
	l1  Cache
	l2  Cache
	log logrus.FieldLogger
}

// NewTiered combines two caches
func NewTiered(l1, l2 Cache, log logrus.FieldLogger) *Tiered {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Tiered{l1: l1, l2: l2, log: log}
}

// Get retrieves from L1, then L2
func (t *Tiered) Get(ctx context.Context, key *Key) (*Entry, error) {
	entry, err := t.l1.Get(ctx, key)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		return nil, err
	}

	entry, err = t.l2.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			t.log.WithError(err).Warn("Shared cache lookup failed")
		}
		return nil, ErrCacheMiss
	}

	if err := t.l1.Set(ctx, key, entry); err != nil {
		t.log.WithError(err).Debug("Failed to backfill local cache")
	}
	return entry, nil
}

// Set stores in both tiers
func (t *Tiered) Set(ctx context.Context, key *Key, entry *Entry) error {
	if err := t.l1.Set(ctx, key, entry); err != nil {
		return err
	}
	if err := t.l2.Set(ctx, key, entry); err != nil {
		t.log.WithError(err).Warn("Shared cache store failed")
	}
	return nil
}

// Stats returns the local tier's statistics
func (t *Tiered) Stats(ctx context.Context) (*Stats, error) {
	return t.l1.Stats(ctx)
}

// Close closes both tiers
func (t *Tiered) Close() error {
	return errors.Join(t.l1.Close(), t.l2.Close())
}
