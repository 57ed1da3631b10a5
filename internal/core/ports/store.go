package ports

import "go.trai.ch/ckpt/internal/core/domain"

// ResultStore persists analysis results keyed by fingerprint. Implementations
// must recompute and compare the fingerprint before trusting a stored entry;
// a mismatch is a miss, never a stale hit.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type ResultStore interface {
	// Lookup returns the entry for fp, or domain.ErrCacheMiss.
	Lookup(fp domain.Fingerprint) (*domain.CacheEntry, error)

	// Put stores the entry, overwriting any previous document for the same
	// fingerprint digest.
	Put(entry *domain.CacheEntry) error

	// Merge embeds stats at keyPath inside the cached payload for fp and
	// re-persists the document. It returns the updated entry.
	Merge(fp domain.Fingerprint, keyPath []string, stats domain.Tree) (*domain.CacheEntry, error)

	// Invalidate drops any in-memory entries for the given resource paths.
	// Disk documents are left alone; their fingerprints no longer match.
	Invalidate(paths []string)
}
