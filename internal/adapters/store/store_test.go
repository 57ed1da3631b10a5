package store_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/ckpt/internal/adapters/store"
	"go.trai.ch/ckpt/internal/core/domain"
)

func fingerprint(path string) domain.Fingerprint {
	return domain.Fingerprint{
		Path:          path,
		MTimeUnixNano: 1700000000000000000,
		Size:          2048,
		Mode:          domain.ModeAuto,
	}
}

func entryFor(fp domain.Fingerprint) *domain.CacheEntry {
	return &domain.CacheEntry{
		Version:     domain.CacheDocVersion,
		Fingerprint: fp,
		CreatedAt:   time.Date(2025, 11, 14, 22, 13, 20, 0, time.UTC),
		Source: domain.SourceInfo{
			Path:      fp.Path,
			ModTime:   time.Unix(0, fp.MTimeUnixNano).UTC(),
			SizeBytes: fp.Size,
		},
		Global: false,
		Payload: domain.Tree{
			"encoder": map[string]any{
				"weight": map[string]any{
					"_type": "tensor",
					"shape": []any{float64(16), float64(16)},
				},
			},
		},
	}
}

func TestStore_PutLookup(t *testing.T) {
	t.Parallel()

	s, err := store.New(t.TempDir(), 8)
	require.NoError(t, err)

	fp := fingerprint("/m/model.ckpt")
	require.NoError(t, s.Put(entryFor(fp)))

	entry, err := s.Lookup(fp)
	require.NoError(t, err)
	assert.Equal(t, fp, entry.Fingerprint)
	assert.Contains(t, entry.Payload, "encoder")
}

func TestStore_LookupMiss(t *testing.T) {
	t.Parallel()

	s, err := store.New(t.TempDir(), 8)
	require.NoError(t, err)

	_, err = s.Lookup(fingerprint("/m/unknown.ckpt"))
	require.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestStore_FingerprintMismatchIsMiss(t *testing.T) {
	t.Parallel()

	s, err := store.New(t.TempDir(), 8)
	require.NoError(t, err)

	fp := fingerprint("/m/model.ckpt")
	require.NoError(t, s.Put(entryFor(fp)))

	// The file changed on disk: new mtime, new digest, no document.
	changed := fp
	changed.MTimeUnixNano++
	_, err = s.Lookup(changed)
	require.ErrorIs(t, err, domain.ErrCacheMiss)

	// A different mode over the same file is its own entry.
	local := fp
	local.Mode = domain.ModeLocal
	_, err = s.Lookup(local)
	require.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestStore_SurvivesRestart(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fp := fingerprint("/m/model.ckpt")

	s1, err := store.New(dir, 8)
	require.NoError(t, err)
	require.NoError(t, s1.Put(entryFor(fp)))

	// A fresh store over the same directory reads the document from disk.
	s2, err := store.New(dir, 8)
	require.NoError(t, err)
	entry, err := s2.Lookup(fp)
	require.NoError(t, err)
	assert.Equal(t, fp, entry.Fingerprint)
}

func TestStore_Merge(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := store.New(dir, 8)
	require.NoError(t, err)

	fp := fingerprint("/m/model.ckpt")
	require.NoError(t, s.Put(entryFor(fp)))

	updated, err := s.Merge(fp, []string{"encoder", "weight"}, domain.Tree{"mean": 0.1})
	require.NoError(t, err)

	stats, ok := updated.Payload.StatsAt([]string{"encoder", "weight"})
	require.True(t, ok)
	assert.Equal(t, 0.1, stats["mean"])

	// The merge is persisted, not just in memory.
	fresh, err := store.New(dir, 8)
	require.NoError(t, err)
	entry, err := fresh.Lookup(fp)
	require.NoError(t, err)
	_, ok = entry.Payload.StatsAt([]string{"encoder", "weight"})
	assert.True(t, ok)
}

func TestStore_MergeMissingEntry(t *testing.T) {
	t.Parallel()

	s, err := store.New(t.TempDir(), 8)
	require.NoError(t, err)

	_, err = s.Merge(fingerprint("/m/unknown.ckpt"), []string{"a"}, domain.Tree{})
	require.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestStore_Invalidate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := store.New(dir, 8)
	require.NoError(t, err)

	fp := fingerprint("/m/model.ckpt")
	require.NoError(t, s.Put(entryFor(fp)))

	s.Invalidate([]string{"/m/model.ckpt"})

	// The disk document is untouched and the fingerprint still matches, so
	// the next lookup re-reads it. Invalidation only drops the hot layer.
	entry, err := s.Lookup(fp)
	require.NoError(t, err)
	assert.Equal(t, fp, entry.Fingerprint)
}

func TestStore_InvalidateDirectory(t *testing.T) {
	t.Parallel()

	s, err := store.New(t.TempDir(), 8)
	require.NoError(t, err)

	fp := fingerprint(filepath.Join("/m", "shard-00001.ckpt"))
	require.NoError(t, s.Put(entryFor(fp)))

	// Invalidating the containing directory covers all resources under it.
	s.Invalidate([]string{"/m"})

	entry, err := s.Lookup(fp)
	require.NoError(t, err)
	assert.NotNil(t, entry)
}

func TestStore_StaleVersionIsMiss(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := store.New(dir, 8)
	require.NoError(t, err)

	fp := fingerprint("/m/model.ckpt")
	stale := entryFor(fp)
	stale.Version = domain.CacheDocVersion + 1
	require.NoError(t, s.Put(stale))

	// A fresh store must not trust a document with a foreign version tag.
	fresh, err := store.New(dir, 8)
	require.NoError(t, err)
	_, err = fresh.Lookup(fp)
	require.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestStore_DocumentFormat(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := store.New(dir, 8)
	require.NoError(t, err)

	fp := fingerprint("/m/model.ckpt")
	require.NoError(t, s.Put(entryFor(fp)))

	data, err := os.ReadFile(filepath.Join(dir, fp.Digest()+".json"))
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "cache_document", data)
}
