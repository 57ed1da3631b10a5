// Package store implements the content-addressed result cache: one JSON
// document per fingerprint digest on disk, with an LRU layer in front.
package store

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.trai.ch/ckpt/internal/core/domain"
	"go.trai.ch/ckpt/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ResultStore = (*Store)(nil)

// Store implements ports.ResultStore. The disk document is authoritative; the
// LRU only skips re-reading and re-decoding for repeat lookups. Entries are
// only ever trusted after their fingerprint matches the one the caller
// recomputed from the live file.
type Store struct {
	dir string

	mu     sync.Mutex
	memory *lru.Cache[string, *domain.CacheEntry]
}

// New creates a store rooted at dir with an in-memory LRU of memoryEntries.
func New(dir string, memoryEntries int) (*Store, error) {
	if memoryEntries <= 0 {
		memoryEntries = domain.DefaultMemoryEntries
	}
	cache, err := lru.New[string, *domain.CacheEntry](memoryEntries)
	if err != nil {
		return nil, err
	}
	return &Store{dir: dir, memory: cache}, nil
}

// Lookup implements ports.ResultStore.
func (s *Store) Lookup(fp domain.Fingerprint) (*domain.CacheEntry, error) {
	digest := fp.Digest()

	s.mu.Lock()
	if entry, ok := s.memory.Get(digest); ok {
		s.mu.Unlock()
		if entry.Fingerprint == fp {
			return entry, nil
		}
		return nil, zerr.With(domain.ErrCacheMiss, "path", fp.Path)
	}
	s.mu.Unlock()

	entry, err := s.read(digest)
	if err != nil {
		return nil, err
	}

	// The digest covers the fingerprint, but the document is still compared
	// field by field: stale entries are never served.
	if entry.Fingerprint != fp || entry.Version != domain.CacheDocVersion {
		return nil, zerr.With(domain.ErrCacheMiss, "path", fp.Path)
	}

	s.mu.Lock()
	s.memory.Add(digest, entry)
	s.mu.Unlock()
	return entry, nil
}

// Put implements ports.ResultStore.
func (s *Store) Put(entry *domain.CacheEntry) error {
	digest := entry.Fingerprint.Digest()
	if err := s.write(digest, entry); err != nil {
		return err
	}

	s.mu.Lock()
	s.memory.Add(digest, entry)
	s.mu.Unlock()
	return nil
}

// Merge implements ports.ResultStore. The stored payload is enriched in
// place and the document re-persisted, so repeated inspects progressively
// fill the tree without re-running the whole analysis.
func (s *Store) Merge(fp domain.Fingerprint, keyPath []string, stats domain.Tree) (*domain.CacheEntry, error) {
	entry, err := s.Lookup(fp)
	if err != nil {
		return nil, err
	}

	if err := entry.Payload.MergeAt(keyPath, stats); err != nil {
		return nil, err
	}

	if err := s.Put(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Invalidate implements ports.ResultStore.
func (s *Store) Invalidate(paths []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range s.memory.Keys() {
		entry, ok := s.memory.Peek(key)
		if !ok {
			continue
		}
		for _, path := range paths {
			if entry.Fingerprint.Path == path || strings.HasPrefix(entry.Fingerprint.Path, path+string(os.PathSeparator)) {
				s.memory.Remove(key)
				break
			}
		}
	}
}

func (s *Store) read(digest string) (*domain.CacheEntry, error) {
	//nolint:gosec // G304: filename is a hex digest under the store directory
	data, err := os.ReadFile(s.filename(digest))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrCacheMiss
		}
		return nil, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, zerr.Wrap(err, domain.ErrStoreDecodeFailed.Error())
	}
	return &entry, nil
}

func (s *Store) write(digest string, entry *domain.CacheEntry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreEncodeFailed.Error())
	}

	if err := os.MkdirAll(s.dir, domain.DirPerm); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}

	//nolint:gosec // G306: cache documents are project-local artifacts
	if err := os.WriteFile(s.filename(digest), data, domain.FilePerm); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	return nil
}

func (s *Store) filename(digest string) string {
	return filepath.Join(s.dir, digest+".json")
}
