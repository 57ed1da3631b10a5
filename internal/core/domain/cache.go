package domain

import "time"

// CacheDocVersion tags the persisted cache document format.
const CacheDocVersion = 1

// SourceInfo describes the resource a cache entry was computed from. It is
// descriptive metadata for display; freshness is validated against the
// fingerprint, not against these fields.
type SourceInfo struct {
	Path      string    `json:"path"`
	ModTime   time.Time `json:"mod_time"`
	SizeBytes int64     `json:"size_bytes"`
}

// CacheEntry is one persisted analysis result, serialized as a single JSON
// document named by the fingerprint digest. Entries are append-only per
// fingerprint except for in-place enrichment of inspect sub-results.
type CacheEntry struct {
	Version     int         `json:"version"`
	Fingerprint Fingerprint `json:"fingerprint"`
	CreatedAt   time.Time   `json:"created_at"`
	Source      SourceInfo  `json:"source"`
	Global      bool        `json:"is_global"`
	Payload     Tree        `json:"payload"`
}

// Result converts the entry into the caller-facing result shape.
func (e *CacheEntry) Result() *Result {
	return &Result{Global: e.Global, Data: e.Payload}
}
