package domain

import (
	"fmt"
	"os"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/zerr"
)

// Fingerprint is the derived identity used to validate cache freshness. Any
// change to the resource's modification time or size, or a different viewing
// mode, yields a different fingerprint and therefore a full cache miss.
type Fingerprint struct {
	Path          string `json:"path"`
	MTimeUnixNano int64  `json:"mtime_unix_nano"`
	Size          int64  `json:"size"`
	Mode          Mode   `json:"mode"`
}

// FingerprintFile stats path and builds its fingerprint under mode.
func FingerprintFile(path string, mode Mode) (Fingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Fingerprint{}, zerr.With(zerr.Wrap(err, ErrResourceStat.Error()), "path", path)
	}
	return Fingerprint{
		Path:          path,
		MTimeUnixNano: info.ModTime().UnixNano(),
		Size:          info.Size(),
		Mode:          mode,
	}, nil
}

// Digest returns the content address of the fingerprint, used as the cache
// document's filename and in-memory cache key.
func (f Fingerprint) Digest() string {
	h := xxhash.New()
	_, _ = h.WriteString(f.Path)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(strconv.FormatInt(f.MTimeUnixNano, 10))
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(strconv.FormatInt(f.Size, 10))
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(string(f.Mode))
	return fmt.Sprintf("%016x", h.Sum64())
}
