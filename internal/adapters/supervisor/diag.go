package supervisor

import (
	"bytes"
	"io"
	"sync"
)

// maxDiagBytes caps the retained stderr text. A crashing worker can dump an
// arbitrarily long traceback; only the head is useful for diagnostics.
const maxDiagBytes = 64 * 1024

// diagBuffer accumulates the worker's stderr for startup failure reports.
type diagBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func newDiagBuffer() *diagBuffer {
	return &diagBuffer{}
}

// consume drains r until EOF, retaining up to maxDiagBytes.
func (d *diagBuffer) consume(r io.Reader) {
	chunk := make([]byte, 4096)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			d.mu.Lock()
			if d.buf.Len() < maxDiagBytes {
				remaining := maxDiagBytes - d.buf.Len()
				if n > remaining {
					n = remaining
				}
				d.buf.Write(chunk[:n])
			}
			d.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

// String returns the accumulated diagnostic text.
func (d *diagBuffer) String() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buf.String()
}
