package wire

import (
	"io"
	"sync"
)

// SafeWriter serializes writes to an underlying connection so that
// concurrent producers (the UDP ingress workers, the TCP signaling
// writer) never interleave partial frames on the wire. Each Write call
// holds the lock for the full duration of the underlying write, so
// callers must pass one complete frame per call.
type SafeWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewSafeWriter wraps w for serialized access.
func NewSafeWriter(w io.Writer) *SafeWriter {
	return &SafeWriter{w: w}
}

// Write implements io.Writer, holding the internal lock across the
// underlying write.
func (s *SafeWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
