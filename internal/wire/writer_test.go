package wire

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeWriterSerializesConcurrentWrites(t *testing.T) {
	var buf bytes.Buffer
	sw := NewSafeWriter(&buf)

	const writers = 50
	chunk := bytes.Repeat([]byte{0xFF}, 64)

	var wg sync.WaitGroup
	wg.Add(writers)
	for range writers {
		go func() {
			defer wg.Done()
			n, err := sw.Write(chunk)
			assert.NoError(t, err)
			assert.Equal(t, len(chunk), n)
		}()
	}
	wg.Wait()

	assert.Equal(t, writers*len(chunk), buf.Len())
	for i := 0; i < buf.Len(); i += len(chunk) {
		assert.Equal(t, chunk, buf.Bytes()[i:i+len(chunk)], "frame %d corrupted by interleaving", i/len(chunk))
	}
}
