package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignalSplitterWholeLine(t *testing.T) {
	var s SignalSplitter
	assert.Equal(t, 1, s.Feed([]byte(NewConnLine)))
}

func TestSignalSplitterIgnoresUnknownLines(t *testing.T) {
	var s SignalSplitter
	assert.Equal(t, 0, s.Feed([]byte("PING\n")))
	assert.Equal(t, 1, s.Feed([]byte("NEW_CONN\nPONG\n")))
}

func TestSignalSplitterByteAtATime(t *testing.T) {
	var s SignalSplitter
	total := 0
	for _, b := range []byte(NewConnLine) {
		total += s.Feed([]byte{b})
	}
	assert.Equal(t, 1, total)
}

func TestSignalSplitterBurstOfThree(t *testing.T) {
	var s SignalSplitter
	count := s.Feed([]byte(NewConnLine + NewConnLine + NewConnLine))
	assert.Equal(t, 3, count)
}

func TestSignalSplitterPartialLineAcrossFeeds(t *testing.T) {
	var s SignalSplitter
	assert.Equal(t, 0, s.Feed([]byte("NEW_C")))
	assert.Equal(t, 1, s.Feed([]byte("ONN\n")))
}
