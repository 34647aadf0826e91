package wire

import "bytes"

// NewConnToken is the ASCII line the relay writes to signal the agent
// that one external connection is awaiting a rendezvous dial.
const NewConnToken = "NEW_CONN"

// NewConnLine is NewConnToken followed by the delimiter.
const NewConnLine = NewConnToken + "\n"

// SignalSplitter accumulates arbitrarily fragmented bytes from the
// control connection and extracts complete newline-delimited lines,
// counting how many equal NewConnToken. Unknown lines are discarded.
//
// It tolerates the token arriving as any number of separate reads, down
// to one byte at a time, since Feed only acts once a full line has
// accumulated in the internal buffer.
type SignalSplitter struct {
	buf []byte
}

// Feed appends data to the internal buffer, extracts any complete
// lines, and returns how many of them were exactly NewConnToken.
func (s *SignalSplitter) Feed(data []byte) int {
	s.buf = append(s.buf, data...)

	count := 0
	for {
		idx := bytes.IndexByte(s.buf, '\n')
		if idx < 0 {
			break
		}
		line := s.buf[:idx]
		s.buf = s.buf[idx+1:]
		if string(line) == NewConnToken {
			count++
		}
	}
	return count
}
