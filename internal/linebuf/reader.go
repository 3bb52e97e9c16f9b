// Package linebuf implements the supervisor's non-blocking line reader: it
// returns whatever complete lines are currently available on a stream
// without blocking for EOF, carrying over any trailing partial line to the
// next call.
package linebuf

import (
	"io"
	"strings"
	"sync"
)

const maxReadPerPump = 1 << 20 // 1 MiB ceiling per pump read

// Reader multiplexes non-blocking line reads across streams. Each stream
// gets a lazily-started background pump goroutine that performs the real
// (blocking) OS reads and forwards chunks over a small buffered channel;
// Pull drains whatever is currently queued without blocking the caller.
type Reader struct {
	mu      sync.Mutex
	streams map[io.Reader]*streamState
}

type streamState struct {
	chunks  chan []byte
	partial strings.Builder
	closed  bool
}

// New constructs an empty line reader.
func New() *Reader {
	return &Reader{streams: make(map[io.Reader]*streamState)}
}

// Pull returns the complete lines that the stream's pump has delivered so
// far, without blocking for more data. The pump is started by the first
// Pull for a stream, so that call returns only what the pump delivered in
// the instant since it started (usually nothing); data already waiting in
// the stream is returned by later calls. Once the pump has reached EOF,
// Pull flushes any buffered partial line as a final element. Line
// terminators are \n or \r\n and are stripped.
func (r *Reader) Pull(stream io.Reader) []string {
	st := r.stateFor(stream)

	var lines []string
	for {
		select {
		case chunk, ok := <-st.chunks:
			if !ok {
				if st.partial.Len() > 0 {
					lines = append(lines, st.partial.String())
					st.partial.Reset()
				}
				return lines
			}
			lines = append(lines, st.consume(chunk)...)
		default:
			return lines
		}
	}
}

func (st *streamState) consume(chunk []byte) []string {
	st.partial.Write(chunk)
	text := st.partial.String()
	st.partial.Reset()

	var lines []string
	for {
		idx := strings.IndexByte(text, '\n')
		if idx < 0 {
			st.partial.WriteString(text)
			return lines
		}
		line := text[:idx]
		line = strings.TrimSuffix(line, "\r")
		lines = append(lines, line)
		text = text[idx+1:]
	}
}

func (r *Reader) stateFor(stream io.Reader) *streamState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.streams[stream]; ok {
		return st
	}
	st := &streamState{chunks: make(chan []byte, 16)}
	r.streams[stream] = st
	go pump(stream, st.chunks)
	return st
}

// Release drops the per-stream buffer, e.g. from a reap callback once the
// stream's child has been collected. Safe to call even if the stream was
// never read through this Reader.
func (r *Reader) Release(stream io.Reader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.streams, stream)
}

func pump(stream io.Reader, out chan<- []byte) {
	defer close(out)
	buf := make([]byte, maxReadPerPump)
	for {
		n, err := stream.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			out <- chunk
		}
		if err != nil {
			return
		}
	}
}
