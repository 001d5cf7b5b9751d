package process

import (
	"bytes"
	"strings"
	"sync"
)

// LastLines is an io.Writer that keeps the last n lines written to it.
type LastLines struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	current int
	lines   []string
}

// NewLastLines creates a line buffer that keeps the last limit lines.
func NewLastLines(limit int) *LastLines {
	if limit < 1 {
		limit = 1
	}
	return &LastLines{lines: make([]string, limit)}
}

func (lb *LastLines) Write(p []byte) (int, error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.buf.Write(p)
	b := lb.buf.Bytes()
	pos := 0
	for {
		i := bytes.IndexAny(b[pos:], "\n\r")
		if i < 0 {
			break
		}
		lb.add(string(b[pos : pos+i+1]))
		pos += i + 1
	}
	rest := append([]byte(nil), b[pos:]...)
	lb.buf.Reset()
	lb.buf.Write(rest)

	return len(p), nil
}

// Close flushes a trailing partial line.
func (lb *LastLines) Close() error {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	if lb.buf.Len() > 0 {
		lb.add(lb.buf.String())
	}
	lb.buf.Reset()
	return nil
}

func (lb *LastLines) add(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	lb.lines[lb.current] = line
	lb.current = (lb.current + 1) % len(lb.lines)
}

// String returns the buffered lines, oldest first.
func (lb *LastLines) String() string {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	var sb strings.Builder
	for i := 0; i < len(lb.lines); i++ {
		sb.WriteString(lb.lines[(lb.current+i)%len(lb.lines)])
	}
	return sb.String()
}
