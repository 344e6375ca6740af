package progress

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

// Relay forwards engine output to out line by line, each line prefixed
// with its label. It is handed to the process invoker in interactive
// mode so long-running operations stay visible. Safe for concurrent
// writers (the engine's stdout and stderr).
type Relay struct {
	out   io.Writer
	label string

	mu  sync.Mutex
	buf bytes.Buffer
}

// NewRelay creates a Relay writing to out. The label usually names the
// target the engine is working on.
func NewRelay(out io.Writer, label string) *Relay {
	return &Relay{out: out, label: label}
}

func (r *Relay) Write(b []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf.Write(b)
	for {
		line, err := r.buf.ReadBytes('\n')
		if err != nil {
			// Partial line; keep it for the next write.
			r.buf.Write(line)
			break
		}
		r.emit(line)
	}
	return len(b), nil
}

// Flush writes any buffered partial line.
func (r *Relay) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.buf.Len() > 0 {
		line := append(r.buf.Bytes(), '\n')
		r.buf.Reset()
		r.emit(line)
	}
}

func (r *Relay) emit(line []byte) {
	if r.out == nil {
		return
	}
	trimmed := bytes.TrimRight(line, "\r\n")
	if len(trimmed) == 0 {
		return
	}
	fmt.Fprintf(r.out, "[%s] %s\n", r.label, trimmed)
}
