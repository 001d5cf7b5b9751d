// Package processtest provides an in-memory process.Spawner for tests.
package processtest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/Razzula/stagehand/internal/process"
)

// Response describes how a spawned fake process behaves.
type Response struct {
	Stdout   []byte
	ExitCode int
	Stderr   string
	// StdoutErr, if set, is returned by Stdout reads after Stdout is drained.
	StdoutErr error
	// FailWrites makes stdin writes fail with io.ErrClosedPipe. The process
	// is treated as already exited, so Kill does not change its status.
	FailWrites bool
	// BlockWrites makes stdin writes block until stdin is closed or the
	// process is killed, then fail with io.ErrClosedPipe.
	BlockWrites bool
	// CloseErr is returned when stdin is closed.
	CloseErr error
}

// Spawner records every spawn and serves canned responses.
type Spawner struct {
	// Respond picks the behaviour for each spawn. Nil means empty output and
	// a zero exit.
	Respond  func(name string, args []string) Response
	SpawnErr error

	mu    sync.Mutex
	procs []*Process
}

func (s *Spawner) Spawn(ctx context.Context, name string, args ...string) (process.Process, error) {
	if s.SpawnErr != nil {
		return nil, s.SpawnErr
	}

	var resp Response
	if s.Respond != nil {
		resp = s.Respond(name, args)
	}

	p := &Process{
		Name:     name,
		Args:     append([]string(nil), args...),
		resp:     resp,
		stdout:   &stdoutReader{r: bytes.NewReader(resp.Stdout), err: resp.StdoutErr},
		unblock:  make(chan struct{}),
		closeErr: resp.CloseErr,
	}

	s.mu.Lock()
	s.procs = append(s.procs, p)
	s.mu.Unlock()

	return p, nil
}

// Processes returns every process spawned so far, in spawn order.
func (s *Spawner) Processes() []*Process {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Process(nil), s.procs...)
}

// Process is a fake child process.
type Process struct {
	Name string
	Args []string

	resp    Response
	stdout  *stdoutReader
	unblock chan struct{}
	once    sync.Once

	mu       sync.Mutex
	writes   [][]byte
	closed   bool
	killed   bool
	waited   bool
	closeErr error
}

func (p *Process) Stdin() io.WriteCloser { return (*stdin)(p) }
func (p *Process) Stdout() io.Reader     { return p.stdout }

func (p *Process) Kill() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.killed = true
	p.once.Do(func() { close(p.unblock) })
	return nil
}

func (p *Process) Wait() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.waited = true

	if p.killed && !p.resp.FailWrites {
		return &process.ExitError{Name: p.Name, Code: -1, Stderr: "signal: killed"}
	}
	if p.resp.ExitCode != 0 {
		return &process.ExitError{Name: p.Name, Code: p.resp.ExitCode, Stderr: p.resp.Stderr}
	}
	return nil
}

// Writes returns a copy of each Write call made to stdin, in order.
func (p *Process) Writes() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.writes...)
}

// StdinClosed reports whether stdin was closed.
func (p *Process) StdinClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Killed reports whether Kill was called.
func (p *Process) Killed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.killed
}

// Waited reports whether Wait was called.
func (p *Process) Waited() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waited
}

type stdin Process

func (w *stdin) Write(b []byte) (int, error) {
	p := (*Process)(w)
	if p.resp.BlockWrites {
		<-p.unblock
		return 0, io.ErrClosedPipe
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, errors.New("write to closed stdin")
	}
	if p.resp.FailWrites {
		return 0, io.ErrClosedPipe
	}
	p.writes = append(p.writes, append([]byte(nil), b...))
	return len(b), nil
}

func (w *stdin) Close() error {
	p := (*Process)(w)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.once.Do(func() { close(p.unblock) })
	return p.closeErr
}

type stdoutReader struct {
	r   *bytes.Reader
	err error
}

func (s *stdoutReader) Read(b []byte) (int, error) {
	n, err := s.r.Read(b)
	if err == io.EOF && s.err != nil {
		return n, s.err
	}
	return n, err
}
