// Package process wraps external commands (ffmpeg, ffprobe, python) behind
// a small interface so encode/decode pipelines can run against a fake in
// tests.
package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// Process is a started external command.
type Process interface {
	// Stdin is the write end of the child's standard input.
	Stdin() io.WriteCloser
	// Stdout is the read end of the child's standard output.
	Stdout() io.Reader
	// Wait blocks until the child exits. A non-zero exit is reported as
	// *ExitError.
	Wait() error
	// Kill terminates the child. Wait must still be called to reap it.
	Kill() error
}

// Spawner starts processes.
type Spawner interface {
	Spawn(ctx context.Context, name string, args ...string) (Process, error)
}

// ExitError is returned by Wait when the child exits with a non-zero status.
type ExitError struct {
	Name   string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Name, e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// DefaultStderrLines is how many trailing stderr lines are kept for errors.
const DefaultStderrLines = 20

// ExecSpawner spawns real processes with os/exec.
type ExecSpawner struct {
	StderrLines int
	// Stderr optionally receives a copy of the child's stderr.
	Stderr io.Writer
}

func (s ExecSpawner) Spawn(ctx context.Context, name string, args ...string) (Process, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	n := s.StderrLines
	if n == 0 {
		n = DefaultStderrLines
	}
	tail := NewLastLines(n)
	if s.Stderr != nil {
		cmd.Stderr = io.MultiWriter(tail, s.Stderr)
	} else {
		cmd.Stderr = tail
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%s stdin pipe: %w", name, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%s stdout pipe: %w", name, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}

	return &execProcess{name: name, cmd: cmd, stdin: stdin, stdout: stdout, tail: tail}, nil
}

type execProcess struct {
	name   string
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.Reader
	tail   *LastLines

	waitOnce sync.Once
	waitErr  error
}

func (p *execProcess) Stdin() io.WriteCloser { return p.stdin }
func (p *execProcess) Stdout() io.Reader     { return p.stdout }

func (p *execProcess) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

func (p *execProcess) Wait() error {
	p.waitOnce.Do(func() {
		err := p.cmd.Wait()
		p.tail.Close()

		var ee *exec.ExitError
		if errors.As(err, &ee) {
			p.waitErr = &ExitError{Name: p.name, Code: ee.ExitCode(), Stderr: p.tail.String()}
			return
		}
		if err != nil {
			p.waitErr = fmt.Errorf("%s wait error: %w", p.name, err)
		}
	})
	return p.waitErr
}

// Output runs a command to completion and returns everything it wrote to
// stdout.
func Output(ctx context.Context, s Spawner, name string, args ...string) ([]byte, error) {
	proc, err := s.Spawn(ctx, name, args...)
	if err != nil {
		return nil, err
	}
	proc.Stdin().Close()

	out, readErr := io.ReadAll(proc.Stdout())
	if err := proc.Wait(); err != nil {
		return out, err
	}
	if readErr != nil {
		return out, fmt.Errorf("failed to read %s output: %w", name, readErr)
	}
	return out, nil
}
