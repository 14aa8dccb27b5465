// Package executil provides process execution utilities.
package executil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

const maxStderrLen = 500

// waitDelay bounds how long Wait blocks on output pipes after the process
// is killed, e.g. when a grandchild keeps stdout open.
const waitDelay = 5 * time.Second

// limitedWriter caps writes to a bytes.Buffer at a maximum byte count.
// Bytes beyond the limit are silently discarded.
type limitedWriter struct {
	buf *bytes.Buffer
	n   int64
	max int64
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	if w.n >= w.max {
		return len(p), nil
	}
	remaining := w.max - w.n
	origLen := len(p)
	if int64(origLen) > remaining {
		p = p[:remaining]
	}
	n, err := w.buf.Write(p)
	w.n += int64(n)
	if err != nil {
		return n, err
	}
	return origLen, nil
}

// Stdio holds the standard streams handed to an attached process.
type Stdio struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Process is a started process the caller must Wait on or Release.
type Process interface {
	// Wait blocks until the process exits.
	Wait() error
	// Release detaches from the process without waiting for it.
	Release() error
}

// Executor runs external processes.
type Executor interface {
	// Pipe runs cmd with stdin as its input and returns everything it wrote to
	// stdout. Stderr is copied to the stderr writer as it arrives.
	Pipe(ctx context.Context, stdin io.Reader, stderr io.Writer, cmd string, args ...string) ([]byte, error)
	// Start launches cmd attached to stdio and returns without waiting.
	Start(ctx context.Context, stdio Stdio, cmd string, args ...string) (Process, error)
}

// RealExecutor runs actual processes.
type RealExecutor struct{}

// Pipe runs cmd in its own process group so cancelling ctx kills the whole
// tree. On failure the first 500 bytes of stderr are included in the error
// message and the original *exec.ExitError is preserved via wrapping.
func (e *RealExecutor) Pipe(ctx context.Context, stdin io.Reader, stderr io.Writer, cmd string, args ...string) ([]byte, error) {
	c := exec.CommandContext(ctx, cmd, args...)
	setProcessGroup(c)
	c.WaitDelay = waitDelay

	var stdout, errBuf bytes.Buffer
	capped := &limitedWriter{buf: &errBuf, max: maxStderrLen}

	c.Stdin = stdin
	c.Stdout = &stdout
	if stderr != nil {
		c.Stderr = io.MultiWriter(stderr, capped)
	} else {
		c.Stderr = capped
	}

	if err := c.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w (%w)", err, ctxErr)
		}
		msg := strings.TrimSpace(errBuf.String())
		if msg != "" {
			return stdout.Bytes(), fmt.Errorf("exec %s: %s: %w", cmd, msg, err)
		}
		return stdout.Bytes(), fmt.Errorf("exec %s: %w", cmd, err)
	}

	return stdout.Bytes(), nil
}

// Start launches cmd with the given streams. Cancelling ctx kills the process.
func (e *RealExecutor) Start(ctx context.Context, stdio Stdio, cmd string, args ...string) (Process, error) {
	c := exec.CommandContext(ctx, cmd, args...)
	c.Stdin = stdio.In
	c.Stdout = stdio.Out
	c.Stderr = stdio.Err

	if err := c.Start(); err != nil {
		return nil, fmt.Errorf("exec %s: %w", cmd, err)
	}

	return &process{cmd: c}, nil
}

type process struct {
	cmd *exec.Cmd
}

func (p *process) Wait() error {
	if err := p.cmd.Wait(); err != nil {
		return fmt.Errorf("exec %s: %w", p.cmd.Path, err)
	}
	return nil
}

func (p *process) Release() error {
	return p.cmd.Process.Release()
}
