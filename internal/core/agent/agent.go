// Package agent runs the external AI agent process, either one-shot with
// captured output or attached to the terminal for interactive sessions.
package agent

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/qp/pkg/executil"
)

// planSeparator sits between a step prompt and the plan in one-shot input.
const planSeparator = "\n\n---\n\nPlan to review/revise:\n\n"

// ComposeInput builds the stdin payload for a one-shot run.
func ComposeInput(prompt, planContent string) string {
	return prompt + planSeparator + planContent
}

// Error reports an agent process that could not be started, failed while
// streaming, or exited non-zero. ExitCode is -1 when the process never
// produced an exit status.
type Error struct {
	Command  string
	Args     []string
	ExitCode int
	Err      error
}

func (e *Error) Error() string {
	cmdline := strings.TrimSpace(e.Command + " " + strings.Join(e.Args, " "))
	if e.ExitCode >= 0 {
		return fmt.Sprintf("agent %q exited with status %d: %v", cmdline, e.ExitCode, e.Err)
	}
	return fmt.Sprintf("agent %q failed: %v", cmdline, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(command string, args []string, err error) *Error {
	code := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	return &Error{Command: command, Args: args, ExitCode: code, Err: err}
}

// Invoker spawns agent processes through an executor.
type Invoker struct {
	exec  executil.Executor
	stdio executil.Stdio
	log   zerolog.Logger
}

// NewInvoker returns an Invoker. stdio.Err receives the diagnostic stream of
// one-shot runs; all three streams are handed to interactive sessions.
func NewInvoker(exec executil.Executor, stdio executil.Stdio, log zerolog.Logger) *Invoker {
	return &Invoker{exec: exec, stdio: stdio, log: log}
}

// RunOneShot sends prompt and planContent on stdin and returns all of stdout.
// It blocks until the process exits or ctx is done.
func (i *Invoker) RunOneShot(ctx context.Context, command string, args []string, prompt, planContent string) (string, error) {
	input := ComposeInput(prompt, planContent)

	i.log.Debug().
		Ctx(ctx).
		Str("command", command).
		Strs("args", args).
		Int("input_bytes", len(input)).
		Msg("running agent")

	start := time.Now()
	out, err := i.exec.Pipe(ctx, strings.NewReader(input), i.stdio.Err, command, args...)
	if err != nil {
		return "", newError(command, args, err)
	}

	i.log.Debug().
		Ctx(ctx).
		Str("command", command).
		Int("output_bytes", len(out)).
		Dur("elapsed", time.Since(start)).
		Msg("agent finished")

	return string(out), nil
}

// RunInteractive starts the agent attached to the terminal streams. A
// non-empty initialPrompt is passed as the last argument. The returned
// session must be waited on or detached.
func (i *Invoker) RunInteractive(ctx context.Context, command string, args []string, initialPrompt string) (*Session, error) {
	argv := append([]string(nil), args...)
	if initialPrompt != "" {
		argv = append(argv, initialPrompt)
	}

	i.log.Debug().Ctx(ctx).Str("command", command).Strs("args", args).Msg("starting interactive agent")

	proc, err := i.exec.Start(ctx, i.stdio, command, argv...)
	if err != nil {
		return nil, newError(command, args, err)
	}

	return &Session{proc: proc, command: command, args: args}, nil
}

// Session is a running interactive agent.
type Session struct {
	proc    executil.Process
	command string
	args    []string
}

// Wait blocks until the agent exits. A non-zero exit, including an
// interrupt from the user, is an *Error.
func (s *Session) Wait() error {
	if err := s.proc.Wait(); err != nil {
		return newError(s.command, s.args, err)
	}
	return nil
}

// Detach leaves the agent running and releases the handle.
func (s *Session) Detach() error {
	return s.proc.Release()
}
