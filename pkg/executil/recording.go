package executil

import (
	"context"
	"io"
	"sync"
)

// RecordedCommand captures a command that was executed.
type RecordedCommand struct {
	Cmd      string
	Args     []string
	Stdin    string
	Attached bool
}

// RecordingExecutor captures commands for testing.
// Configure Outputs and Errors maps to control return values.
type RecordingExecutor struct {
	mu       sync.Mutex
	Commands []RecordedCommand

	// Outputs maps command names to the stdout returned by Pipe.
	// Key is the command name (e.g., "claude").
	Outputs map[string][]byte

	// Errors maps command names to their error. For Start the error is
	// returned from Wait.
	Errors map[string]error
}

// Pipe records the command and its full stdin.
func (e *RecordingExecutor) Pipe(ctx context.Context, stdin io.Reader, stderr io.Writer, cmd string, args ...string) ([]byte, error) {
	var input string
	if stdin != nil {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, err
		}
		input = string(data)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.Commands = append(e.Commands, RecordedCommand{Cmd: cmd, Args: args, Stdin: input})

	if err, ok := e.Errors[cmd]; ok {
		return nil, err
	}
	return e.Outputs[cmd], nil
}

// Start records an attached command.
func (e *RecordingExecutor) Start(ctx context.Context, stdio Stdio, cmd string, args ...string) (Process, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.Commands = append(e.Commands, RecordedCommand{Cmd: cmd, Args: args, Attached: true})

	return &recordedProcess{err: e.Errors[cmd]}, nil
}

// Reset clears recorded commands.
func (e *RecordingExecutor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Commands = nil
}

type recordedProcess struct {
	err error
}

func (p *recordedProcess) Wait() error    { return p.err }
func (p *recordedProcess) Release() error { return nil }
