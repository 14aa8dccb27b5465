package executil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealExecutor_Pipe(t *testing.T) {
	e := &RealExecutor{}
	ctx := context.Background()

	t.Run("feeds stdin and captures stdout", func(t *testing.T) {
		out, err := e.Pipe(ctx, strings.NewReader("hello\nworld"), nil, "sh", "-c", "cat; printf ' done'")
		require.NoError(t, err)
		assert.Equal(t, "hello\nworld done", string(out))
	})

	t.Run("copies stderr to the writer", func(t *testing.T) {
		var stderr bytes.Buffer
		out, err := e.Pipe(ctx, nil, &stderr, "sh", "-c", "echo progress >&2; echo result")
		require.NoError(t, err)
		assert.Equal(t, "result\n", string(out))
		assert.Equal(t, "progress\n", stderr.String())
	})

	t.Run("ignores unread stdin", func(t *testing.T) {
		out, err := e.Pipe(ctx, strings.NewReader(strings.Repeat("x", 1<<20)), nil, "sh", "-c", "echo fixed")
		require.NoError(t, err)
		assert.Equal(t, "fixed\n", string(out))
	})

	t.Run("command not found", func(t *testing.T) {
		_, err := e.Pipe(ctx, nil, nil, "nonexistent-command-12345")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exec nonexistent-command-12345")
	})

	t.Run("preserves exit error", func(t *testing.T) {
		_, err := e.Pipe(ctx, nil, nil, "sh", "-c", "echo 'error message' >&2; exit 3")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error message")

		var exitErr *exec.ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 3, exitErr.ExitCode())
	})
}

func TestRealExecutor_Pipe_StderrCappedAtMaxLen(t *testing.T) {
	ctx := context.Background()

	// Write twice the cap to stderr; only the first maxStderrLen bytes should appear in the error.
	longStderr := strings.Repeat("A", maxStderrLen*2)
	cmd := fmt.Sprintf("printf '%%s' '%s' >&2; exit 1", longStderr)

	var full bytes.Buffer
	_, err := (&RealExecutor{}).Pipe(ctx, nil, &full, "sh", "-c", cmd)
	require.Error(t, err)

	assert.Equal(t, longStderr, full.String(), "writer should see the full stream")
	assert.NotContains(t, err.Error(), strings.Repeat("A", maxStderrLen+1))
	assert.Contains(t, err.Error(), strings.Repeat("A", maxStderrLen))
}

func TestRealExecutor_Pipe_ContextTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := (&RealExecutor{}).Pipe(ctx, nil, nil, "sh", "-c", "sleep 30")
	require.Error(t, err)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestRealExecutor_Start(t *testing.T) {
	e := &RealExecutor{}
	ctx := context.Background()

	t.Run("attached streams", func(t *testing.T) {
		var out bytes.Buffer
		p, err := e.Start(ctx, Stdio{In: strings.NewReader("typed"), Out: &out}, "sh", "-c", `cat; echo " $1"`, "sh", "arg")
		require.NoError(t, err)
		require.NoError(t, p.Wait())
		assert.Equal(t, "typed arg\n", out.String())
	})

	t.Run("non-zero exit surfaces from wait", func(t *testing.T) {
		p, err := e.Start(ctx, Stdio{}, "sh", "-c", "exit 4")
		require.NoError(t, err)

		err = p.Wait()
		var exitErr *exec.ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 4, exitErr.ExitCode())
	})

	t.Run("spawn failure", func(t *testing.T) {
		_, err := e.Start(ctx, Stdio{}, "nonexistent-command-12345")
		require.Error(t, err)
	})
}

func TestRecordingExecutor(t *testing.T) {
	ctx := context.Background()

	t.Run("records piped commands and stdin", func(t *testing.T) {
		e := &RecordingExecutor{Outputs: map[string][]byte{"agent": []byte("output")}}

		out, err := e.Pipe(ctx, strings.NewReader("input"), nil, "agent", "-p")
		require.NoError(t, err)
		assert.Equal(t, []byte("output"), out)

		require.Len(t, e.Commands, 1)
		assert.Equal(t, RecordedCommand{Cmd: "agent", Args: []string{"-p"}, Stdin: "input"}, e.Commands[0])
	})

	t.Run("returns configured error", func(t *testing.T) {
		expectedErr := errors.New("command failed")
		e := &RecordingExecutor{Errors: map[string]error{"agent": expectedErr}}

		_, err := e.Pipe(ctx, nil, nil, "agent")
		assert.Equal(t, expectedErr, err)

		p, err := e.Start(ctx, Stdio{}, "agent")
		require.NoError(t, err)
		assert.Equal(t, expectedErr, p.Wait())
	})

	t.Run("reset clears commands", func(t *testing.T) {
		e := &RecordingExecutor{}

		_, err := e.Start(ctx, Stdio{}, "agent", "hello")
		require.NoError(t, err)
		require.Len(t, e.Commands, 1)
		assert.True(t, e.Commands[0].Attached)

		e.Reset()
		assert.Empty(t, e.Commands)
	})
}
