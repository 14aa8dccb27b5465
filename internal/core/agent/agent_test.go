package agent

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/qp/pkg/executil"
)

func TestComposeInput(t *testing.T) {
	got := ComposeInput("Find holes.", "---\nid: x\n---\n\nbody")
	assert.Equal(t, "Find holes.\n\n---\n\nPlan to review/revise:\n\n---\nid: x\n---\n\nbody", got)
}

func TestInvoker_RunOneShot(t *testing.T) {
	ctx := context.Background()

	t.Run("echoes stdin through the process", func(t *testing.T) {
		var stderr bytes.Buffer
		inv := NewInvoker(&executil.RealExecutor{}, executil.Stdio{Err: &stderr}, zerolog.Nop())

		out, err := inv.RunOneShot(ctx, "sh", []string{"-c", "echo working >&2; cat"}, "prompt", "plan")
		require.NoError(t, err)
		assert.Equal(t, ComposeInput("prompt", "plan"), out)
		assert.Equal(t, "working\n", stderr.String())
	})

	t.Run("non-zero exit", func(t *testing.T) {
		inv := NewInvoker(&executil.RealExecutor{}, executil.Stdio{}, zerolog.Nop())

		_, err := inv.RunOneShot(ctx, "sh", []string{"-c", "echo boom >&2; exit 7"}, "p", "c")

		var agentErr *Error
		require.ErrorAs(t, err, &agentErr)
		assert.Equal(t, 7, agentErr.ExitCode)
		assert.Equal(t, "sh", agentErr.Command)
		assert.Contains(t, agentErr.Error(), "boom")
	})

	t.Run("missing command", func(t *testing.T) {
		inv := NewInvoker(&executil.RealExecutor{}, executil.Stdio{}, zerolog.Nop())

		_, err := inv.RunOneShot(ctx, "qp-no-such-agent-binary", nil, "p", "c")

		var agentErr *Error
		require.ErrorAs(t, err, &agentErr)
		assert.Equal(t, -1, agentErr.ExitCode)
		assert.ErrorIs(t, err, exec.ErrNotFound)
	})

	t.Run("sends composed input", func(t *testing.T) {
		rec := &executil.RecordingExecutor{Outputs: map[string][]byte{"claude": []byte("revised")}}
		inv := NewInvoker(rec, executil.Stdio{}, zerolog.Nop())

		out, err := inv.RunOneShot(ctx, "claude", []string{"-p"}, "prompt", "plan")
		require.NoError(t, err)
		assert.Equal(t, "revised", out)

		require.Len(t, rec.Commands, 1)
		assert.Equal(t, []string{"-p"}, rec.Commands[0].Args)
		assert.Equal(t, ComposeInput("prompt", "plan"), rec.Commands[0].Stdin)
	})
}

func TestInvoker_RunInteractive(t *testing.T) {
	ctx := context.Background()

	t.Run("prompt is the trailing argument", func(t *testing.T) {
		rec := &executil.RecordingExecutor{}
		inv := NewInvoker(rec, executil.Stdio{}, zerolog.Nop())

		args := []string{"--model", "x"}
		sess, err := inv.RunInteractive(ctx, "claude", args, "write the plan")
		require.NoError(t, err)
		require.NoError(t, sess.Wait())

		require.Len(t, rec.Commands, 1)
		assert.True(t, rec.Commands[0].Attached)
		assert.Equal(t, []string{"--model", "x", "write the plan"}, rec.Commands[0].Args)
		assert.Equal(t, []string{"--model", "x"}, args, "caller args must not be modified")
	})

	t.Run("no prompt", func(t *testing.T) {
		rec := &executil.RecordingExecutor{}
		inv := NewInvoker(rec, executil.Stdio{}, zerolog.Nop())

		sess, err := inv.RunInteractive(ctx, "claude", nil, "")
		require.NoError(t, err)
		require.NoError(t, sess.Detach())

		assert.Empty(t, rec.Commands[0].Args)
	})

	t.Run("failed session", func(t *testing.T) {
		rec := &executil.RecordingExecutor{Errors: map[string]error{"claude": errors.New("interrupted")}}
		inv := NewInvoker(rec, executil.Stdio{}, zerolog.Nop())

		sess, err := inv.RunInteractive(ctx, "claude", nil, "")
		require.NoError(t, err)

		var agentErr *Error
		require.ErrorAs(t, sess.Wait(), &agentErr)
		assert.Equal(t, -1, agentErr.ExitCode)
	})

	t.Run("real process exit code", func(t *testing.T) {
		var out bytes.Buffer
		inv := NewInvoker(&executil.RealExecutor{}, executil.Stdio{Out: &out}, zerolog.Nop())

		sess, err := inv.RunInteractive(ctx, "sh", []string{"-c", `echo "$1"; exit 2`, "sh"}, "hi")
		require.NoError(t, err)

		var agentErr *Error
		require.ErrorAs(t, sess.Wait(), &agentErr)
		assert.Equal(t, 2, agentErr.ExitCode)
		assert.Equal(t, "hi\n", out.String())
	})
}
