package doctor

import (
	"context"
	"fmt"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubLookPath(t *testing.T, missing ...string) {
	t.Helper()

	orig := lookPathFunc
	t.Cleanup(func() { lookPathFunc = orig })

	lookPathFunc = func(file string) (string, error) {
		for _, m := range missing {
			if file == m {
				return "", &exec.Error{Name: file, Err: fmt.Errorf("not found")}
			}
		}
		return "/usr/bin/" + file, nil
	}
}

func TestToolsCheck_AllPresent(t *testing.T) {
	stubLookPath(t)

	check := NewToolsCheck([]string{"claude", "aider"})
	result := check.Run(context.Background())

	assert.Equal(t, "Agents", result.Name)
	require.Len(t, result.Items, 2)

	assert.Equal(t, "claude", result.Items[0].Label)
	assert.Equal(t, StatusPass, result.Items[0].Status)
	assert.Equal(t, "/usr/bin/claude", result.Items[0].Detail)

	assert.Equal(t, "aider", result.Items[1].Label)
	assert.Equal(t, StatusPass, result.Items[1].Status)
}

func TestToolsCheck_CommandMissing(t *testing.T) {
	stubLookPath(t, "aider")

	check := NewToolsCheck([]string{"claude", "aider"})
	result := check.Run(context.Background())

	require.Len(t, result.Items, 2)
	assert.Equal(t, StatusPass, result.Items[0].Status)
	assert.Equal(t, StatusFail, result.Items[1].Status)
	assert.Contains(t, result.Items[1].Detail, "not found on PATH")
}

func TestToolsCheck_NoCommands(t *testing.T) {
	stubLookPath(t)

	result := NewToolsCheck(nil).Run(context.Background())

	require.Len(t, result.Items, 1)
	assert.Equal(t, StatusFail, result.Items[0].Status)
}

func TestSummary(t *testing.T) {
	results := []Result{
		{Name: "a", Items: []CheckItem{{Status: StatusPass}, {Status: StatusWarn, Fixable: true}}},
		{Name: "b", Items: []CheckItem{{Status: StatusFail}, {Status: StatusPass, Fixable: true}}},
	}

	passed, warned, failed := Summary(results)
	assert.Equal(t, 2, passed)
	assert.Equal(t, 1, warned)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, CountFixable(results))
}
