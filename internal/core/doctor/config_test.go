package doctor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/qp/internal/core/config"
)

func TestConfigCheck_Defaults(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "config.toml")

	result := NewConfigCheck(config.Default(), []string{missing}).Run(context.Background())

	assert.Equal(t, "Config", result.Name)
	require.NotEmpty(t, result.Items)
	assert.Equal(t, StatusPass, result.Items[0].Status)
	assert.Contains(t, result.Items[0].Detail, "defaults")
}

func TestConfigCheck_FileAndWarnings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[optimization]\nsteps = [\"holes\"]\n"), 0o644))

	cfg := config.Default()
	cfg.Optimization.Steps = []string{"holes", "security"}

	result := NewConfigCheck(cfg, []string{path}).Run(context.Background())

	assert.Equal(t, path, result.Items[0].Label)
	assert.Equal(t, StatusPass, result.Items[0].Status)

	item := itemFor(t, result, "Steps: security")
	assert.Equal(t, StatusWarn, item.Status)
}
