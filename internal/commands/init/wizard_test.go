package initcmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/qp/internal/core/config"
)

func TestBuildConfig_Defaults(t *testing.T) {
	cfg := BuildConfig(Answers{Command: "claude"})

	assert.Equal(t, "claude", cfg.Agent.Command)
	assert.Empty(t, cfg.Agent.Args)
	assert.Equal(t, config.DefaultSteps, cfg.Optimization.Steps)
	assert.Empty(t, cfg.ReviewAgents)
}

func TestBuildConfig_CustomStepsAndPlugins(t *testing.T) {
	cfg := BuildConfig(Answers{
		Command: "aider",
		Args:    "--yes  --no-git",
		Steps:   "holes, dependencies ,",
		Plugins: []string{"risk-check", "unknown", "dependencies"},
	})

	assert.Equal(t, []string{"--yes", "--no-git"}, cfg.Agent.Args)
	assert.Equal(t, []string{"holes", "dependencies", "risk-check"}, cfg.Optimization.Steps)

	require.Len(t, cfg.ReviewAgents, 2)
	assert.Contains(t, cfg.ReviewAgents["risk-check"].Prompt, "mitigation")
	assert.Contains(t, cfg.ReviewAgents["dependencies"].Prompt, "dependencies")
}

func TestParseList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ParseList(" a,, b ,"))
	assert.Nil(t, ParseList(""))
}

func stubLookPath(t *testing.T) {
	t.Helper()
	orig := lookPath
	t.Cleanup(func() { lookPath = orig })
	lookPath = func(file string) (string, error) { return "/usr/bin/" + file, nil }
}

func TestWizard_NonInteractive(t *testing.T) {
	stubLookPath(t)
	root := filepath.Join(t.TempDir(), ".qp")
	var out bytes.Buffer

	err := NewWizard(WizardOptions{Root: root, Out: &out}).Run(context.Background())
	require.NoError(t, err)

	assert.DirExists(t, filepath.Join(root, PlansDirName))

	var decoded config.Config
	_, err = toml.DecodeFile(filepath.Join(root, config.FileName), &decoded)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultAgentCommand, decoded.Agent.Command)
	assert.Equal(t, config.DefaultSteps, decoded.Optimization.Steps)

	assert.Contains(t, out.String(), "Initialized "+root)
}

func TestWizard_KeepsExistingConfig(t *testing.T) {
	stubLookPath(t)
	root := t.TempDir()
	path := filepath.Join(root, config.FileName)
	require.NoError(t, os.WriteFile(path, []byte("[agent]\ncommand = \"mine\"\n"), 0o644))

	w := NewWizard(WizardOptions{Root: root, Interactive: true})
	w.prompt = func() (Answers, error) {
		t.Fatal("prompt must not run when config is kept")
		return Answers{}, nil
	}
	require.NoError(t, w.Run(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[agent]\ncommand = \"mine\"\n", string(data))
	assert.NoFileExists(t, path+".bak")
}

func TestWizard_ForceBacksUp(t *testing.T) {
	stubLookPath(t)
	root := t.TempDir()
	path := filepath.Join(root, config.FileName)
	require.NoError(t, os.WriteFile(path, []byte("[agent]\ncommand = \"mine\"\n"), 0o644))

	w := NewWizard(WizardOptions{Root: root, Interactive: true, Force: true})
	w.prompt = func() (Answers, error) {
		return Answers{Command: "agent", Plugins: []string{"risk-check"}}, nil
	}
	require.NoError(t, w.Run(context.Background()))

	backup, err := os.ReadFile(path + ".bak")
	require.NoError(t, err)
	assert.Contains(t, string(backup), "mine")

	cfg, err := config.Load(config.LoadOptions{Root: root})
	require.NoError(t, err)
	assert.Equal(t, "agent", cfg.Agent.Command)
	assert.Contains(t, cfg.Steps(), "risk-check")
	assert.Contains(t, cfg.ReviewAgents, "holes")
}

func TestBackupConfig_Missing(t *testing.T) {
	path, err := BackupConfig(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	assert.Empty(t, path)
}
