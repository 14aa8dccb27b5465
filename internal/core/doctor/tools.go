package doctor

import (
	"context"
	"os/exec"
)

// lookPathFunc is the function used to find executables on PATH.
// Package-level variable to allow test overrides.
var lookPathFunc = exec.LookPath

// ToolsCheck verifies that the configured agent commands are available on $PATH.
type ToolsCheck struct {
	commands []string
}

// NewToolsCheck creates a new tools check for the given agent commands.
func NewToolsCheck(commands []string) *ToolsCheck {
	return &ToolsCheck{commands: commands}
}

func (c *ToolsCheck) Name() string {
	return "Agents"
}

func (c *ToolsCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	if len(c.commands) == 0 {
		result.Items = append(result.Items, CheckItem{
			Label:  "agent",
			Status: StatusFail,
			Detail: "no agent command configured",
		})
		return result
	}

	for _, cmd := range c.commands {
		path, err := lookPathFunc(cmd)
		if err != nil {
			result.Items = append(result.Items, CheckItem{
				Label:  cmd,
				Status: StatusFail,
				Detail: "not found on PATH",
			})
			continue
		}

		result.Items = append(result.Items, CheckItem{
			Label:  cmd,
			Status: StatusPass,
			Detail: path,
		})
	}

	return result
}
