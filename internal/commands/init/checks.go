package initcmd

import (
	"context"
	"os"
	"os/exec"

	"github.com/colonyops/qp/internal/core/doctor"
)

// lookPath is replaced in tests.
var lookPath = exec.LookPath

// InitCheck validates the init wizard results.
type InitCheck struct {
	configPath string
	plansDir   string
	command    string
}

// NewInitCheck creates a new init validation check.
func NewInitCheck(configPath, plansDir, command string) *InitCheck {
	return &InitCheck{configPath: configPath, plansDir: plansDir, command: command}
}

func (c *InitCheck) Name() string {
	return "Init Validation"
}

func (c *InitCheck) Run(_ context.Context) doctor.Result {
	return doctor.Result{
		Name: c.Name(),
		Items: []doctor.CheckItem{
			c.checkConfigFile(),
			c.checkPlansDir(),
			c.checkAgent(),
		},
	}
}

func (c *InitCheck) checkConfigFile() doctor.CheckItem {
	if _, err := os.Stat(c.configPath); err != nil {
		return doctor.CheckItem{
			Label:  "Config file",
			Status: doctor.StatusFail,
			Detail: c.configPath + " not found",
		}
	}
	return doctor.CheckItem{
		Label:  "Config file",
		Status: doctor.StatusPass,
		Detail: c.configPath,
	}
}

func (c *InitCheck) checkPlansDir() doctor.CheckItem {
	info, err := os.Stat(c.plansDir)
	if err != nil || !info.IsDir() {
		return doctor.CheckItem{
			Label:  "Plans directory",
			Status: doctor.StatusFail,
			Detail: c.plansDir + " not found",
		}
	}
	return doctor.CheckItem{
		Label:  "Plans directory",
		Status: doctor.StatusPass,
		Detail: c.plansDir,
	}
}

func (c *InitCheck) checkAgent() doctor.CheckItem {
	if path, err := lookPath(c.command); err == nil {
		return doctor.CheckItem{
			Label:  c.command,
			Status: doctor.StatusPass,
			Detail: path,
		}
	}
	return doctor.CheckItem{
		Label:  c.command,
		Status: doctor.StatusWarn,
		Detail: "not found on PATH - install it before running qp new",
	}
}
