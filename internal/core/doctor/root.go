package doctor

import (
	"context"
	"fmt"
	"os"
)

// RootCheck verifies that the .qp root and its plans directory exist.
type RootCheck struct {
	root     string
	plansDir string
	autofix  bool
}

// NewRootCheck creates a root check. With autofix, a missing plans directory
// is created.
func NewRootCheck(root, plansDir string, autofix bool) *RootCheck {
	return &RootCheck{root: root, plansDir: plansDir, autofix: autofix}
}

func (c *RootCheck) Name() string {
	return "Root"
}

func (c *RootCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	info, err := os.Stat(c.root)
	if err != nil || !info.IsDir() {
		result.Items = append(result.Items, CheckItem{
			Label:  c.root,
			Status: StatusFail,
			Detail: "root directory not found (run qp init)",
		})
		return result
	}

	result.Items = append(result.Items, CheckItem{
		Label:  c.root,
		Status: StatusPass,
	})

	if info, err := os.Stat(c.plansDir); err == nil && info.IsDir() {
		result.Items = append(result.Items, CheckItem{
			Label:  c.plansDir,
			Status: StatusPass,
		})
		return result
	}

	if c.autofix {
		if err := os.MkdirAll(c.plansDir, 0o755); err != nil {
			result.Items = append(result.Items, CheckItem{
				Label:   c.plansDir,
				Status:  StatusFail,
				Detail:  fmt.Sprintf("failed to create: %v", err),
				Fixable: true,
			})
			return result
		}
		result.Items = append(result.Items, CheckItem{
			Label:  c.plansDir,
			Status: StatusPass,
			Detail: "created",
		})
		return result
	}

	result.Items = append(result.Items, CheckItem{
		Label:   c.plansDir,
		Status:  StatusWarn,
		Detail:  "plans directory missing",
		Fixable: true,
	})
	return result
}
