package doctor

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/colonyops/qp/internal/core/config"
)

// ConfigCheck reports which config files are present and surfaces non-fatal
// configuration warnings.
type ConfigCheck struct {
	cfg   *config.Config
	files []string
}

// NewConfigCheck creates a config check. files are the config files the
// effective configuration was merged from.
func NewConfigCheck(cfg *config.Config, files []string) *ConfigCheck {
	return &ConfigCheck{cfg: cfg, files: files}
}

func (c *ConfigCheck) Name() string {
	return "Config"
}

func (c *ConfigCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	found := false
	for _, path := range c.files {
		_, err := os.Stat(path)
		switch {
		case err == nil:
			found = true
			result.Items = append(result.Items, CheckItem{
				Label:  path,
				Status: StatusPass,
				Detail: "loaded",
			})
		case errors.Is(err, fs.ErrNotExist):
			// absent files fall back to defaults
		default:
			result.Items = append(result.Items, CheckItem{
				Label:  path,
				Status: StatusFail,
				Detail: err.Error(),
			})
		}
	}

	if !found {
		result.Items = append(result.Items, CheckItem{
			Label:  "config",
			Status: StatusPass,
			Detail: "no config file, using built-in defaults",
		})
	}

	for _, w := range c.cfg.Warnings() {
		label := w.Category
		if w.Item != "" {
			label += ": " + w.Item
		}
		result.Items = append(result.Items, CheckItem{
			Label:  label,
			Status: StatusWarn,
			Detail: w.Message,
		})
	}

	return result
}
