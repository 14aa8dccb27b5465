// Package initcmd implements qp init: it creates the .qp root and writes a
// starter config, optionally through an interactive wizard.
package initcmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/colonyops/qp/internal/core/config"
	"github.com/colonyops/qp/internal/core/doctor"
	"github.com/colonyops/qp/internal/core/styles"
)

// PlansDirName is the directory under the root holding plan documents.
const PlansDirName = "plans"

// WizardOptions configures the wizard behavior.
type WizardOptions struct {
	Root        string    // .qp directory to create
	Interactive bool      // prompt with huh forms
	Force       bool      // overwrite existing config, keeping a backup
	Out         io.Writer // progress output
}

// Wizard orchestrates the init process.
type Wizard struct {
	opts WizardOptions

	// prompt collects answers; replaced in tests.
	prompt func() (Answers, error)
}

// NewWizard creates a new init wizard.
func NewWizard(opts WizardOptions) *Wizard {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	return &Wizard{opts: opts, prompt: promptUser}
}

// Run executes the wizard.
func (w *Wizard) Run(ctx context.Context) error {
	configPath := filepath.Join(w.opts.Root, config.FileName)
	plansDir := filepath.Join(w.opts.Root, PlansDirName)

	if err := os.MkdirAll(plansDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", plansDir, err)
	}

	exists := ConfigExists(configPath)
	if exists && !w.opts.Force {
		w.printf("%s %s\n", styles.TextMutedStyle.Render("Keeping existing config:"), configPath)
		w.printf("Initialized %s\n", w.opts.Root)
		return nil
	}

	answers := Answers{Command: config.DefaultAgentCommand}
	if w.opts.Interactive {
		var err error
		answers, err = w.prompt()
		if err != nil {
			return err
		}
	}

	cfg := BuildConfig(answers)

	if exists {
		backupPath, err := BackupConfig(configPath)
		if err != nil {
			return fmt.Errorf("backup config: %w", err)
		}
		if backupPath != "" {
			w.printf("%s %s\n", styles.TextSuccessStyle.Render("Backed up config to:"), backupPath)
		}
	}

	if err := WriteConfig(cfg, configPath); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	w.printf("%s %s\n", styles.TextSuccessStyle.Render("Created config:"), configPath)

	result := NewInitCheck(configPath, plansDir, cfg.Agent.Command).Run(ctx)
	w.printf("\n%s\n", styles.TextForegroundBoldStyle.Render(result.Name))
	for _, item := range result.Items {
		var icon string
		switch item.Status {
		case doctor.StatusPass:
			icon = styles.TextSuccessStyle.Render("✔")
		case doctor.StatusWarn:
			icon = styles.TextWarningStyle.Render("●")
		case doctor.StatusFail:
			icon = styles.TextErrorStyle.Render("✘")
		}
		w.printf("  %s %s %s\n", icon, item.Label, styles.TextMutedStyle.Render(item.Detail))
	}

	w.printf("\nInitialized %s\n", w.opts.Root)
	w.printf("Next: run 'qp new \"My Plan\"' to create a plan\n")
	return nil
}

func (w *Wizard) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(w.opts.Out, format, args...)
}

// WriteConfig encodes cfg as TOML at path.
func WriteConfig(cfg *config.Config, path string) error {
	var sb strings.Builder
	sb.WriteString("# qp configuration. Review agents not listed here use the built-in prompts.\n\n")
	if err := cfg.Encode(&sb); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(sb.String()), 0o644)
}

func promptUser() (Answers, error) {
	profile := Profiles[1].Name

	options := make([]huh.Option[string], 0, len(Profiles)+1)
	for _, p := range Profiles {
		options = append(options, huh.NewOption(fmt.Sprintf("%s (%s)", p.Description, p.Command), p.Name))
	}
	options = append(options, huh.NewOption("Custom command", CustomProfile))

	err := huh.NewSelect[string]().
		Title("Agent profile").
		Description("Used for creating and editing plans and for review steps").
		Options(options...).
		Value(&profile).
		Run()
	if err != nil {
		return Answers{}, err
	}

	a := Answers{Command: "agent"}
	if cmd, ok := ProfileCommand(profile); ok {
		a.Command = cmd
	}

	useDefaultSteps := true
	pluginOptions := make([]huh.Option[string], 0, len(Plugins))
	for _, p := range Plugins {
		pluginOptions = append(pluginOptions, huh.NewOption(p.Name, p.Name))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Agent command").
				Value(&a.Command).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("command is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Extra agent args").
				Description("Space separated, optional").
				Value(&a.Args),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Use the default optimization steps?").
				Description(strings.Join(config.DefaultSteps, ", ")).
				Value(&useDefaultSteps),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Optimization steps").
				Description("Comma separated step names, e.g. holes,details,deliverables").
				Value(&a.Steps),
		).WithHideFunc(func() bool { return useDefaultSteps }),
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Optional plugins").
				Description("Extra review steps run after the steps above").
				Options(pluginOptions...).
				Value(&a.Plugins),
		),
	)
	if err := form.Run(); err != nil {
		return Answers{}, err
	}

	if useDefaultSteps {
		a.Steps = ""
	}
	return a, nil
}
