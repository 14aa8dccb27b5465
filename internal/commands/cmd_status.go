package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/qp/internal/core/plan"
	"github.com/colonyops/qp/internal/core/styles"
	"github.com/colonyops/qp/internal/qp"
)

type StatusCmd struct {
	flags *Flags
	app   *qp.App
}

// NewStatusCmd creates a new status command
func NewStatusCmd(flags *Flags, app *qp.App) *StatusCmd {
	return &StatusCmd{flags: flags, app: app}
}

// Register adds the status command to the application
func (cmd *StatusCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "status",
		Usage:     "Show plans grouped by state",
		UsageText: "qp status",
		Action:    cmd.run,
	})

	return app
}

func (cmd *StatusCmd) run(ctx context.Context, c *cli.Command) error {
	if err := requireRoot(cmd.app); err != nil {
		return err
	}

	metas, err := cmd.app.Plans.List(ctx)
	if err != nil {
		return fmt.Errorf("list plans: %w", err)
	}

	out := c.Root().Writer
	_, _ = fmt.Fprintf(out, "%s %s\n", styles.CommandHeaderStyle.Render("qp status"), styles.TextMutedStyle.Render(cmd.app.Root))

	if len(metas) == 0 {
		_, _ = fmt.Fprintln(out, "No plans.")
		return nil
	}

	byState := make(map[plan.State][]plan.Meta)
	for _, m := range metas {
		byState[m.State] = append(byState[m.State], m)
	}

	steps := cmd.app.Config.Steps()
	for _, state := range plan.States {
		group := byState[state]
		if len(group) == 0 {
			continue
		}

		_, _ = fmt.Fprintf(out, "\n%s (%d)\n", styles.State(state), len(group))
		for _, m := range group {
			done := 0
			for _, s := range steps {
				if m.StepDone(s) {
					done++
				}
			}
			_, _ = fmt.Fprintf(out, "  %s %s\n", m.Title,
				styles.TextMutedStyle.Render(fmt.Sprintf("%s  %d/%d steps", m.ID, done, len(steps))))
		}
	}

	return nil
}
