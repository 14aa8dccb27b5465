package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/qp/internal/core/styles"
	"github.com/colonyops/qp/internal/qp"
)

type EditCmd struct {
	flags *Flags
	app   *qp.App
}

// NewEditCmd creates a new edit command
func NewEditCmd(flags *Flags, app *qp.App) *EditCmd {
	return &EditCmd{flags: flags, app: app}
}

// Register adds the edit command to the application
func (cmd *EditCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:          "edit",
		Usage:         "Open a plan in the agent",
		UsageText:     "qp edit PLAN",
		Description:   "Starts the configured agent attached to the terminal with the edit_prompt template.",
		ShellComplete: PlanRefCompleter(cmd.app),
		Action:        cmd.run,
	})

	return app
}

func (cmd *EditCmd) run(ctx context.Context, c *cli.Command) error {
	if err := requireRoot(cmd.app); err != nil {
		return err
	}

	ref, err := planArg(c)
	if err != nil {
		return err
	}

	p, err := cmd.app.Plans.Edit(ctx, ref)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(c.Root().Writer, "%s %s (%s)\n", styles.TextSuccessStyle.Render("Edited:"), p.Title, p.ID)
	return nil
}
