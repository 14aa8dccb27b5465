package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/qp/internal/core/styles"
	"github.com/colonyops/qp/internal/qp"
)

type ApproveCmd struct {
	flags *Flags
	app   *qp.App
}

// NewApproveCmd creates a new approve command
func NewApproveCmd(flags *Flags, app *qp.App) *ApproveCmd {
	return &ApproveCmd{flags: flags, app: app}
}

// Register adds the approve command to the application
func (cmd *ApproveCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:          "approve",
		Usage:         "Mark a plan as approved and ready for optimization",
		UsageText:     "qp approve PLAN",
		ShellComplete: PlanRefCompleter(cmd.app),
		Action:        cmd.run,
	})

	return app
}

func (cmd *ApproveCmd) run(ctx context.Context, c *cli.Command) error {
	if err := requireRoot(cmd.app); err != nil {
		return err
	}

	ref, err := planArg(c)
	if err != nil {
		return err
	}

	p, err := cmd.app.Plans.Approve(ctx, ref)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(c.Root().Writer, "%s %s (%s)\n", styles.TextSuccessStyle.Render("Approved:"), p.Title, p.ID)
	return nil
}
