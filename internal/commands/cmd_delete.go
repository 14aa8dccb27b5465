package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/qp/internal/core/styles"
	"github.com/colonyops/qp/internal/qp"
)

type DeleteCmd struct {
	flags *Flags
	app   *qp.App

	yes bool
}

// NewDeleteCmd creates a new delete command
func NewDeleteCmd(flags *Flags, app *qp.App) *DeleteCmd {
	return &DeleteCmd{flags: flags, app: app}
}

// Register adds the delete command to the application
func (cmd *DeleteCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "delete",
		Aliases:     []string{"rm"},
		Usage:       "Delete a plan and its history",
		UsageText:   "qp delete [--yes] PLAN",
		Description: "Removes the plan document and every stored version. Asks for confirmation unless --yes is given.",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "yes",
				Aliases:     []string{"y"},
				Usage:       "skip confirmation",
				Destination: &cmd.yes,
			},
		},
		ShellComplete: PlanRefCompleter(cmd.app),
		Action:        cmd.run,
	})

	return app
}

func (cmd *DeleteCmd) run(ctx context.Context, c *cli.Command) error {
	if err := requireRoot(cmd.app); err != nil {
		return err
	}

	ref, err := planArg(c)
	if err != nil {
		return err
	}

	p, err := cmd.app.Plans.Get(ctx, ref)
	if err != nil {
		return err
	}

	if !cmd.yes {
		if !isTerminal(os.Stdin) {
			return fmt.Errorf("refusing to delete %q without confirmation (use --yes)", p.Title)
		}

		confirmed := false
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Delete %q and all of its history?", p.Title)).
					Affirmative("Delete").
					Negative("Cancel").
					Value(&confirmed),
			),
		).Run()
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return fmt.Errorf("confirm: %w", err)
		}
		if !confirmed {
			return nil
		}
	}

	if err := cmd.app.Plans.Delete(ctx, p.ID); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(c.Root().Writer, "%s %s (%s)\n", styles.TextErrorStyle.Render("Deleted:"), p.Title, p.ID)
	return nil
}
