package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/qp/internal/core/plan"
	"github.com/colonyops/qp/internal/core/styles"
	"github.com/colonyops/qp/internal/core/validate"
	"github.com/colonyops/qp/internal/qp"
)

type NewCmd struct {
	flags *Flags
	app   *qp.App

	// Command-specific flags
	noAgent bool
}

// NewNewCmd creates a new new command
func NewNewCmd(flags *Flags, app *qp.App) *NewCmd {
	return &NewCmd{flags: flags, app: app}
}

// Register adds the new command to the application
func (cmd *NewCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "new",
		Usage:     "Create a new plan and open it in the agent",
		UsageText: "qp new [options] [NAME]",
		Description: `Creates a draft plan and starts the configured agent attached to the
terminal with the new_prompt template, so the agent can write the plan.

When NAME is omitted on a terminal, a form prompts for the title.
Use --no-agent to only create the plan document.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "no-agent",
				Usage:       "create the plan without starting the agent",
				Destination: &cmd.noAgent,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *NewCmd) run(ctx context.Context, c *cli.Command) error {
	if err := requireRoot(cmd.app); err != nil {
		return err
	}

	title := c.Args().First()
	if title == "" && isTerminal(os.Stdin) {
		if err := cmd.runForm(&title); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return fmt.Errorf("form: %w", err)
		}
	}

	out := c.Root().Writer

	if cmd.noAgent {
		p, err := cmd.app.Plans.Create(ctx, title)
		if err != nil {
			return err
		}
		cmd.printCreated(c, p)
		return nil
	}

	agentCfg := cmd.app.Config.Agent
	_, _ = fmt.Fprintf(out, "Starting agent: %s\n", styles.TextMutedStyle.Render(agentCfg.Command))

	p, err := cmd.app.Plans.New(ctx, title)
	if p.ID != "" {
		cmd.printCreated(c, p)
	}
	if err != nil {
		return err
	}

	return nil
}

func (cmd *NewCmd) printCreated(c *cli.Command, p plan.Plan) {
	out := c.Root().Writer
	_, _ = fmt.Fprintf(out, "%s %s (%s)\n", styles.TextSuccessStyle.Render("Created plan:"), p.Title, p.ID)
	_, _ = fmt.Fprintf(out, "  %s\n", styles.TextMutedStyle.Render(cmd.app.Plans.Path(p.ID)))
}

func (cmd *NewCmd) runForm(title *string) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Plan title").
				Description("Leave blank for \"" + plan.DefaultTitle + "\"").
				Validate(validate.PlanTitle).
				Value(title),
		),
	).Run()
}
