package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/qp/internal/core/plan"
	"github.com/colonyops/qp/internal/core/styles"
	"github.com/colonyops/qp/internal/qp"
)

type StateCmd struct {
	flags *Flags
	app   *qp.App
}

// NewStateCmd creates a new state command
func NewStateCmd(flags *Flags, app *qp.App) *StateCmd {
	return &StateCmd{flags: flags, app: app}
}

// Register adds the state command to the application
func (cmd *StateCmd) Register(app *cli.Command) *cli.Command {
	states := make([]string, 0, len(plan.States))
	for _, s := range plan.States {
		if s != plan.StateOptimizing {
			states = append(states, s.String())
		}
	}

	app.Commands = append(app.Commands, &cli.Command{
		Name:      "state",
		Usage:     "Set the state of a plan",
		UsageText: "qp state PLAN STATE",
		Description: fmt.Sprintf(`Moves a plan to STATE, one of: %s.

The optimizing state is managed by 'qp optimize' and cannot be set by hand.`, strings.Join(states, ", ")),
		ShellComplete: PlanRefCompleter(cmd.app),
		Action:        cmd.run,
	})

	return app
}

func (cmd *StateCmd) run(ctx context.Context, c *cli.Command) error {
	if err := requireRoot(cmd.app); err != nil {
		return err
	}

	ref, err := planArg(c)
	if err != nil {
		return err
	}

	state := plan.State(strings.ToLower(c.Args().Get(1)))
	if state == "" {
		return fmt.Errorf("missing STATE argument")
	}

	p, err := cmd.app.Plans.SetState(ctx, ref, state)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(c.Root().Writer, "%s %s\n", p.Title, styles.State(p.State))
	return nil
}
