package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/qp/internal/core/plan"
	"github.com/colonyops/qp/internal/core/styles"
	"github.com/colonyops/qp/internal/qp"
)

type ReviewCmd struct {
	flags *Flags
	app   *qp.App
}

// NewReviewCmd creates a new review command
func NewReviewCmd(flags *Flags, app *qp.App) *ReviewCmd {
	return &ReviewCmd{flags: flags, app: app}
}

// Register adds the review command to the application
func (cmd *ReviewCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:          "review",
		Usage:         "Show the review progress of a plan",
		UsageText:     "qp review PLAN",
		Description:   "Lists every configured step with its status and where the stored versions live.",
		ShellComplete: PlanRefCompleter(cmd.app),
		Action:        cmd.run,
	})

	return app
}

func (cmd *ReviewCmd) run(ctx context.Context, c *cli.Command) error {
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

	out := c.Root().Writer
	_, _ = fmt.Fprintf(out, "%s  %s  %s\n\n",
		styles.CommandHeaderStyle.Render(p.Title),
		styles.State(p.State),
		styles.TextMutedStyle.Render(fmt.Sprintf("%d review cycle(s)", p.ReviewCycles)),
	)

	// Configured steps first, then any recorded step no longer configured.
	steps := cmd.app.Config.Steps()
	seen := make(map[string]bool, len(steps))
	for _, s := range steps {
		seen[s] = true
	}
	for _, rs := range p.ReviewSteps {
		if !seen[rs.Step] {
			steps = append(steps, rs.Step)
		}
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STEP\tSTATUS\tCOMPLETED")
	for _, name := range steps {
		status := plan.StepPending
		completed := "-"
		if rs, ok := p.Step(name); ok {
			status = rs.Status
			if rs.CompletedAt != "" {
				completed = formatTime(plan.Meta{UpdatedAt: rs.CompletedAt}.Updated())
			}
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", name, styles.StepStatus(status), completed)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "\n%s %s\n", styles.TextMutedStyle.Render("History:"), cmd.app.Store.HistoryDir(p.ID))
	return nil
}
