package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/qp/internal/core/plan"
	"github.com/colonyops/qp/internal/core/styles"
	"github.com/colonyops/qp/internal/qp"
	"github.com/colonyops/qp/pkg/iojson"
)

type StatsCmd struct {
	flags *Flags
	app   *qp.App

	jsonOutput bool
}

// NewStatsCmd creates a new stats command
func NewStatsCmd(flags *Flags, app *qp.App) *StatsCmd {
	return &StatsCmd{flags: flags, app: app}
}

// Register adds the stats command to the application
func (cmd *StatsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "stats",
		Usage:     "Show plan counts and review totals",
		UsageText: "qp stats [--json]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *StatsCmd) run(ctx context.Context, c *cli.Command) error {
	if err := requireRoot(cmd.app); err != nil {
		return err
	}

	stats, err := cmd.app.Plans.Stats(ctx)
	if err != nil {
		return err
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		return iojson.WriteWith(out, os.Stderr, stats)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "%s\t%d\n", styles.TextForegroundBoldStyle.Render("plans"), stats.Total)
	for _, state := range plan.States {
		_, _ = fmt.Fprintf(w, "  %s\t%d\n", styles.State(state), stats.ByState[state])
	}
	_, _ = fmt.Fprintf(w, "%s\t%d\n", styles.TextForegroundBoldStyle.Render("reviewed"), stats.Reviewed)
	_, _ = fmt.Fprintf(w, "%s\t%d\n", styles.TextForegroundBoldStyle.Render("review cycles"), stats.TotalCycles)
	return w.Flush()
}
