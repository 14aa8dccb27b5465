package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/qp/internal/core/styles"
	"github.com/colonyops/qp/internal/qp"
	"github.com/colonyops/qp/pkg/iojson"
)

type ListCmd struct {
	flags *Flags
	app   *qp.App

	// flags
	jsonOutput bool
}

// NewListCmd creates a new list command
func NewListCmd(flags *Flags, app *qp.App) *ListCmd {
	return &ListCmd{flags: flags, app: app}
}

// Flags returns the list flags so they can be registered on the root command,
// which runs list when no subcommand is given.
func (cmd *ListCmd) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "output as JSON lines",
			Local:       true,
			Destination: &cmd.jsonOutput,
		},
	}
}

// Register adds the list command to the application
func (cmd *ListCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "List plans",
		UsageText: "qp list [--json]",
		Description: `Displays all plans, most recently updated first.

Use --json for one JSON object per line with the full plan metadata.`,
		Flags:  cmd.Flags(),
		Action: cmd.Run,
	})

	return app
}

// Run lists plans.
func (cmd *ListCmd) Run(ctx context.Context, c *cli.Command) error {
	if err := requireRoot(cmd.app); err != nil {
		return err
	}

	metas, err := cmd.app.Plans.List(ctx)
	if err != nil {
		return fmt.Errorf("list plans: %w", err)
	}

	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, m := range metas {
			if err := iojson.WriteLine(out, m); err != nil {
				return fmt.Errorf("encode plan: %w", err)
			}
		}
		return nil
	}

	if len(metas) == 0 {
		fmt.Fprintf(os.Stderr, "No plans. Create one with: qp new [name]\n")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTATE\tCYCLES\tUPDATED\tTITLE")
	for _, m := range metas {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			m.ID, styles.State(m.State), m.ReviewCycles, formatTime(m.Updated()), m.Title)
	}

	return w.Flush()
}
