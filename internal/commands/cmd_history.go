package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/qp/internal/core/history"
	"github.com/colonyops/qp/internal/qp"
	"github.com/colonyops/qp/pkg/iojson"
)

type HistoryCmd struct {
	flags *Flags
	app   *qp.App

	jsonOutput bool
}

// NewHistoryCmd creates a new history command
func NewHistoryCmd(flags *Flags, app *qp.App) *HistoryCmd {
	return &HistoryCmd{flags: flags, app: app}
}

// Register adds the history command to the application
func (cmd *HistoryCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "history",
		Usage:     "List the stored versions of a plan",
		UsageText: "qp history [--json] PLAN",
		Description: `Lists the snapshots written by optimization runs. Odd versions are taken
before a step runs and even versions after; a version with notes has a
review sidecar holding the agent commentary.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
		},
		ShellComplete: PlanRefCompleter(cmd.app),
		Action:        cmd.run,
	})

	return app
}

func (cmd *HistoryCmd) run(ctx context.Context, c *cli.Command) error {
	if err := requireRoot(cmd.app); err != nil {
		return err
	}

	ref, err := planArg(c)
	if err != nil {
		return err
	}

	p, snapshots, err := cmd.app.Plans.History(ctx, ref)
	if err != nil {
		return err
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		for _, s := range snapshots {
			if err := iojson.WriteLine(out, s); err != nil {
				return fmt.Errorf("encode snapshot: %w", err)
			}
		}
		return nil
	}

	if len(snapshots) == 0 {
		fmt.Fprintf(os.Stderr, "No versions stored for %s. Run: qp optimize %s\n", p.Title, p.ID)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "VERSION\tCREATED\tNOTES\tPATH")
	for _, s := range snapshots {
		_, _ = fmt.Fprintf(w, "v%d\t%s\t%s\t%s\n", s.Version, formatTime(s.CreatedAt), notesMark(s), s.Path)
	}
	return w.Flush()
}

func notesMark(s history.Snapshot) string {
	if s.HasNotes() {
		return "yes"
	}
	return "-"
}
