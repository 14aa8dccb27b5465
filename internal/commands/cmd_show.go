package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/qp/internal/core/plan"
	"github.com/colonyops/qp/internal/core/styles"
	"github.com/colonyops/qp/internal/qp"
	"github.com/colonyops/qp/pkg/iojson"
)

type ShowCmd struct {
	flags *Flags
	app   *qp.App

	render     bool
	jsonOutput bool
}

// NewShowCmd creates a new show command
func NewShowCmd(flags *Flags, app *qp.App) *ShowCmd {
	return &ShowCmd{flags: flags, app: app}
}

// Register adds the show command to the application
func (cmd *ShowCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "show",
		Usage:     "Print a plan",
		UsageText: "qp show [--render | --json] PLAN",
		Description: `Prints the plan document. PLAN is an id, a title slug, or the exact title.

--render formats the body as markdown for the terminal.
--json prints metadata and body as a JSON object.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "render",
				Aliases:     []string{"r"},
				Usage:       "render the body as terminal markdown",
				Destination: &cmd.render,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON",
				Destination: &cmd.jsonOutput,
			},
		},
		ShellComplete: PlanRefCompleter(cmd.app),
		Action:        cmd.run,
	})

	return app
}

func (cmd *ShowCmd) run(ctx context.Context, c *cli.Command) error {
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

	switch {
	case cmd.jsonOutput:
		return iojson.WriteWith(out, os.Stderr, p)
	case cmd.render:
		return cmd.renderMarkdown(c, p)
	default:
		doc, err := plan.Serialize(p)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(out, doc)
		return err
	}
}

func (cmd *ShowCmd) renderMarkdown(c *cli.Command, p plan.Plan) error {
	width := 100
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 && w < width {
		width = w
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(styles.GlamourStyle()),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}

	body, err := r.Render(p.Body)
	if err != nil {
		return fmt.Errorf("render plan: %w", err)
	}

	out := c.Root().Writer
	_, _ = fmt.Fprintf(out, "%s  %s  %s\n",
		styles.TextPrimaryBoldStyle.Render(p.Title),
		styles.State(p.State),
		styles.TextMutedStyle.Render(fmt.Sprintf("%d review cycle(s)", p.ReviewCycles)),
	)
	_, err = fmt.Fprint(out, body)
	return err
}
