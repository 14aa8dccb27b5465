package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/qp/internal/core/styles"
	"github.com/colonyops/qp/internal/qp"
	"github.com/colonyops/qp/internal/store/planfs"
)

type OptimizeCmd struct {
	flags *Flags
	app   *qp.App

	step    string
	force   bool
	timeout time.Duration
}

// NewOptimizeCmd creates a new optimize command
func NewOptimizeCmd(flags *Flags, app *qp.App) *OptimizeCmd {
	return &OptimizeCmd{flags: flags, app: app}
}

// Register adds the optimize command to the application
func (cmd *OptimizeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "optimize",
		Aliases:   []string{"opt"},
		Usage:     "Run the review pipeline over a plan",
		UsageText: "qp optimize [options] PLAN",
		Description: `Runs each configured optimization step through its review agent. Every step
stores a version before and after the agent call and folds the agent output back
into the plan.

Steps already done are skipped unless --force is given, so an interrupted run
resumes where it stopped. Use --step to run a single step.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "step",
				Aliases:     []string{"s"},
				Usage:       "run only this step",
				Destination: &cmd.step,
			},
			&cli.BoolFlag{
				Name:        "force",
				Aliases:     []string{"f"},
				Usage:       "re-run steps that are already done",
				Destination: &cmd.force,
			},
			&cli.DurationFlag{
				Name:        "timeout",
				Usage:       "abort the run after this long (e.g. 10m)",
				Destination: &cmd.timeout,
			},
		},
		ShellComplete: PlanRefCompleter(cmd.app),
		Action:        cmd.run,
	})

	return app
}

func (cmd *OptimizeCmd) run(ctx context.Context, c *cli.Command) error {
	if err := requireRoot(cmd.app); err != nil {
		return err
	}

	ref, err := planArg(c)
	if err != nil {
		return err
	}

	if cmd.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.timeout)
		defer cancel()
	}

	var results []qp.StepResult
	if cmd.step != "" {
		var res qp.StepResult
		res, err = cmd.app.Optimizer.RunStep(ctx, ref, cmd.step)
		if err == nil {
			results = append(results, res)
		}
	} else {
		results, err = cmd.app.Optimizer.RunAllSteps(ctx, ref, cmd.force)
	}

	out := c.Root().Writer
	for _, res := range results {
		_, _ = fmt.Fprintf(out, "%s %-20s %-9s v%d -> v%d  %s\n",
			styles.TextSuccessStyle.Render("✔"),
			res.Step,
			res.Outcome,
			res.Before,
			res.After,
			styles.TextMutedStyle.Render(res.Elapsed.Round(time.Millisecond).String()),
		)
	}

	if err != nil {
		if errors.Is(err, planfs.ErrLocked) {
			return fmt.Errorf("another optimization is running for %s: %w", ref, err)
		}
		return err
	}

	if len(results) == 0 {
		_, _ = fmt.Fprintln(out, styles.TextMutedStyle.Render("All steps already done. Use --force to re-run."))
		return nil
	}

	last := results[len(results)-1].Plan
	_, _ = fmt.Fprintf(out, "Ran %d optimization step(s). %s is %s.\n", len(results), last.Title, styles.State(last.State))
	return nil
}
