package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/qp/internal/core/plan"
	"github.com/colonyops/qp/internal/qp"
)

// PlanRefCompleter returns a ShellCompleteFunc that suggests plan slugs as
// positional completions. Set this as the ShellComplete field on any
// cli.Command that accepts a plan reference.
//
// When the user's last typed argument starts with "-", it falls back to the
// default flag completion behavior.
func PlanRefCompleter(app *qp.App) cli.ShellCompleteFunc {
	return func(ctx context.Context, cmd *cli.Command) {
		if args := cmd.Args(); args.Present() {
			last := args.Slice()[args.Len()-1]
			if len(last) > 0 && last[0] == '-' {
				cli.DefaultCompleteWithFlags(ctx, cmd)
				return
			}
		}

		if app.Plans == nil {
			return
		}

		metas, err := app.Plans.List(ctx)
		if err != nil {
			return
		}

		w := cmd.Root().Writer
		for _, m := range metas {
			if slug := plan.Slugify(m.Title); slug != "" {
				_, _ = fmt.Fprintln(w, slug)
				continue
			}
			_, _ = fmt.Fprintln(w, m.ID)
		}
	}
}
