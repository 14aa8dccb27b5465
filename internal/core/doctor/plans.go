package doctor

import (
	"context"
	"errors"
	"fmt"

	"github.com/colonyops/qp/internal/core/plan"
)

// PlanSource is the view of plan storage the plans check needs.
type PlanSource interface {
	Inspect(ctx context.Context) ([]plan.Inspection, error)
	Get(ctx context.Context, ref string) (plan.Plan, error)
	Save(ctx context.Context, p plan.Plan) error
	LockOptimize(id string) (release func(), err error)
}

// PlansCheck loads every stored plan and reports unreadable documents, id
// mismatches, and plans left in the optimizing state by an interrupted run.
type PlansCheck struct {
	source  PlanSource
	autofix bool
}

// NewPlansCheck creates a plans check. With autofix, plans stuck in the
// optimizing state are reset to approved.
func NewPlansCheck(source PlanSource, autofix bool) *PlansCheck {
	return &PlansCheck{source: source, autofix: autofix}
}

func (c *PlansCheck) Name() string {
	return "Plans"
}

func (c *PlansCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	inspections, err := c.source.Inspect(ctx)
	if err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "plans",
			Status: StatusFail,
			Detail: fmt.Sprintf("failed to read plans: %v", err),
		})
		return result
	}

	if len(inspections) == 0 {
		result.Items = append(result.Items, CheckItem{
			Label:  "plans",
			Status: StatusPass,
			Detail: "no plans",
		})
		return result
	}

	healthy := 0
	for _, in := range inspections {
		switch {
		case errors.Is(in.Err, plan.ErrNotFound):
			result.Items = append(result.Items, CheckItem{
				Label:  in.ID,
				Status: StatusWarn,
				Detail: "plan directory has no plan.md",
			})
		case errors.Is(in.Err, plan.ErrIDMismatch):
			result.Items = append(result.Items, CheckItem{
				Label:  in.ID,
				Status: StatusWarn,
				Detail: fmt.Sprintf("frontmatter id %q does not match directory", in.Meta.ID),
			})
		case in.Err != nil:
			result.Items = append(result.Items, CheckItem{
				Label:  in.ID,
				Status: StatusFail,
				Detail: in.Err.Error(),
			})
		case in.Meta.State == plan.StateOptimizing:
			result.Items = append(result.Items, c.checkOptimizing(ctx, in))
		default:
			healthy++
		}
	}

	if healthy > 0 {
		result.Items = append(result.Items, CheckItem{
			Label:  "plans",
			Status: StatusPass,
			Detail: fmt.Sprintf("%d healthy", healthy),
		})
	}

	return result
}

// checkOptimizing distinguishes a running optimization from one that was
// interrupted. The run lock is held for the duration of a real run.
func (c *PlansCheck) checkOptimizing(ctx context.Context, in plan.Inspection) CheckItem {
	release, err := c.source.LockOptimize(in.ID)
	if err != nil {
		return CheckItem{
			Label:  in.ID,
			Status: StatusPass,
			Detail: "optimization in progress",
		}
	}
	defer release()

	if !c.autofix {
		return CheckItem{
			Label:   in.ID,
			Status:  StatusWarn,
			Detail:  "stuck in optimizing state",
			Fixable: true,
		}
	}

	p, err := c.source.Get(ctx, in.ID)
	if err == nil {
		p.State = plan.StateApproved
		err = c.source.Save(ctx, p)
	}
	if err != nil {
		return CheckItem{
			Label:   in.ID,
			Status:  StatusFail,
			Detail:  fmt.Sprintf("failed to reset state: %v", err),
			Fixable: true,
		}
	}

	return CheckItem{
		Label:  in.ID,
		Status: StatusPass,
		Detail: "reset from optimizing to approved",
	}
}
