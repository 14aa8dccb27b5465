package logging

import "context"

type contextKey string

const (
	planIDKey contextKey = "plan_id"
	stepKey   contextKey = "step"
)

// WithPlanID adds a plan ID to the context.
func WithPlanID(ctx context.Context, planID string) context.Context {
	return context.WithValue(ctx, planIDKey, planID)
}

// WithStep adds an optimization step name to the context.
func WithStep(ctx context.Context, step string) context.Context {
	return context.WithValue(ctx, stepKey, step)
}

// GetPlanID retrieves the plan ID from the context.
// Returns empty string if not present.
func GetPlanID(ctx context.Context) string {
	if id, ok := ctx.Value(planIDKey).(string); ok {
		return id
	}
	return ""
}

// GetStep retrieves the step name from the context.
// Returns empty string if not present.
func GetStep(ctx context.Context) string {
	if step, ok := ctx.Value(stepKey).(string); ok {
		return step
	}
	return ""
}
