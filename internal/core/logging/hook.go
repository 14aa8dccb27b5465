package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook extracts plan_id and step from context and adds them to log events.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == context.Background() || ctx == nil {
		return
	}

	if planID := GetPlanID(ctx); planID != "" {
		e.Str("plan_id", planID)
	}

	if step := GetStep(ctx); step != "" {
		e.Str("step", step)
	}
}
