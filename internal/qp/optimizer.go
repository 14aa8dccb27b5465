package qp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/qp/internal/core/config"
	"github.com/colonyops/qp/internal/core/logging"
	"github.com/colonyops/qp/internal/core/plan"
	"github.com/colonyops/qp/internal/core/reconcile"
)

// OneShotRunner runs an agent with the plan on stdin and returns its stdout.
type OneShotRunner interface {
	RunOneShot(ctx context.Context, command string, args []string, prompt, planContent string) (string, error)
}

// optimizeLocker is implemented by stores that can guard a plan against
// concurrent optimization runs.
type optimizeLocker interface {
	LockOptimize(id string) (release func(), err error)
}

// StepResult describes one optimization step that ran to completion.
type StepResult struct {
	Step    string
	Plan    plan.Plan
	Outcome reconcile.Outcome
	// Before and After are the snapshot versions written around the agent call.
	Before  int
	After   int
	Elapsed time.Duration
}

// Optimizer runs the review pipeline over plans.
type Optimizer struct {
	store  plan.Store
	agent  OneShotRunner
	config *config.Config
	log    zerolog.Logger
	now    func() time.Time
}

// NewOptimizer creates a new Optimizer.
func NewOptimizer(store plan.Store, agent OneShotRunner, cfg *config.Config, log zerolog.Logger) *Optimizer {
	return &Optimizer{
		store:  store,
		agent:  agent,
		config: cfg,
		log:    log,
		now:    time.Now,
	}
}

// RunStep resolves ref and runs a single named step on it, whether or not
// the step is part of the configured pipeline or already done.
func (o *Optimizer) RunStep(ctx context.Context, ref, step string) (StepResult, error) {
	p, err := o.store.Get(ctx, ref)
	if err != nil {
		return StepResult{}, err
	}

	release, err := o.lock(p.ID)
	if err != nil {
		return StepResult{}, err
	}
	defer release()

	return o.runStep(ctx, p.ID, step)
}

// RunAllSteps runs every configured step in order, skipping steps that are
// already done unless force is set. It stops at the first failure and returns
// the results of the steps that completed before it.
func (o *Optimizer) RunAllSteps(ctx context.Context, ref string, force bool) ([]StepResult, error) {
	p, err := o.store.Get(ctx, ref)
	if err != nil {
		return nil, err
	}

	release, err := o.lock(p.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	steps := o.config.Steps()
	if err := o.store.EnsureReviewSteps(ctx, p.ID, steps); err != nil {
		return nil, fmt.Errorf("ensure review steps: %w", err)
	}

	ctx = logging.WithPlanID(ctx, p.ID)
	results := make([]StepResult, 0, len(steps))

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		current, err := o.store.Get(ctx, p.ID)
		if err != nil {
			return results, err
		}

		if current.StepDone(step) && !force {
			o.log.Debug().Ctx(logging.WithStep(ctx, step)).Msg("step already done, skipping")
			continue
		}

		res, err := o.runStep(ctx, p.ID, step)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}

	return results, nil
}

// runStep executes one step against the stored plan id. The caller holds the
// optimize lock.
//
// Snapshot versions derive from review_cycles c: the pre-step snapshot is
// 2c+1 and the post-step snapshot 2c+2, so every completed step claims two
// fresh versions. A failed step leaves its pre-step snapshot, which a retry
// overwrites.
func (o *Optimizer) runStep(ctx context.Context, id, step string) (StepResult, error) {
	ctx = logging.WithStep(logging.WithPlanID(ctx, id), step)
	start := o.now()

	ra, err := o.config.ReviewAgent(step)
	if err != nil {
		return StepResult{}, err
	}

	p, err := o.store.Get(ctx, id)
	if err != nil {
		return StepResult{}, err
	}

	p.State = plan.StateOptimizing
	p.Touch(o.now())
	if err := o.store.Save(ctx, p); err != nil {
		return StepResult{}, fmt.Errorf("mark optimizing: %w", err)
	}

	before := 2*p.ReviewCycles + 1
	content, err := plan.Serialize(p)
	if err != nil {
		return StepResult{}, err
	}
	if _, err := o.store.SaveVersionSnapshot(ctx, id, before, content, ""); err != nil {
		return StepResult{}, fmt.Errorf("pre-step snapshot: %w", err)
	}

	o.log.Info().
		Ctx(ctx).
		Str("command", ra.Command).
		Int("version", before).
		Msg("running review step")

	output, err := o.agent.RunOneShot(ctx, ra.Command, ra.Args, ra.Prompt, content)
	if err != nil {
		o.recordFailure(ctx, id, step, err)
		return StepResult{}, fmt.Errorf("step %s: %w", step, err)
	}

	res := reconcile.Reconcile(output, p, reconcile.Label(step))
	p.Body = res.Body
	p.Touch(o.now())
	if err := o.store.Save(ctx, p); err != nil {
		return StepResult{}, fmt.Errorf("save reviewed plan: %w", err)
	}

	after := before + 1
	content, err = plan.Serialize(p)
	if err != nil {
		return StepResult{}, err
	}
	if _, err := o.store.SaveVersionSnapshot(ctx, id, after, content, res.Notes); err != nil {
		return StepResult{}, fmt.Errorf("post-step snapshot: %w", err)
	}

	if err := o.store.RecordReviewStep(ctx, id, step, plan.StepDone); err != nil {
		return StepResult{}, fmt.Errorf("record step: %w", err)
	}

	p, err = o.store.Get(ctx, id)
	if err != nil {
		return StepResult{}, err
	}

	if p.AllStepsDone(o.config.Steps()) {
		p.State = plan.StateReady
	} else {
		p.State = plan.StateApproved
	}
	p.Touch(o.now())
	if err := o.store.Save(ctx, p); err != nil {
		return StepResult{}, fmt.Errorf("update state: %w", err)
	}

	elapsed := o.now().Sub(start)
	o.log.Info().
		Ctx(ctx).
		Str("outcome", string(res.Outcome)).
		Str("state", p.State.String()).
		Int("review_cycles", p.ReviewCycles).
		Dur("elapsed", elapsed).
		Msg("review step complete")

	return StepResult{
		Step:    step,
		Plan:    p,
		Outcome: res.Outcome,
		Before:  before,
		After:   after,
		Elapsed: elapsed,
	}, nil
}

// recordFailure marks step as failed. The plan state is left as optimizing.
// It runs even when ctx is cancelled, since a timeout is the usual cause.
func (o *Optimizer) recordFailure(ctx context.Context, id, step string, cause error) {
	o.log.Error().Ctx(ctx).Err(cause).Msg("review step failed")

	err := o.store.RecordReviewStep(context.WithoutCancel(ctx), id, step, plan.StepFailed)
	if err != nil && !errors.Is(err, plan.ErrNotFound) {
		o.log.Warn().Ctx(ctx).Err(err).Msg("failed to record step failure")
	}
}

func (o *Optimizer) lock(id string) (func(), error) {
	l, ok := o.store.(optimizeLocker)
	if !ok {
		return func() {}, nil
	}

	release, err := l.LockOptimize(id)
	if err != nil {
		return nil, fmt.Errorf("lock plan %s: %w", id, err)
	}
	return release, nil
}
