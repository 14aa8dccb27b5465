package qp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/qp/internal/core/agent"
	"github.com/colonyops/qp/internal/core/config"
	"github.com/colonyops/qp/internal/core/history"
	"github.com/colonyops/qp/internal/core/logging"
	"github.com/colonyops/qp/internal/core/plan"
	"github.com/colonyops/qp/internal/core/validate"
	"github.com/colonyops/qp/pkg/tmpl"
)

// ErrInvalidState is returned when a state cannot be set by hand.
var ErrInvalidState = errors.New("invalid plan state")

// InteractiveRunner starts an agent attached to the terminal.
type InteractiveRunner interface {
	RunInteractive(ctx context.Context, command string, args []string, initialPrompt string) (*agent.Session, error)
}

// Stats summarizes the stored plans.
type Stats struct {
	Total       int                `json:"total"`
	ByState     map[plan.State]int `json:"by_state"`
	Reviewed    int                `json:"reviewed"`
	TotalCycles int                `json:"total_cycles"`
}

// PlanService implements the plan lifecycle operations outside the pipeline.
type PlanService struct {
	store  plan.Store
	agent  InteractiveRunner
	config *config.Config
	root   string
	log    zerolog.Logger
	now    func() time.Time
}

// NewPlanService creates a new PlanService. root is the .qp directory passed
// to prompt templates.
func NewPlanService(store plan.Store, agent InteractiveRunner, cfg *config.Config, root string, log zerolog.Logger) *PlanService {
	return &PlanService{
		store:  store,
		agent:  agent,
		config: cfg,
		root:   root,
		log:    log,
		now:    time.Now,
	}
}

// List returns every plan, most recently updated first.
func (s *PlanService) List(ctx context.Context) ([]plan.Meta, error) {
	return s.store.List(ctx)
}

// Get resolves ref by id, slug, or title.
func (s *PlanService) Get(ctx context.Context, ref string) (plan.Plan, error) {
	return s.store.Get(ctx, ref)
}

// Path returns the document location of a plan.
func (s *PlanService) Path(id string) string {
	return s.store.DocumentPath(id)
}

// Create stores a new draft plan without starting an agent.
func (s *PlanService) Create(ctx context.Context, title string) (plan.Plan, error) {
	if err := validate.PlanTitle(title); err != nil {
		return plan.Plan{}, fmt.Errorf("invalid title: %w", err)
	}

	p, err := s.store.Create(ctx, title)
	if err != nil {
		return plan.Plan{}, fmt.Errorf("create plan: %w", err)
	}

	s.log.Info().Ctx(logging.WithPlanID(ctx, p.ID)).Str("title", p.Title).Msg("created plan")
	return p, nil
}

// New creates a draft plan and hands it to the interactive agent with the
// new-plan prompt. It returns once the agent exits. The plan is kept when the
// agent fails, and is returned together with the error.
func (s *PlanService) New(ctx context.Context, title string) (plan.Plan, error) {
	p, err := s.Create(ctx, title)
	if err != nil {
		return plan.Plan{}, err
	}

	if err := s.runInteractive(ctx, p, s.config.Agent.NewPrompt); err != nil {
		return p, err
	}

	return s.reload(ctx, p)
}

// Edit opens an existing plan in the interactive agent with the edit prompt
// and returns the plan as stored after the agent exits.
func (s *PlanService) Edit(ctx context.Context, ref string) (plan.Plan, error) {
	p, err := s.store.Get(ctx, ref)
	if err != nil {
		return plan.Plan{}, err
	}

	if err := s.runInteractive(ctx, p, s.config.Agent.EditPrompt); err != nil {
		return p, err
	}

	return s.reload(ctx, p)
}

// Approve marks a plan ready for optimization.
func (s *PlanService) Approve(ctx context.Context, ref string) (plan.Plan, error) {
	return s.SetState(ctx, ref, plan.StateApproved)
}

// SetState moves a plan to state. Optimizing is reserved for the pipeline.
func (s *PlanService) SetState(ctx context.Context, ref string, state plan.State) (plan.Plan, error) {
	if !state.IsValid() || state == plan.StateOptimizing {
		return plan.Plan{}, fmt.Errorf("%w: %q", ErrInvalidState, state)
	}

	p, err := s.store.Get(ctx, ref)
	if err != nil {
		return plan.Plan{}, err
	}

	prev := p.State
	p.State = state
	p.Touch(s.now())
	if err := s.store.Save(ctx, p); err != nil {
		return plan.Plan{}, fmt.Errorf("save plan: %w", err)
	}

	s.log.Info().
		Ctx(logging.WithPlanID(ctx, p.ID)).
		Str("from", prev.String()).
		Str("to", state.String()).
		Msg("plan state changed")

	return p, nil
}

// Delete removes a plan and its history.
func (s *PlanService) Delete(ctx context.Context, ref string) error {
	if err := s.store.Delete(ctx, ref); err != nil {
		return err
	}
	s.log.Info().Str("ref", ref).Msg("deleted plan")
	return nil
}

// History resolves ref and returns the plan with its snapshots in version order.
func (s *PlanService) History(ctx context.Context, ref string) (plan.Plan, []history.Snapshot, error) {
	p, err := s.store.Get(ctx, ref)
	if err != nil {
		return plan.Plan{}, nil, err
	}

	snaps, err := s.store.ListSnapshots(ctx, p.ID)
	if err != nil {
		return plan.Plan{}, nil, err
	}

	return p, snaps, nil
}

// Stats counts plans per state and review activity.
func (s *PlanService) Stats(ctx context.Context) (Stats, error) {
	metas, err := s.store.List(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		Total:   len(metas),
		ByState: make(map[plan.State]int, len(plan.States)),
	}
	for _, st := range plan.States {
		stats.ByState[st] = 0
	}

	for _, m := range metas {
		stats.ByState[m.State]++
		stats.TotalCycles += m.ReviewCycles
		if m.ReviewCycles > 0 {
			stats.Reviewed++
		}
	}

	return stats, nil
}

func (s *PlanService) runInteractive(ctx context.Context, p plan.Plan, promptTmpl string) error {
	var prompt string
	if promptTmpl != "" {
		rendered, err := tmpl.Render(promptTmpl, config.PromptData{
			ID:    p.ID,
			Title: p.Title,
			Path:  s.store.DocumentPath(p.ID),
			Root:  s.root,
			Steps: s.config.Steps(),
		})
		if err != nil {
			return fmt.Errorf("render prompt: %w", err)
		}
		prompt = rendered
	}

	ctx = logging.WithPlanID(ctx, p.ID)
	s.log.Debug().Ctx(ctx).Str("command", s.config.Agent.Command).Msg("starting interactive agent")

	session, err := s.agent.RunInteractive(ctx, s.config.Agent.Command, s.config.Agent.Args, prompt)
	if err != nil {
		return err
	}
	return session.Wait()
}

func (s *PlanService) reload(ctx context.Context, p plan.Plan) (plan.Plan, error) {
	fresh, err := s.store.Get(ctx, p.ID)
	if err != nil {
		return p, fmt.Errorf("reload plan: %w", err)
	}
	return fresh, nil
}
