package config

import (
	"fmt"
	"maps"
	"slices"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/qp/internal/core/validate"
	"github.com/colonyops/qp/pkg/tmpl"
)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// Validate checks the structure of the configuration. Steps without a review
// agent are reported by Warnings; the pipeline fails on them with
// ErrUnknownStep when they are run.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		validate.RequiredField("agent.command", c.Agent.Command),
		c.validateSteps(),
		c.validateReviewAgents(),
		c.validatePromptTemplates(),
	)
}

func (c *Config) validateSteps() error {
	var (
		errs     criterio.FieldErrorsBuilder
		nameErrs []error
	)

	if len(c.Optimization.Steps) == 0 {
		errs = errs.Append("optimization.steps", fmt.Errorf("at least one step is required"))
	}

	seen := make(map[string]bool, len(c.Optimization.Steps))
	for i, step := range c.Optimization.Steps {
		field := fmt.Sprintf("optimization.steps[%d]", i)
		if err := validate.StepNameField(field, step); err != nil {
			nameErrs = append(nameErrs, err)
			continue
		}
		if seen[step] {
			errs = errs.Append(field, fmt.Errorf("duplicate step %q", step))
		}
		seen[step] = true
	}

	return criterio.ValidateStruct(append(nameErrs, errs.ToError())...)
}

func (c *Config) validateReviewAgents() error {
	var errs []error

	for _, name := range slices.Sorted(maps.Keys(c.ReviewAgents)) {
		field := fmt.Sprintf("review_agents[%q]", name)
		errs = append(errs,
			validate.StepNameField(field, name),
			validate.RequiredField(field+".prompt", c.ReviewAgents[name].Prompt),
		)
	}

	return criterio.ValidateStruct(errs...)
}

// validatePromptTemplates renders the interactive prompts with sample data so
// syntax errors and unknown fields surface at load time.
func (c *Config) validatePromptTemplates() error {
	var errs criterio.FieldErrorsBuilder

	sample := PromptData{
		ID:    "00000000-0000-0000-0000-000000000000",
		Title: "Sample Plan",
		Path:  "/tmp/.qp/plans/sample/plan.md",
		Root:  "/tmp/.qp",
		Steps: c.Optimization.Steps,
	}

	for field, text := range map[string]string{
		"agent.new_prompt":  c.Agent.NewPrompt,
		"agent.edit_prompt": c.Agent.EditPrompt,
	} {
		if text == "" {
			continue
		}
		if _, err := tmpl.Render(text, sample); err != nil {
			errs = errs.Append(field, fmt.Errorf("template error: %w", err))
		}
	}

	return errs.ToError()
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	for _, step := range c.Optimization.Steps {
		if _, ok := c.ReviewAgents[step]; !ok {
			warnings = append(warnings, ValidationWarning{
				Category: "Steps",
				Item:     step,
				Message:  "step has no review agent; optimize will fail when it is reached",
			})
		}
	}

	for _, name := range slices.Sorted(maps.Keys(c.ReviewAgents)) {
		if !slices.Contains(c.Optimization.Steps, name) {
			warnings = append(warnings, ValidationWarning{
				Category: "Review Agents",
				Item:     name,
				Message:  "review agent is not part of optimization.steps; run it with optimize --step",
			})
		}
	}

	for _, key := range c.undecoded {
		warnings = append(warnings, ValidationWarning{
			Category: "Unknown Keys",
			Item:     key,
			Message:  "key is not recognized and was ignored",
		})
	}

	return warnings
}
