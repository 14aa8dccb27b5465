package initcmd

import (
	"slices"
	"strings"

	"github.com/colonyops/qp/internal/core/config"
)

// Profile is a known agent CLI offered by the wizard.
type Profile struct {
	Name        string
	Command     string
	Description string
}

// CustomProfile is the profile name for a user supplied command.
const CustomProfile = "custom"

// Profiles lists the predefined agent profiles in display order.
var Profiles = []Profile{
	{Name: "cursor", Command: "agent", Description: "Cursor CLI (agent)"},
	{Name: "claude", Command: "claude", Description: "Claude CLI"},
	{Name: "aider", Command: "aider", Description: "Aider"},
}

// ProfileCommand returns the command of the named profile.
func ProfileCommand(name string) (string, bool) {
	for _, p := range Profiles {
		if p.Name == name {
			return p.Command, true
		}
	}
	return "", false
}

// Plugin is an optional review step with its own prompt.
type Plugin struct {
	Name   string
	Prompt string
}

// Plugins lists the optional review steps the wizard can enable.
var Plugins = []Plugin{
	{
		Name:   "risk-check",
		Prompt: "Identify risks, failure modes, and mitigation strategies for this plan. Output concrete mitigations.",
	},
	{
		Name:   "strict-deliverables",
		Prompt: "For each deliverable, define strict acceptance criteria: automated test or manual check, and a one-sentence definition of done.",
	},
	{
		Name:   "dependencies",
		Prompt: "List explicit dependencies between tasks and any external blockers. Output a dependency section for the plan.",
	},
}

func pluginPrompt(name string) (string, bool) {
	for _, p := range Plugins {
		if p.Name == name {
			return p.Prompt, true
		}
	}
	return "", false
}

// Answers holds the choices collected by the wizard.
type Answers struct {
	Command string
	// Args is split on whitespace.
	Args    string
	// Steps is a comma separated step list. Empty means the default steps.
	Steps   string
	Plugins []string
}

// BuildConfig turns wizard answers into the config written to disk. Plugin
// steps run after the chosen steps and carry their own prompts; built-in
// steps inherit theirs from the defaults.
func BuildConfig(a Answers) *config.Config {
	steps := ParseList(a.Steps)
	if len(steps) == 0 {
		steps = slices.Clone(config.DefaultSteps)
	}

	extra := map[string]config.ReviewAgent{}
	addPlugin := func(name string) {
		if prompt, ok := pluginPrompt(name); ok {
			extra[name] = config.ReviewAgent{Prompt: prompt}
		}
	}

	for _, s := range steps {
		addPlugin(s)
	}
	for _, name := range a.Plugins {
		if _, ok := pluginPrompt(name); !ok {
			continue
		}
		addPlugin(name)
		if !slices.Contains(steps, name) {
			steps = append(steps, name)
		}
	}
	if len(extra) == 0 {
		extra = nil
	}

	agent := config.Agent{
		Command: strings.TrimSpace(a.Command),
		Args:    strings.Fields(a.Args),
	}

	return config.Starter(agent, steps, extra)
}

// ParseList splits a comma separated list, dropping blanks.
func ParseList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
