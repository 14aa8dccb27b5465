// Package config handles configuration loading and validation for qp.
package config

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the name of the config file in the global config directory
// and in a .qp root.
const FileName = "config.toml"

// DefaultAgentCommand is the agent binary used when none is configured.
const DefaultAgentCommand = "claude"

// DefaultSteps is the optimization pipeline used when none is configured.
var DefaultSteps = []string{"holes", "details", "breakdown", "deliverables"}

// ErrUnknownStep is returned when a step has no review agent.
var ErrUnknownStep = errors.New("unknown optimization step")

// Config holds the application configuration.
type Config struct {
	Agent        Agent                  `toml:"agent"`
	ReviewAgents map[string]ReviewAgent `toml:"review_agents,omitempty"`
	Optimization Optimization           `toml:"optimization"`

	// undecoded collects keys the loaded files defined that qp does not know.
	undecoded []string
}

// Agent is the interactive agent used by new and edit.
type Agent struct {
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
	// NewPrompt and EditPrompt are text/template strings rendered with PromptData.
	NewPrompt  string `toml:"new_prompt,omitempty"`
	EditPrompt string `toml:"edit_prompt,omitempty"`
}

// ReviewAgent is the agent invocation bound to one optimization step.
// A blank Command, or nil Args, is inherited from Agent.
type ReviewAgent struct {
	Command string   `toml:"command,omitempty"`
	Args    []string `toml:"args,omitempty"`
	Prompt  string   `toml:"prompt"`
}

// Optimization configures the review pipeline.
type Optimization struct {
	Steps []string `toml:"steps"`
}

// PromptData defines the fields available to new_prompt and edit_prompt.
type PromptData struct {
	ID    string   // Plan id
	Title string   // Plan title
	Path  string   // Absolute path to the plan document
	Root  string   // The .qp root directory
	Steps []string // Configured optimization steps
}

// Default returns a Config with the built-in agent, steps and review prompts.
func Default() *Config {
	return &Config{
		Agent: Agent{
			Command:    DefaultAgentCommand,
			Args:       []string{},
			NewPrompt:  DefaultNewPrompt,
			EditPrompt: DefaultEditPrompt,
		},
		ReviewAgents: defaultReviewAgents(),
		Optimization: Optimization{Steps: slices.Clone(DefaultSteps)},
	}
}

// LoadOptions locates the config files to merge.
type LoadOptions struct {
	// GlobalPath is the user-wide config file. Missing files are skipped.
	GlobalPath string
	// Root is the .qp directory; Root/config.toml overrides the global file.
	Root string
}

// Load builds the effective configuration: built-in defaults, then the global
// file, then the root's file. Later layers override earlier ones field by
// field; review agents are replaced per step name.
func Load(opts LoadOptions) (*Config, error) {
	cfg := Default()

	for _, path := range opts.Files() {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Files returns the config files Load reads, in merge order.
func (o LoadOptions) Files() []string {
	var paths []string
	if o.GlobalPath != "" {
		paths = append(paths, o.GlobalPath)
	}
	if o.Root != "" {
		paths = append(paths, filepath.Join(o.Root, FileName))
	}
	return paths
}

// mergeFile overlays the TOML file at path. A missing file is not an error.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	var file Config
	md, err := toml.Decode(string(data), &file)
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	c.merge(file, md)

	for _, key := range md.Undecoded() {
		c.undecoded = append(c.undecoded, path+": "+key.String())
	}

	return nil
}

func (c *Config) merge(file Config, md toml.MetaData) {
	if md.IsDefined("agent", "command") {
		c.Agent.Command = file.Agent.Command
	}
	if md.IsDefined("agent", "args") {
		c.Agent.Args = file.Agent.Args
	}
	if md.IsDefined("agent", "new_prompt") {
		c.Agent.NewPrompt = file.Agent.NewPrompt
	}
	if md.IsDefined("agent", "edit_prompt") {
		c.Agent.EditPrompt = file.Agent.EditPrompt
	}

	if len(file.ReviewAgents) > 0 && c.ReviewAgents == nil {
		c.ReviewAgents = make(map[string]ReviewAgent, len(file.ReviewAgents))
	}
	maps.Copy(c.ReviewAgents, file.ReviewAgents)

	if md.IsDefined("optimization", "steps") && len(file.Optimization.Steps) > 0 {
		c.Optimization.Steps = file.Optimization.Steps
	}
}

// Steps returns the configured optimization steps in order.
func (c *Config) Steps() []string {
	return c.Optimization.Steps
}

// ReviewAgent returns the agent bound to step with inherited command and
// args filled in. Returns ErrUnknownStep if step has no review agent.
func (c *Config) ReviewAgent(step string) (ReviewAgent, error) {
	ra, ok := c.ReviewAgents[step]
	if !ok {
		return ReviewAgent{}, fmt.Errorf("%w: %q", ErrUnknownStep, step)
	}

	if strings.TrimSpace(ra.Command) == "" {
		ra.Command = c.Agent.Command
	}
	if ra.Args == nil {
		ra.Args = slices.Clone(c.Agent.Args)
	}

	return ra, nil
}

// Commands returns the distinct agent commands the configuration can run,
// the interactive agent first.
func (c *Config) Commands() []string {
	cmds := []string{c.Agent.Command}
	for _, step := range slices.Sorted(maps.Keys(c.ReviewAgents)) {
		ra, _ := c.ReviewAgent(step)
		if !slices.Contains(cmds, ra.Command) {
			cmds = append(cmds, ra.Command)
		}
	}
	return cmds
}

// Encode writes c as TOML.
func (c *Config) Encode(w io.Writer) error {
	enc := toml.NewEncoder(w)
	enc.Indent = ""
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// Starter returns the config written by qp init. Built-in review agents are
// omitted so they keep tracking the defaults; extra adds or overrides steps.
func Starter(agent Agent, steps []string, extra map[string]ReviewAgent) *Config {
	if agent.Command == "" {
		agent.Command = DefaultAgentCommand
	}
	if agent.Args == nil {
		agent.Args = []string{}
	}
	if len(steps) == 0 {
		steps = slices.Clone(DefaultSteps)
	}

	return &Config{
		Agent:        agent,
		ReviewAgents: extra,
		Optimization: Optimization{Steps: steps},
	}
}
