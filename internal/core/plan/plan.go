// Package plan defines the plan document domain model: metadata, review step
// bookkeeping, the frontmatter document format, and the Store interface.
package plan

import (
	"regexp"
	"strings"
	"time"
)

// DefaultTitle is used when a plan is created without a title.
const DefaultTitle = "Untitled Plan"

// DefaultBody is the template body for newly created plans.
const DefaultBody = "## Ideas\n\n(Add goals and scope here. When ready, have the agent write the full plan.)"

// State is the lifecycle state of a plan.
type State string

const (
	StateDraft      State = "draft"
	StateApproved   State = "approved"
	StateOptimizing State = "optimizing"
	StateReady      State = "ready"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

// States lists every plan state in lifecycle order.
var States = []State{
	StateDraft,
	StateApproved,
	StateOptimizing,
	StateReady,
	StateInProgress,
	StateCompleted,
}

// IsValid reports whether s is a known state.
func (s State) IsValid() bool {
	for _, st := range States {
		if s == st {
			return true
		}
	}
	return false
}

func (s State) String() string {
	return string(s)
}

// StepStatus is the status of a single review step.
type StepStatus string

const (
	StepPending StepStatus = "pending"
	StepDone    StepStatus = "done"
	StepFailed  StepStatus = "failed"
)

// IsValid reports whether s is a known step status.
func (s StepStatus) IsValid() bool {
	switch s {
	case StepPending, StepDone, StepFailed:
		return true
	default:
		return false
	}
}

// ReviewStep records the status of one named optimization step.
type ReviewStep struct {
	Step        string     `yaml:"step" json:"step"`
	Status      StepStatus `yaml:"status" json:"status"`
	CompletedAt string     `yaml:"completed_at,omitempty" json:"completed_at,omitempty"`
}

// Meta is the frontmatter of a plan document.
//
// Timestamps hold the RFC 3339 text found in the document. Use Created and
// Updated for time values.
type Meta struct {
	ID           string            `yaml:"id" json:"id"`
	Title        string            `yaml:"title" json:"title"`
	State        State             `yaml:"state" json:"state"`
	CreatedAt    string            `yaml:"created_at" json:"created_at"`
	UpdatedAt    string            `yaml:"updated_at" json:"updated_at"`
	ReviewCycles int               `yaml:"review_cycles" json:"review_cycles"`
	ReviewSteps  []ReviewStep      `yaml:"review_steps,omitempty" json:"review_steps,omitempty"`
	Agent        string            `yaml:"agent,omitempty" json:"agent,omitempty"`
	ReviewAgents map[string]string `yaml:"review_agents,omitempty" json:"review_agents,omitempty"`
}

// Plan is a plan document: metadata plus free-form markdown body.
type Plan struct {
	Meta
	Body string `json:"body"`
}

// Created returns the parsed creation time, or the zero time if unparseable.
func (m Meta) Created() time.Time {
	return parseTimestamp(m.CreatedAt)
}

// Updated returns the parsed update time, or the zero time if unparseable.
func (m Meta) Updated() time.Time {
	return parseTimestamp(m.UpdatedAt)
}

// Step returns the review step entry with the given name.
func (m Meta) Step(name string) (ReviewStep, bool) {
	for _, rs := range m.ReviewSteps {
		if rs.Step == name {
			return rs, true
		}
	}
	return ReviewStep{}, false
}

// StepDone reports whether the named step has status done.
func (m Meta) StepDone(name string) bool {
	rs, ok := m.Step(name)
	return ok && rs.Status == StepDone
}

// AllStepsDone reports whether every named step is done.
func (m Meta) AllStepsDone(steps []string) bool {
	for _, s := range steps {
		if !m.StepDone(s) {
			return false
		}
	}
	return true
}

// SetStep upserts the status of the named step. Entries stay unique by name
// and keep their original position.
func (m *Meta) SetStep(name string, status StepStatus, completedAt string) {
	for i := range m.ReviewSteps {
		if m.ReviewSteps[i].Step == name {
			m.ReviewSteps[i].Status = status
			m.ReviewSteps[i].CompletedAt = completedAt
			return
		}
	}
	m.ReviewSteps = append(m.ReviewSteps, ReviewStep{
		Step:        name,
		Status:      status,
		CompletedAt: completedAt,
	})
}

// EnsureSteps appends a pending entry for every name not yet present.
// Existing entries are left untouched. Returns true if anything was added.
func (m *Meta) EnsureSteps(names []string) bool {
	added := false
	for _, name := range names {
		if _, ok := m.Step(name); ok {
			continue
		}
		m.ReviewSteps = append(m.ReviewSteps, ReviewStep{Step: name, Status: StepPending})
		added = true
	}
	return added
}

// Touch sets UpdatedAt to now.
func (m *Meta) Touch(now time.Time) {
	m.UpdatedAt = FormatTimestamp(now)
}

// FormatTimestamp renders t the way plan documents store timestamps.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts a title to its lookup slug.
// "Q3: Search Re-write!" -> "q3-search-re-write"
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	return s
}

// Matches reports whether ref identifies this plan by exact id, by slug, or
// by exact title.
func (m Meta) Matches(ref string) bool {
	if ref == "" {
		return false
	}
	if m.ID == ref || m.Title == ref {
		return true
	}
	slug := Slugify(m.Title)
	return slug != "" && (slug == ref || slug == Slugify(ref))
}
