package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/colonyops/qp/internal/core/plan"
)

func TestReconcile_FullDocumentReplacesBody(t *testing.T) {
	current := plan.Plan{Body: "old body"}
	output := "---\nid: x\ntitle: T\nstate: draft\ncreated_at: c\nupdated_at: u\n---\n\nNEW BODY"

	got := Reconcile(output, current, Label("holes"))

	assert.Equal(t, OutcomeReplaced, got.Outcome)
	assert.Equal(t, "NEW BODY", got.Body)
	assert.Empty(t, got.Notes)
}

func TestReconcile_SurroundingWhitespace(t *testing.T) {
	output := "\n\n  ---\nid: x\ntitle: T\nstate: ready\ncreated_at: c\nupdated_at: u\n---\n\n## Plan\n\nDetails.\n\n\n"

	got := Reconcile(output, plan.Plan{Body: "old"}, "label")

	assert.Equal(t, OutcomeReplaced, got.Outcome)
	assert.Equal(t, "## Plan\n\nDetails.", got.Body)
}

func TestReconcile_CommentaryUnderExistingHeading(t *testing.T) {
	current := plan.Plan{Body: "## Review Notes\n\nold"}

	got := Reconcile("just some commentary", current, "Optimization output (holes)")

	assert.Equal(t, OutcomeNotes, got.Outcome)
	assert.Equal(t, "just some commentary", got.Notes)
	assert.Equal(t, "## Review Notes\n\n### Optimization output (holes)\n\njust some commentary\n\nold", got.Body)
}

func TestReconcile_InvalidDocumentIsCommentary(t *testing.T) {
	tests := []struct {
		name   string
		output string
	}{
		{name: "unclosed frontmatter", output: "---\nid: x\nno closing delimiter"},
		{name: "missing required fields", output: "---\ntitle: only a title\n---\n\nbody"},
		{name: "horizontal rule", output: "---\n\nSome notes after a rule"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reconcile(tt.output, plan.Plan{Body: "## Goals"}, "Notes")
			assert.Equal(t, OutcomeNotes, got.Outcome)
			assert.Contains(t, got.Body, "## Goals")
			assert.Contains(t, got.Body, NotesHeading)
		})
	}
}

func TestReconcile_EmptyOutput(t *testing.T) {
	got := Reconcile("  \n\t", plan.Plan{Body: "keep me"}, "label")

	assert.Equal(t, OutcomeEmpty, got.Outcome)
	assert.Equal(t, "keep me", got.Body)
}

func TestReconcile_Deterministic(t *testing.T) {
	current := plan.Plan{Body: "## Goals\n\nShip."}

	a := Reconcile("notes", current, "label")
	b := Reconcile("notes", current, "label")

	assert.Equal(t, a, b)
}

func TestInsertNotes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "appends section when missing",
			body: "## Goals\n\nShip it.\n",
			want: "## Goals\n\nShip it.\n\n## Review Notes\n\n### L\n\nN\n",
		},
		{
			name: "empty body",
			body: "",
			want: "## Review Notes\n\n### L\n\nN\n",
		},
		{
			name: "heading at end of body",
			body: "## Goals\n\n## Review Notes",
			want: "## Goals\n\n## Review Notes\n\n### L\n\nN\n",
		},
		{
			name: "newest notes first",
			body: "## Goals\n\n## Review Notes\n\n### Earlier\n\nE\n\n## Appendix",
			want: "## Goals\n\n## Review Notes\n\n### L\n\nN\n\n### Earlier\n\nE\n\n## Appendix",
		},
		{
			name: "similar heading is not a match",
			body: "## Review Notes Archive\n\nold",
			want: "## Review Notes Archive\n\nold\n\n## Review Notes\n\n### L\n\nN\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InsertNotes(tt.body, "L", "N"))
		})
	}
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Optimization output (holes)", Label("holes"))
	assert.Equal(t, "Optimization output", Label(""))
}
