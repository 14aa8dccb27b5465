// Package reconcile merges agent output back into a plan body.
//
// The decision is a best-effort heuristic on the shape of the output. Output
// that opens with a frontmatter delimiter and parses as a complete plan
// document replaces the body. Anything else is kept as review notes. There is
// no negotiation with the agent, so a revised plan in some other shape lands
// in the notes branch.
//
// Blank output is a third outcome, OutcomeEmpty, rather than commentary: the
// body is returned unchanged and no empty notes subsection is written.
package reconcile

import (
	"strings"

	"github.com/colonyops/qp/internal/core/plan"
)

// NotesHeading is the section review commentary is filed under.
const NotesHeading = "## Review Notes"

// Outcome tags which branch produced a Result.
type Outcome string

const (
	// OutcomeReplaced means the output was a full plan and its body was used.
	OutcomeReplaced Outcome = "replaced"
	// OutcomeNotes means the output was filed as commentary.
	OutcomeNotes Outcome = "notes"
	// OutcomeEmpty means the output was blank and the body is unchanged.
	OutcomeEmpty Outcome = "empty"
)

// Result is the reconciled body and how it was produced.
type Result struct {
	Outcome Outcome
	Body    string
	// Notes holds the trimmed commentary for OutcomeNotes.
	Notes string
}

// Label returns the subsection title used for commentary from step.
func Label(step string) string {
	if step == "" {
		return "Optimization output"
	}
	return "Optimization output (" + step + ")"
}

// Reconcile computes the new body of current from agent output.
func Reconcile(output string, current plan.Plan, label string) Result {
	trimmed := strings.TrimSpace(output)

	if trimmed == "" {
		return Result{Outcome: OutcomeEmpty, Body: current.Body}
	}

	if strings.HasPrefix(trimmed, plan.Delimiter) {
		if revised, err := plan.ParseDocument(trimmed); err == nil {
			return Result{Outcome: OutcomeReplaced, Body: revised.Body}
		}
	}

	return Result{
		Outcome: OutcomeNotes,
		Body:    InsertNotes(current.Body, label, trimmed),
		Notes:   trimmed,
	}
}

// InsertNotes files notes as a "### label" subsection directly under the
// first NotesHeading line of body, ahead of earlier notes. Without such a
// heading the section is appended to the end of body.
func InsertNotes(body, label, notes string) string {
	block := "### " + label + "\n\n" + notes

	if idx, ok := headingEnd(body); ok {
		head := body[:idx]
		tail := strings.TrimLeft(body[idx:], "\r\n")
		if tail == "" {
			return head + "\n\n" + block + "\n"
		}
		return head + "\n\n" + block + "\n\n" + tail
	}

	base := strings.TrimRight(body, " \t\r\n")
	if base == "" {
		return NotesHeading + "\n\n" + block + "\n"
	}
	return base + "\n\n" + NotesHeading + "\n\n" + block + "\n"
}

// headingEnd returns the offset just past the first line of body that is
// exactly NotesHeading, ignoring surrounding spaces.
func headingEnd(body string) (int, bool) {
	offset := 0
	for {
		line, rest, more := strings.Cut(body[offset:], "\n")
		if strings.TrimSpace(line) == NotesHeading {
			return offset + len(line), true
		}
		if !more {
			return 0, false
		}
		offset = len(body) - len(rest)
	}
}
