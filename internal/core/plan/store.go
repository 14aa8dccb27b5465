package plan

import (
	"context"

	"github.com/colonyops/qp/internal/core/history"
)

// Store defines persistence for plan documents and their version history.
type Store interface {
	// Get resolves ref by exact id, by title slug, or by exact title.
	// Returns ErrNotFound if no stored plan matches.
	Get(ctx context.Context, ref string) (Plan, error)

	// List returns the metadata of every stored plan, most recently updated
	// first. Returns an empty slice when there are no plans.
	List(ctx context.Context) ([]Meta, error)

	// Save writes the full plan document, replacing any previous content.
	Save(ctx context.Context, p Plan) error

	// Create allocates a new draft plan with a fresh id and persists it.
	// An empty title becomes DefaultTitle.
	Create(ctx context.Context, title string) (Plan, error)

	// Delete resolves ref and removes the plan with all of its history.
	// Returns ErrNotFound if ref does not resolve.
	Delete(ctx context.Context, ref string) error

	// RecordReviewStep upserts the status of a step, increments the review
	// cycle counter when status is StepDone, and bumps updated_at, as one
	// read-modify-write of the stored document.
	RecordReviewStep(ctx context.Context, id, step string, status StepStatus) error

	// EnsureReviewSteps appends a pending entry for every step not yet
	// recorded on the plan. Existing entries keep their status.
	EnsureReviewSteps(ctx context.Context, id string, steps []string) error

	// SaveVersionSnapshot writes an immutable copy of a serialized plan under
	// the given version number, plus a notes sidecar when notes is non-empty.
	// Returns the snapshot location.
	SaveVersionSnapshot(ctx context.Context, id string, version int, content, notes string) (string, error)

	// ListSnapshots returns the stored snapshots of a plan in version order.
	ListSnapshots(ctx context.Context, id string) ([]history.Snapshot, error)

	// DocumentPath returns where the plan document with this id is stored.
	DocumentPath(id string) string
}

// Inspection reports the load result of one stored plan document.
type Inspection struct {
	// ID is the storage key of the plan, which may differ from Meta.ID when a
	// document was copied by hand.
	ID   string
	Path string
	Meta Meta
	Err  error
}
