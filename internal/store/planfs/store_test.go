package planfs

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/qp/internal/core/plan"
)

// newTestStore returns a store with a clock that advances one second per
// call and sequential ids.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	s := New(t.TempDir(), zerolog.Nop())

	clock := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	n := 0
	s.newID = func() string {
		n++
		return "plan-" + strconv.Itoa(n)
	}

	return s
}

func TestStore_Create(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p, err := s.Create(ctx, "")
	require.NoError(t, err)

	assert.Equal(t, "plan-1", p.ID)
	assert.Equal(t, plan.DefaultTitle, p.Title)
	assert.Equal(t, plan.StateDraft, p.State)
	assert.Equal(t, 0, p.ReviewCycles)
	assert.Empty(t, p.ReviewSteps)
	assert.Equal(t, plan.DefaultBody, p.Body)
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)
	assert.FileExists(t, s.DocumentPath(p.ID))
}

func TestStore_Get_Resolution(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.Create(ctx, "My Plan")
	require.NoError(t, err)
	_, err = s.Create(ctx, "Other Plan")
	require.NoError(t, err)

	for _, ref := range []string{"My Plan", "my-plan", created.ID, "  my plan!  "} {
		t.Run(ref, func(t *testing.T) {
			got, err := s.Get(ctx, ref)
			require.NoError(t, err)
			assert.Equal(t, created.ID, got.ID)
		})
	}
}

func TestStore_Get_NotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Get(ctx, "missing")
	require.ErrorIs(t, err, plan.ErrNotFound)

	_, err = s.Create(ctx, "Something")
	require.NoError(t, err)

	_, err = s.Get(ctx, "nothing-like-it")
	require.ErrorIs(t, err, plan.ErrNotFound)

	_, err = s.Get(ctx, "")
	require.ErrorIs(t, err, plan.ErrNotFound)
}

func TestStore_List(t *testing.T) {
	ctx := context.Background()

	t.Run("empty root", func(t *testing.T) {
		s := newTestStore(t)
		metas, err := s.List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, metas)
		assert.Empty(t, metas)
	})

	t.Run("most recently updated first", func(t *testing.T) {
		s := newTestStore(t)

		first, err := s.Create(ctx, "First")
		require.NoError(t, err)
		_, err = s.Create(ctx, "Second")
		require.NoError(t, err)

		// Touching the first plan moves it to the front.
		require.NoError(t, s.EnsureReviewSteps(ctx, first.ID, []string{"holes"}))

		metas, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, metas, 2)
		assert.Equal(t, "First", metas[0].Title)
		assert.Equal(t, "Second", metas[1].Title)
	})

	t.Run("skips unreadable documents", func(t *testing.T) {
		s := newTestStore(t)

		_, err := s.Create(ctx, "Good")
		require.NoError(t, err)

		bad := filepath.Join(s.PlansDir(), "broken")
		require.NoError(t, os.MkdirAll(bad, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(bad, "plan.md"), []byte("---\nid: [unclosed\n---\n\nbody"), 0o644))

		empty := filepath.Join(s.PlansDir(), "empty-dir")
		require.NoError(t, os.MkdirAll(empty, 0o755))

		metas, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, metas, 1)
		assert.Equal(t, "Good", metas[0].Title)
	})
}

func TestStore_Get_MalformedByID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	dir := filepath.Join(s.PlansDir(), "broken")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plan.md"), []byte("---\ntitle: no id\n---\n\nbody"), 0o644))

	_, err := s.Get(ctx, "broken")

	var storageErr *plan.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "parse", storageErr.Op)

	var serErr *plan.SerializationError
	assert.ErrorAs(t, err, &serErr)
}

func TestStore_Get_CopiedDirectoryRejected(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	original, err := s.Create(ctx, "Original")
	require.NoError(t, err)

	data, err := os.ReadFile(s.DocumentPath(original.ID))
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(s.PlansDir(), "copy"), 0o755))
	require.NoError(t, os.WriteFile(s.DocumentPath("copy"), data, 0o644))

	_, err = s.Get(ctx, "copy")
	require.ErrorIs(t, err, plan.ErrIDMismatch)
	var storageErr *plan.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, s.DocumentPath("copy"), storageErr.Path)

	err = s.RecordReviewStep(ctx, "copy", "holes", plan.StepDone)
	require.ErrorIs(t, err, plan.ErrIDMismatch)

	got, err := s.Get(ctx, original.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.ReviewCycles)
	assert.Empty(t, got.ReviewSteps)

	metas, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, original.ID, metas[0].ID)
}

func TestStore_Load_AdoptsDocumentWithoutFrontmatter(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	dir := filepath.Join(s.PlansDir(), "handwritten")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plan.md"), []byte("\n\n# Notes\n\nraw body"), 0o644))

	p, err := s.Get(ctx, "handwritten")
	require.NoError(t, err)

	assert.Equal(t, "handwritten", p.ID)
	assert.Equal(t, plan.DefaultTitle, p.Title)
	assert.Equal(t, plan.StateDraft, p.State)
	assert.Equal(t, "# Notes\n\nraw body", p.Body)
	assert.NotEmpty(t, p.CreatedAt)

	// Saving writes the frontmatter so the next load is a regular document.
	require.NoError(t, s.Save(ctx, p))
	data, err := os.ReadFile(s.DocumentPath("handwritten"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "id: handwritten")
}

func TestStore_Save_Overwrites(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p, err := s.Create(ctx, "Plan")
	require.NoError(t, err)

	p.Body = "## Goals\n\nShip it."
	p.State = plan.StateApproved
	require.NoError(t, s.Save(ctx, p))

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	entries, err := os.ReadDir(filepath.Dir(s.DocumentPath(p.ID)))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp", "temp files must not be left behind")
	}
}

func TestStore_Save_RejectsInvalid(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.Save(ctx, plan.Plan{Meta: plan.Meta{ID: "../escape", Title: "x"}})
	require.Error(t, err)

	p, err := s.Create(ctx, "Plan")
	require.NoError(t, err)

	p.State = "bogus"
	err = s.Save(ctx, p)

	var serErr *plan.SerializationError
	require.ErrorAs(t, err, &serErr)
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p, err := s.Create(ctx, "Doomed Plan")
	require.NoError(t, err)
	_, err = s.SaveVersionSnapshot(ctx, p.ID, 1, "content", "")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "doomed-plan"))
	assert.NoDirExists(t, filepath.Dir(s.DocumentPath(p.ID)))

	_, err = s.Get(ctx, p.ID)
	require.ErrorIs(t, err, plan.ErrNotFound)

	err = s.Delete(ctx, "doomed-plan")
	require.ErrorIs(t, err, plan.ErrNotFound)
}

func TestStore_RecordReviewStep(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p, err := s.Create(ctx, "Plan")
	require.NoError(t, err)

	require.NoError(t, s.RecordReviewStep(ctx, p.ID, "holes", plan.StepDone))

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ReviewCycles)
	require.Len(t, got.ReviewSteps, 1)
	assert.Equal(t, plan.StepDone, got.ReviewSteps[0].Status)
	assert.NotEmpty(t, got.ReviewSteps[0].CompletedAt)
	assert.True(t, got.Updated().After(p.Updated()))

	// Re-running updates the entry in place and counts another cycle.
	require.NoError(t, s.RecordReviewStep(ctx, p.ID, "holes", plan.StepDone))
	require.NoError(t, s.RecordReviewStep(ctx, p.ID, "details", plan.StepFailed))

	got, err = s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ReviewCycles)
	require.Len(t, got.ReviewSteps, 2)
	assert.Equal(t, "holes", got.ReviewSteps[0].Step)
	assert.Equal(t, "details", got.ReviewSteps[1].Step)
	assert.Equal(t, plan.StepFailed, got.ReviewSteps[1].Status)
}

func TestStore_RecordReviewStep_Errors(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.RecordReviewStep(ctx, "missing", "holes", plan.StepDone)
	require.ErrorIs(t, err, plan.ErrNotFound)
	assert.NoDirExists(t, filepath.Join(s.PlansDir(), "missing"))

	p, err := s.Create(ctx, "Plan")
	require.NoError(t, err)
	require.Error(t, s.RecordReviewStep(ctx, p.ID, "holes", "bogus"))
}

func TestStore_EnsureReviewSteps(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p, err := s.Create(ctx, "Plan")
	require.NoError(t, err)
	require.NoError(t, s.RecordReviewStep(ctx, p.ID, "details", plan.StepDone))

	require.NoError(t, s.EnsureReviewSteps(ctx, p.ID, []string{"holes", "details", "breakdown"}))

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)

	want := []plan.ReviewStep{
		{Step: "details", Status: plan.StepDone, CompletedAt: got.ReviewSteps[0].CompletedAt},
		{Step: "holes", Status: plan.StepPending},
		{Step: "breakdown", Status: plan.StepPending},
	}
	assert.Equal(t, want, got.ReviewSteps)
	assert.Equal(t, 1, got.ReviewCycles)

	// Nothing new to add leaves the document untouched.
	before := got.UpdatedAt
	require.NoError(t, s.EnsureReviewSteps(ctx, p.ID, []string{"holes"}))
	got, err = s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, before, got.UpdatedAt)
}

func TestStore_Snapshots(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p, err := s.Create(ctx, "Plan")
	require.NoError(t, err)

	snaps, err := s.ListSnapshots(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, snaps)

	path, err := s.SaveVersionSnapshot(ctx, p.ID, 2, "v2 content", "notes for v2")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.HistoryDir(p.ID), "v2.md"), path)

	_, err = s.SaveVersionSnapshot(ctx, p.ID, 1, "v1 content", "")
	require.NoError(t, err)
	_, err = s.SaveVersionSnapshot(ctx, p.ID, 10, "v10 content", "")
	require.NoError(t, err)

	snaps, err = s.ListSnapshots(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, snaps, 3)

	assert.Equal(t, 1, snaps[0].Version)
	assert.Equal(t, 2, snaps[1].Version)
	assert.Equal(t, 10, snaps[2].Version)
	assert.False(t, snaps[0].HasNotes())
	assert.True(t, snaps[1].HasNotes())

	data, err := os.ReadFile(snaps[1].NotesPath)
	require.NoError(t, err)
	assert.Equal(t, "notes for v2", string(data))

	_, err = s.SaveVersionSnapshot(ctx, p.ID, 0, "bad", "")
	require.Error(t, err)
}

func TestStore_Inspect(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	good, err := s.Create(ctx, "Good")
	require.NoError(t, err)

	bad := filepath.Join(s.PlansDir(), "zz-broken")
	require.NoError(t, os.MkdirAll(bad, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bad, "plan.md"), []byte("---\nstate: nope\n---\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(s.PlansDir(), "zz-empty"), 0o755))

	got, err := s.Inspect(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, good.ID, got[0].ID)
	assert.NoError(t, got[0].Err)
	assert.Equal(t, "Good", got[0].Meta.Title)

	assert.Equal(t, "zz-broken", got[1].ID)
	var storageErr *plan.StorageError
	assert.ErrorAs(t, got[1].Err, &storageErr)

	assert.Equal(t, "zz-empty", got[2].ID)
	assert.ErrorIs(t, got[2].Err, plan.ErrNotFound)
}
