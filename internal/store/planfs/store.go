// Package planfs implements plan.Store on the local file system.
//
// Layout under the root directory:
//
//	plans/<id>/plan.md              current plan document
//	plans/<id>/history/vN.md        version snapshots
//	plans/<id>/history/vN.review.md optional review notes sidecars
//	plans/<id>/.lock                read-modify-write lock
//	plans/<id>/.optimize.lock       pipeline run lock
package planfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/colonyops/qp/internal/core/history"
	"github.com/colonyops/qp/internal/core/plan"
)

const (
	plansDirName     = "plans"
	documentName     = "plan.md"
	lockName         = ".lock"
	optimizeLockName = ".optimize.lock"
)

// ErrLocked is returned when another process holds the run lock of a plan.
var ErrLocked = errors.New("plan is locked by another process")

var _ plan.Store = (*Store)(nil)

// Store implements plan.Store with one directory per plan.
type Store struct {
	root string
	mu   sync.Mutex
	log  zerolog.Logger

	now   func() time.Time
	newID func() string
}

// New creates a Store rooted at root, usually the .qp directory.
func New(root string, log zerolog.Logger) *Store {
	return &Store{
		root:  root,
		log:   log,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Root returns the directory the store was created with.
func (s *Store) Root() string {
	return s.root
}

// PlansDir returns the directory holding one sub-directory per plan.
func (s *Store) PlansDir() string {
	return filepath.Join(s.root, plansDirName)
}

// DocumentPath returns the location of the plan document for id.
func (s *Store) DocumentPath(id string) string {
	return filepath.Join(s.planDir(id), documentName)
}

// HistoryDir returns the snapshot directory for id.
func (s *Store) HistoryDir(id string) string {
	return filepath.Join(s.planDir(id), history.DirName)
}

func (s *Store) planDir(id string) string {
	return filepath.Join(s.PlansDir(), id)
}

// Get resolves ref by exact id, by title slug, or by exact title.
func (s *Store) Get(ctx context.Context, ref string) (plan.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.resolve(ref)
}

// List returns the metadata of every readable plan, most recently updated
// first. Documents that fail to load are skipped and logged.
func (s *Store) List(ctx context.Context) ([]plan.Meta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plans, err := s.scan()
	if err != nil {
		return nil, err
	}

	metas := make([]plan.Meta, 0, len(plans))
	for _, p := range plans {
		metas = append(metas, p.Meta)
	}

	slices.SortStableFunc(metas, func(a, b plan.Meta) int {
		return b.Updated().Compare(a.Updated())
	})

	return metas, nil
}

// Save writes the full plan document atomically.
func (s *Store) Save(ctx context.Context, p plan.Plan) error {
	if err := checkID(p.ID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withPlanLock(p.ID, true, func() error {
		return s.write(p)
	})
}

// Create allocates a new draft plan and persists it.
func (s *Store) Create(ctx context.Context, title string) (plan.Plan, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = plan.DefaultTitle
	}

	now := plan.FormatTimestamp(s.now())
	p := plan.Plan{
		Meta: plan.Meta{
			ID:        s.newID(),
			Title:     title,
			State:     plan.StateDraft,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Body: plan.DefaultBody,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(p); err != nil {
		return plan.Plan{}, err
	}

	s.log.Debug().Str("plan_id", p.ID).Str("title", p.Title).Msg("plan created")
	return p, nil
}

// Delete resolves ref and removes the plan directory, history included.
func (s *Store) Delete(ctx context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.resolve(ref)
	if err != nil {
		return err
	}

	dir := s.planDir(p.ID)
	if err := os.RemoveAll(dir); err != nil {
		return &plan.StorageError{Op: "delete", Path: dir, Err: err}
	}

	s.log.Debug().Str("plan_id", p.ID).Msg("plan deleted")
	return nil
}

// RecordReviewStep upserts a step status, counts a review cycle when the
// status is done, and bumps updated_at in one locked read-modify-write.
func (s *Store) RecordReviewStep(ctx context.Context, id, step string, status plan.StepStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("record review step %q: invalid status %q", step, status)
	}

	return s.update(id, func(p *plan.Plan) bool {
		now := s.now()
		p.SetStep(step, status, plan.FormatTimestamp(now))
		if status == plan.StepDone {
			p.ReviewCycles++
		}
		p.Touch(now)
		return true
	})
}

// EnsureReviewSteps appends pending entries for steps the plan has not seen.
func (s *Store) EnsureReviewSteps(ctx context.Context, id string, steps []string) error {
	return s.update(id, func(p *plan.Plan) bool {
		if !p.EnsureSteps(steps) {
			return false
		}
		p.Touch(s.now())
		return true
	})
}

// SaveVersionSnapshot writes history/vN.md and, when notes is non-empty,
// history/vN.review.md. An existing snapshot of the same version is replaced.
func (s *Store) SaveVersionSnapshot(ctx context.Context, id string, version int, content, notes string) (string, error) {
	if err := checkID(id); err != nil {
		return "", err
	}
	if version < 1 {
		return "", fmt.Errorf("snapshot version must be positive, got %d", version)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.HistoryDir(id)
	path := filepath.Join(dir, history.FileName(version))
	if err := atomicWrite(path, []byte(content)); err != nil {
		return "", &plan.StorageError{Op: "write snapshot", Path: path, Err: err}
	}

	if notes != "" {
		notesPath := filepath.Join(dir, history.NotesFileName(version))
		if err := atomicWrite(notesPath, []byte(notes)); err != nil {
			return "", &plan.StorageError{Op: "write review notes", Path: notesPath, Err: err}
		}
	}

	s.log.Debug().Str("plan_id", id).Int("version", version).Msg("snapshot saved")
	return path, nil
}

// ListSnapshots returns the snapshots of id in version order. A plan without
// history returns an empty slice.
func (s *Store) ListSnapshots(ctx context.Context, id string) ([]history.Snapshot, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.HistoryDir(id)
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []history.Snapshot{}, nil
		}
		return nil, &plan.StorageError{Op: "stat", Path: dir, Err: err}
	}

	snaps, err := history.Scan(os.DirFS(dir), func(name string) string {
		return filepath.Join(dir, name)
	})
	if err != nil {
		return nil, &plan.StorageError{Op: "list snapshots", Path: dir, Err: err}
	}
	return snaps, nil
}

// Inspect loads every plan directory and reports per-document failures
// instead of skipping them. Directories without a document are included with
// an error wrapping plan.ErrNotFound.
func (s *Store) Inspect(ctx context.Context) ([]plan.Inspection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.PlansDir())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []plan.Inspection{}, nil
		}
		return nil, &plan.StorageError{Op: "read dir", Path: s.PlansDir(), Err: err}
	}

	out := make([]plan.Inspection, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		p, err := s.load(e.Name())
		out = append(out, plan.Inspection{
			ID:   e.Name(),
			Path: s.DocumentPath(e.Name()),
			Meta: p.Meta,
			Err:  err,
		})
	}

	return out, nil
}

// LockOptimize takes the non-blocking run lock of a plan. It returns ErrLocked
// if another process is already optimizing it. The caller must call release.
func (s *Store) LockOptimize(id string) (release func(), err error) {
	if err := s.requirePlanDir(id); err != nil {
		return nil, err
	}
	return acquireLock(filepath.Join(s.planDir(id), optimizeLockName), false)
}

// update runs fn against the stored plan under the store mutex and the
// per-plan file lock, writing the result when fn reports a change.
func (s *Store) update(id string, fn func(p *plan.Plan) bool) error {
	if err := checkID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withPlanLock(id, false, func() error {
		p, err := s.load(id)
		if err != nil {
			return err
		}
		if !fn(&p) {
			return nil
		}
		return s.write(p)
	})
}

// withPlanLock holds the blocking file lock of a plan while fn runs. When
// create is false the plan directory must already exist.
func (s *Store) withPlanLock(id string, create bool, fn func() error) error {
	dir := s.planDir(id)
	if create {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &plan.StorageError{Op: "mkdir", Path: dir, Err: err}
		}
	} else if err := s.requirePlanDir(id); err != nil {
		return err
	}

	release, err := acquireLock(filepath.Join(dir, lockName), true)
	if err != nil {
		return &plan.StorageError{Op: "lock", Path: dir, Err: err}
	}
	defer release()

	return fn()
}

func (s *Store) requirePlanDir(id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	dir := s.planDir(id)
	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("plan %s: %w", id, plan.ErrNotFound)
	case err != nil:
		return &plan.StorageError{Op: "stat", Path: dir, Err: err}
	case !info.IsDir():
		return &plan.StorageError{Op: "stat", Path: dir, Err: errors.New("not a directory")}
	}
	return nil
}

// resolve finds a plan by id first, then by scanning every stored plan.
func (s *Store) resolve(ref string) (plan.Plan, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return plan.Plan{}, fmt.Errorf("empty plan reference: %w", plan.ErrNotFound)
	}

	if checkID(ref) == nil {
		p, err := s.load(ref)
		switch {
		case err == nil:
			return p, nil
		case !errors.Is(err, plan.ErrNotFound):
			return plan.Plan{}, err
		}
	}

	plans, err := s.scan()
	if err != nil {
		return plan.Plan{}, err
	}

	for _, p := range plans {
		if p.Matches(ref) {
			return p, nil
		}
	}

	return plan.Plan{}, fmt.Errorf("plan %q: %w", ref, plan.ErrNotFound)
}

// scan loads every plan directory in name order. Unreadable documents are
// logged and skipped.
func (s *Store) scan() ([]plan.Plan, error) {
	entries, err := os.ReadDir(s.PlansDir())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []plan.Plan{}, nil
		}
		return nil, &plan.StorageError{Op: "read dir", Path: s.PlansDir(), Err: err}
	}

	plans := make([]plan.Plan, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}

		p, err := s.load(e.Name())
		if err != nil {
			if !errors.Is(err, plan.ErrNotFound) {
				s.log.Warn().Err(err).Str("dir", e.Name()).Msg("skipping unreadable plan")
			}
			continue
		}
		plans = append(plans, p)
	}

	return plans, nil
}

// load reads and parses the document of id.
//
// A document without frontmatter is adopted as a draft: the id comes from
// the directory name and timestamps from the file modification time. A
// document whose id names another directory is returned together with a
// *plan.StorageError wrapping plan.ErrIDMismatch, so it is never saved over
// the other plan.
func (s *Store) load(id string) (plan.Plan, error) {
	path := s.DocumentPath(id)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return plan.Plan{}, fmt.Errorf("plan %s: %w", id, plan.ErrNotFound)
		}
		return plan.Plan{}, &plan.StorageError{Op: "read", Path: path, Err: err}
	}

	p, err := plan.Parse(string(data))
	if err != nil {
		return plan.Plan{}, &plan.StorageError{Op: "parse", Path: path, Err: err}
	}

	if p.ID == "" {
		p.ID = id
		p.Title = plan.DefaultTitle
		p.State = plan.StateDraft

		stamp := plan.FormatTimestamp(s.now())
		if info, err := os.Stat(path); err == nil {
			stamp = plan.FormatTimestamp(info.ModTime())
		}
		p.CreatedAt = stamp
		p.UpdatedAt = stamp
	}

	if p.ID != id {
		return p, &plan.StorageError{
			Op:   "load",
			Path: path,
			Err:  fmt.Errorf("%w: document id %q", plan.ErrIDMismatch, p.ID),
		}
	}

	return p, nil
}

func (s *Store) write(p plan.Plan) error {
	content, err := plan.Serialize(p)
	if err != nil {
		return err
	}

	path := s.DocumentPath(p.ID)
	if err := atomicWrite(path, []byte(content)); err != nil {
		return &plan.StorageError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// atomicWrite writes data to a temp file next to path and renames it into
// place, creating parent directories as needed.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

// checkID rejects ids that would escape the plans directory.
func checkID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") {
		return fmt.Errorf("invalid plan id %q", id)
	}
	return nil
}
