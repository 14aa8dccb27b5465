// Package history defines plan version snapshot types and the on-disk naming
// of snapshot files.
package history

import (
	"fmt"
	"io/fs"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// DirName is the name of the per-plan snapshot directory.
const DirName = "history"

const (
	snapshotExt = ".md"
	notesExt    = ".review.md"
)

// Snapshot is one immutable stored version of a plan document.
type Snapshot struct {
	Version   int       `json:"version"`
	Path      string    `json:"path"`
	NotesPath string    `json:"notes_path,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HasNotes returns true if a review notes sidecar was stored with the snapshot.
func (s Snapshot) HasNotes() bool {
	return s.NotesPath != ""
}

// FileName returns the snapshot file name for a version, e.g. "v3.md".
func FileName(version int) string {
	return fmt.Sprintf("v%d%s", version, snapshotExt)
}

// NotesFileName returns the notes sidecar name for a version, e.g. "v3.review.md".
func NotesFileName(version int) string {
	return fmt.Sprintf("v%d%s", version, notesExt)
}

// ParseFileName extracts the version from a snapshot file name. Notes
// sidecars and unrelated files return ok=false.
func ParseFileName(name string) (version int, ok bool) {
	if strings.HasSuffix(name, notesExt) || !strings.HasSuffix(name, snapshotExt) {
		return 0, false
	}
	digits, found := strings.CutPrefix(strings.TrimSuffix(name, snapshotExt), "v")
	if !found || digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// Scan lists the snapshots found in fsys, which must be rooted at a plan's
// history directory. join maps a file name to the location reported in
// Snapshot paths. Results are sorted by version.
func Scan(fsys fs.FS, join func(name string) string) ([]Snapshot, error) {
	matches, err := doublestar.Glob(fsys, "v*"+snapshotExt)
	if err != nil {
		return nil, fmt.Errorf("glob snapshots: %w", err)
	}

	snapshots := make([]Snapshot, 0, len(matches))
	for _, name := range matches {
		version, ok := ParseFileName(name)
		if !ok {
			continue
		}

		snap := Snapshot{Version: version, Path: join(name)}
		if info, err := fs.Stat(fsys, name); err == nil {
			snap.CreatedAt = info.ModTime()
		}
		if _, err := fs.Stat(fsys, NotesFileName(version)); err == nil {
			snap.NotesPath = join(NotesFileName(version))
		}

		snapshots = append(snapshots, snap)
	}

	slices.SortFunc(snapshots, func(a, b Snapshot) int {
		return a.Version - b.Version
	})

	return snapshots, nil
}
