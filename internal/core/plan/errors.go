package plan

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an id, slug, or title resolves to no plan.
var ErrNotFound = errors.New("plan not found")

// ErrIDMismatch is returned when a stored document's frontmatter id differs
// from the directory holding it, as happens when a plan is copied by hand.
var ErrIDMismatch = errors.New("frontmatter id does not match plan directory")

// StorageError reports a failed read, write, or parse of persisted plan data.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// SerializationError reports a document that cannot be encoded or decoded as
// a plan.
type SerializationError struct {
	Reason string
	Err    error
}

func (e *SerializationError) Error() string {
	if e.Err == nil {
		return "plan document: " + e.Reason
	}
	return fmt.Sprintf("plan document: %s: %v", e.Reason, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }
