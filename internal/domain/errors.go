package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors - match with errors.Is()
var (
	// ErrNotFound covers missing items and items owned by another user;
	// callers must not be able to tell the two apart.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates the target already contains a same-named item.
	// Never auto-resolved: surfaced so the caller can supply a resolution.
	ErrConflict = errors.New("already exists")

	// ErrPreconditionFailed covers operations that are structurally invalid:
	// deleting a non-empty folder non-recursively, renaming the root folder,
	// moving a folder into its own descendant.
	ErrPreconditionFailed = errors.New("precondition failed")

	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// ConflictError carries the name of the conflicting item so move/upload
// callers can key their resolution map by it.
type ConflictError struct {
	Message  string
	ItemType string // "file" or "folder"
	ItemName string
}

func (e *ConflictError) Error() string { return e.Message }

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// BackendError wraps a transient physical-storage failure. Batch operations
// aggregate these per item instead of aborting, so the caller can retry just
// the failed items.
type BackendError struct {
	Backend string // storage variant tag
	Op      string // "upload", "remove", "stream", ...
	Locator string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("storage %s: %s %q: %v", e.Backend, e.Op, e.Locator, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }
