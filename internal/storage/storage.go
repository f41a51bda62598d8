// Package storage defines the Backend contract for physical file storage
// and the selector that decides which variant handles new uploads.
//
// The catalog is not touched here: backends move bytes and report locators,
// the service layer records the resulting rows. Reads and deletes always
// dispatch on the storage type recorded per file at upload time, so changing
// the active variant never reinterprets existing rows.
package storage

import (
	"context"
	"io"
)

// Type tags a storage variant. It is persisted on every file row.
type Type string

const (
	TypeLocal  Type = "local"
	TypeWebDAV Type = "webdav"
	TypeS3     Type = "s3"
	TypeBotAPI Type = "botapi"
)

// Valid reports whether t names a known variant.
func (t Type) Valid() bool {
	switch t {
	case TypeLocal, TypeWebDAV, TypeS3, TypeBotAPI:
		return true
	}
	return false
}

// UploadRequest carries everything a backend needs to place one object.
type UploadRequest struct {
	FileName   string // display name; backends may store under a rewritten name
	Mimetype   string
	UserID     int64
	FolderPath string // logical path of the destination folder, "" for root
	Caption    string // forwarded to backends that support captions (bot API)
	Size       int64  // -1 when unknown; body is still streamed either way
}

// UploadResult reports where the bytes ended up.
type UploadResult struct {
	Locator      string // backend-opaque, stored as the file row's file_id
	ThumbLocator string // optional remote thumbnail locator
	MessageID    int64  // nonzero only when the backend assigns one (bot API)
	Size         int64  // bytes actually written
}

// RemoveItem identifies one physical object or directory to delete.
// MessageID is set for bot-API items, whose remote deletion is keyed by
// message rather than by locator.
type RemoveItem struct {
	Locator   string
	MessageID int64
	IsDir     bool
}

// RemoveFailure pairs a locator with the error that kept it alive.
type RemoveFailure struct {
	Locator string
	Err     error
}

// RemoveReport aggregates a best-effort deletion batch. A missing remote
// object counts as succeeded: deletes are idempotent.
type RemoveReport struct {
	Succeeded []string
	Failed    []RemoveFailure
}

// OK reports whether every item was removed.
func (r *RemoveReport) OK() bool { return len(r.Failed) == 0 }

// Range requests a byte range from Stream. Length <= 0 means to the end.
type Range struct {
	Offset int64
	Length int64
}

// Backend is the contract every storage variant implements.
type Backend interface {
	// Type returns the variant tag recorded on rows this backend writes.
	Type() Type

	// Upload streams body to a backend-specific location. Implementations
	// must not buffer the whole payload in memory.
	Upload(ctx context.Context, body io.Reader, req UploadRequest) (*UploadResult, error)

	// Remove deletes the given items best-effort. One failing item never
	// blocks the rest; failures are aggregated in the report.
	Remove(ctx context.Context, items []RemoveItem) *RemoveReport

	// GetURL resolves a locator to a directly fetchable URL, or "" when the
	// caller must use Stream instead.
	GetURL(ctx context.Context, locator string) (string, error)

	// Stream opens the object for reading, optionally at a byte range.
	// Returns the reader and the number of bytes it will yield.
	Stream(ctx context.Context, locator string, rng *Range) (io.ReadCloser, int64, error)
}

// Copier is an optional capability: duplicating an object without
// download-and-reupload. The S3 variant implements it server-side.
type Copier interface {
	Copy(ctx context.Context, srcLocator, dstLocator string) error
}
