// Package local provides the local-disk storage backend. The physical
// layout mirrors the logical folder tree under one root directory, with one
// subdirectory per user.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/storage"
)

// Config holds local-disk backend settings.
type Config struct {
	RootPath string `json:"root_path"`
}

// Backend implements storage.Backend on the local filesystem.
type Backend struct {
	rootPath string
}

// New creates a local-disk backend rooted at cfg.RootPath.
func New(cfg Config) (*Backend, error) {
	if cfg.RootPath == "" {
		return nil, fmt.Errorf("root_path is required")
	}

	if err := os.MkdirAll(cfg.RootPath, 0o755); err != nil {
		return nil, fmt.Errorf("create root path %s: %w", cfg.RootPath, err)
	}

	return &Backend{rootPath: cfg.RootPath}, nil
}

// NewFromJSON creates a Backend from raw JSON config.
func NewFromJSON(raw json.RawMessage) (*Backend, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse local config: %w", err)
	}
	return New(cfg)
}

// Type returns "local".
func (b *Backend) Type() storage.Type { return storage.TypeLocal }

// UserDir returns the locator of a user's storage directory. Deleting it
// (IsDir remove) wipes the user's physical data before catalog deletion.
func UserDir(userID int64) string {
	return fmt.Sprintf("u%d", userID)
}

// fullPath resolves a locator below the backend root, rejecting traversal.
func (b *Backend) fullPath(locator string) (string, error) {
	clean := path.Clean("/" + locator)
	if clean == "/" {
		return "", fmt.Errorf("empty locator")
	}
	return filepath.Join(b.rootPath, filepath.FromSlash(clean)), nil
}

// Upload writes body to <root>/u<id>/<folder path>/<name> via a temp file
// and rename. Path length limits are the filesystem's problem, not ours.
func (b *Backend) Upload(ctx context.Context, body io.Reader, req storage.UploadRequest) (*storage.UploadResult, error) {
	locator := path.Join(UserDir(req.UserID), req.FolderPath, req.FileName)

	target, err := b.fullPath(locator)
	if err != nil {
		return nil, b.wrap("upload", locator, err)
	}

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, b.wrap("upload", locator, err)
	}

	// Write to temp file then rename so a failed upload never leaves a
	// half-written object at the final path.
	tmp, err := os.CreateTemp(dir, ".upload-*.tmp")
	if err != nil {
		return nil, b.wrap("upload", locator, err)
	}
	tmpName := tmp.Name()

	written, err := io.Copy(tmp, body)
	if err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return nil, b.wrap("upload", locator, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return nil, b.wrap("upload", locator, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return nil, b.wrap("upload", locator, err)
	}

	return &storage.UploadResult{Locator: locator, Size: written}, nil
}

// Remove deletes each item best-effort. After removing a file it prunes
// now-empty parent directories, stopping short of the user's directory.
func (b *Backend) Remove(ctx context.Context, items []storage.RemoveItem) *storage.RemoveReport {
	report := &storage.RemoveReport{}

	for _, item := range items {
		target, err := b.fullPath(item.Locator)
		if err != nil {
			report.Failed = append(report.Failed, storage.RemoveFailure{Locator: item.Locator, Err: err})
			continue
		}

		if item.IsDir {
			err = os.RemoveAll(target)
		} else {
			err = os.Remove(target)
			if errors.Is(err, os.ErrNotExist) {
				err = nil // idempotent delete
			}
		}

		if err != nil {
			report.Failed = append(report.Failed, storage.RemoveFailure{Locator: item.Locator, Err: err})
			continue
		}

		b.pruneEmptyParents(item.Locator)
		report.Succeeded = append(report.Succeeded, item.Locator)
	}

	return report
}

// pruneEmptyParents removes empty directories from the locator's parent up
// to, but excluding, the user directory (the locator's first element).
func (b *Backend) pruneEmptyParents(locator string) {
	dir := path.Dir(locator)
	for dir != "." && dir != "/" && strings.Contains(dir, "/") {
		full, err := b.fullPath(dir)
		if err != nil {
			return
		}
		// os.Remove refuses non-empty directories, which is exactly the
		// stop condition.
		if err := os.Remove(full); err != nil {
			return
		}
		dir = path.Dir(dir)
	}
}

// GetURL always returns "": local files have no direct URL, callers stream.
func (b *Backend) GetURL(ctx context.Context, locator string) (string, error) {
	return "", nil
}

// Stream opens the file with optional range support.
func (b *Backend) Stream(ctx context.Context, locator string, rng *storage.Range) (io.ReadCloser, int64, error) {
	target, err := b.fullPath(locator)
	if err != nil {
		return nil, 0, b.wrap("stream", locator, err)
	}

	f, err := os.Open(target)
	if err != nil {
		return nil, 0, b.wrap("stream", locator, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, b.wrap("stream", locator, err)
	}
	size := info.Size()

	if rng == nil {
		return f, size, nil
	}

	if rng.Offset > 0 {
		if _, err := f.Seek(rng.Offset, io.SeekStart); err != nil {
			f.Close()
			return nil, 0, b.wrap("stream", locator, err)
		}
	}

	remaining := size - rng.Offset
	if remaining < 0 {
		remaining = 0
	}
	if rng.Length > 0 && rng.Length < remaining {
		remaining = rng.Length
	}

	return &limitedReadCloser{Reader: io.LimitReader(f, remaining), closer: f}, remaining, nil
}

// Copy duplicates an object on disk. Used by overwrite/duplicate flows.
func (b *Backend) Copy(ctx context.Context, srcLocator, dstLocator string) error {
	src, err := b.fullPath(srcLocator)
	if err != nil {
		return b.wrap("copy", srcLocator, err)
	}
	dst, err := b.fullPath(dstLocator)
	if err != nil {
		return b.wrap("copy", dstLocator, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return b.wrap("copy", srcLocator, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return b.wrap("copy", dstLocator, err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return b.wrap("copy", dstLocator, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return b.wrap("copy", dstLocator, err)
	}

	return out.Close()
}

func (b *Backend) wrap(op, locator string, err error) error {
	return &domain.BackendError{Backend: string(storage.TypeLocal), Op: op, Locator: locator, Err: err}
}

type limitedReadCloser struct {
	io.Reader
	closer io.Closer
}

func (l *limitedReadCloser) Close() error { return l.closer.Close() }
