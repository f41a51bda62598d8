// Package webdav provides the WebDAV storage backend.
package webdav

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/studio-b12/gowebdav"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/storage"
)

// maxRemotePathLen bounds the combined remote path. Several WebDAV servers
// reject longer paths outright; names that would exceed the bound are stored
// under a hash-derived name while the catalog keeps the display name.
const maxRemotePathLen = 240

// Config is the JSON-serializable WebDAV section of the selector document.
type Config struct {
	Endpoint string `json:"endpoint"`
	Username string `json:"username"`
	Password string `json:"password"`
	BasePath string `json:"base_path"`
	// PublicURL, when set, serves the same tree without authentication and
	// enables direct download links.
	PublicURL string `json:"public_url,omitempty"`
}

// Backend implements storage.Backend on a remote WebDAV server.
type Backend struct {
	client    *gowebdav.Client
	basePath  string
	publicURL string
}

// New creates a WebDAV backend from a Config.
func New(cfg Config) (*Backend, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}

	client := gowebdav.NewClient(cfg.Endpoint, cfg.Username, cfg.Password)

	return &Backend{
		client:    client,
		basePath:  strings.Trim(cfg.BasePath, "/"),
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
	}, nil
}

// NewFromJSON creates a Backend from raw JSON config.
func NewFromJSON(raw json.RawMessage) (*Backend, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse webdav config: %w", err)
	}
	return New(cfg)
}

// Type returns "webdav".
func (b *Backend) Type() storage.Type { return storage.TypeWebDAV }

// remoteName rewrites fileName when the combined path would exceed the
// server bound. The replacement is derived from a hash of the logical
// location, so re-deriving it for the same file is stable, and the original
// extension survives for content-type sniffing on the server side.
func remoteName(dir, fileName string) string {
	if len(path.Join(dir, fileName)) <= maxRemotePathLen {
		return fileName
	}

	sum := sha256.Sum256([]byte(path.Join(dir, fileName)))
	ext := path.Ext(fileName)
	if len(ext) > 16 {
		ext = ""
	}
	return hex.EncodeToString(sum[:16]) + ext
}

// mkdirAll creates the remote directory chain. Servers answer an existing
// directory with 405 or 409 depending on vendor; both mean "done", so any
// error that leaves a stat-able directory behind is swallowed.
func (b *Backend) mkdirAll(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}

	if err := b.client.MkdirAll(dir, 0o755); err != nil {
		if info, statErr := b.client.Stat(dir); statErr == nil && info.IsDir() {
			return nil
		}
		return err
	}
	return nil
}

// Upload streams body to the remote path mirroring the logical folder path.
func (b *Backend) Upload(ctx context.Context, body io.Reader, req storage.UploadRequest) (*storage.UploadResult, error) {
	dir := path.Join(b.basePath, fmt.Sprintf("u%d", req.UserID), req.FolderPath)
	locator := path.Join(dir, remoteName(dir, req.FileName))

	if err := b.mkdirAll(dir); err != nil {
		return nil, b.wrap("upload", locator, err)
	}

	// gowebdav streams the reader; size is only known server-side, so count
	// the bytes on the way through.
	counter := &countingReader{r: body}
	if err := b.client.WriteStream(locator, counter, 0o644); err != nil {
		return nil, b.wrap("upload", locator, err)
	}

	size := counter.n
	if req.Size >= 0 {
		size = req.Size
	}

	return &storage.UploadResult{Locator: locator, Size: size}, nil
}

// Remove deletes each item best-effort; a 404 counts as success.
func (b *Backend) Remove(ctx context.Context, items []storage.RemoveItem) *storage.RemoveReport {
	report := &storage.RemoveReport{}

	for _, item := range items {
		var err error
		if item.IsDir {
			err = b.client.RemoveAll(item.Locator)
		} else {
			err = b.client.Remove(item.Locator)
		}

		if err != nil && !isNotFound(err) {
			report.Failed = append(report.Failed, storage.RemoveFailure{
				Locator: item.Locator,
				Err:     b.wrap("remove", item.Locator, err),
			})
			continue
		}
		report.Succeeded = append(report.Succeeded, item.Locator)
	}

	return report
}

// GetURL returns a direct link when a public URL is configured, else "".
func (b *Backend) GetURL(ctx context.Context, locator string) (string, error) {
	if b.publicURL == "" {
		return "", nil
	}

	escaped := url.PathEscape(locator)
	escaped = strings.ReplaceAll(escaped, "%2F", "/")
	return b.publicURL + "/" + escaped, nil
}

// Stream opens the remote file, optionally at a byte range.
func (b *Backend) Stream(ctx context.Context, locator string, rng *storage.Range) (io.ReadCloser, int64, error) {
	if rng != nil && (rng.Offset > 0 || rng.Length > 0) {
		size := rng.Length
		if size <= 0 {
			info, err := b.client.Stat(locator)
			if err != nil {
				return nil, 0, b.wrap("stream", locator, err)
			}
			size = info.Size() - rng.Offset
			if size < 0 {
				size = 0
			}
		}
		rc, err := b.client.ReadStreamRange(locator, rng.Offset, rng.Length)
		if err != nil {
			return nil, 0, b.wrap("stream", locator, err)
		}
		return rc, size, nil
	}

	info, err := b.client.Stat(locator)
	if err != nil {
		return nil, 0, b.wrap("stream", locator, err)
	}

	rc, err := b.client.ReadStream(locator)
	if err != nil {
		return nil, 0, b.wrap("stream", locator, err)
	}

	return rc, info.Size(), nil
}

// Copy duplicates an object with a server-side COPY, creating the
// destination directory chain first.
func (b *Backend) Copy(ctx context.Context, srcLocator, dstLocator string) error {
	if err := b.mkdirAll(path.Dir(dstLocator)); err != nil {
		return b.wrap("copy", dstLocator, err)
	}
	if err := b.client.Copy(srcLocator, dstLocator, true); err != nil {
		return b.wrap("copy", srcLocator, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		if statusErr, ok := pathErr.Err.(gowebdav.StatusError); ok {
			return statusErr.Status == 404
		}
	}
	return strings.Contains(err.Error(), "404")
}

func (b *Backend) wrap(op, locator string, err error) error {
	return &domain.BackendError{Backend: string(storage.TypeWebDAV), Op: op, Locator: locator, Err: err}
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
