package services

import (
	"context"
	"io"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/models"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/storage"
)

// UploadFileRequest describes one incoming file. Size is -1 when the
// transport does not know the length up front. Caption is forwarded to
// backends that attach one to the stored object.
type UploadFileRequest struct {
	FileName string
	Mimetype string
	FolderID int64
	Size     int64
	Caption  string
}

// DownloadResult is either a redirect URL or an open stream, never both.
// When Body is set the caller owns closing it.
type DownloadResult struct {
	File *models.File
	URL  string
	Body io.ReadCloser
	Size int64
}

// DeleteFilesReport summarizes a batch file deletion. Physical removal is
// best-effort; catalog rows are always removed.
type DeleteFilesReport struct {
	Deleted          int      `json:"deleted"`
	PhysicalFailures []string `json:"physical_failures,omitempty"`
}

type FileService interface {
	// Upload stores the body on the active backend, then records the
	// catalog row. A physical failure leaves no catalog trace.
	Upload(ctx context.Context, userID int64, body io.Reader, req *UploadFileRequest, unlocked map[int64]bool) (*models.File, error)

	Get(ctx context.Context, userID, messageID int64) (*models.File, error)

	// Download resolves the file through the backend that stored it,
	// honoring locked ancestors and an optional byte range.
	Download(ctx context.Context, userID, messageID int64, unlocked map[int64]bool, rng *storage.Range) (*DownloadResult, error)

	// Open resolves an already-authorized row through its backend. Share
	// access goes through here after the token check.
	Open(ctx context.Context, file *models.File, rng *storage.Range) (*DownloadResult, error)

	Rename(ctx context.Context, userID, messageID int64, newName string) (*models.File, error)

	// Delete removes files physically (best-effort, by stored backend
	// type) and then drops their catalog rows in one transaction.
	Delete(ctx context.Context, userID int64, messageIDs []int64) (*DeleteFilesReport, error)
}
