package repositories

import (
	"context"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/models"
)

// FileRepository defines catalog access for file rows.
type FileRepository interface {
	// Create inserts a file row. When file.MessageID is zero a synthesized
	// identifier is assigned and filled in.
	Create(ctx context.Context, file *models.File) error

	// GetByID retrieves a file by message ID.
	GetByID(ctx context.Context, messageID, userID int64) (*models.File, error)

	// GetByNameAndFolder finds a file by display name within a folder.
	// Returns (nil, nil) when no such file exists.
	GetByNameAndFolder(ctx context.Context, userID int64, name string, folderID int64) (*models.File, error)

	// Update persists file name and folder assignment.
	Update(ctx context.Context, file *models.File) error

	// Delete removes a single file row.
	Delete(ctx context.Context, messageID, userID int64) error

	// DeleteByIDs removes a batch of file rows in one statement. Used by the
	// deletion cascade inside a transaction.
	DeleteByIDs(ctx context.Context, userID int64, messageIDs []int64) error

	// ListByFolder lists the files directly inside a folder.
	ListByFolder(ctx context.Context, folderID, userID int64) ([]models.File, error)

	// ListByFolders lists every file whose folder_id is in the given set.
	// Feeds the deletion cascade with the descendant closure.
	ListByFolders(ctx context.Context, userID int64, folderIDs []int64) ([]models.File, error)

	// CountByFolder returns the number of files directly inside a folder.
	CountByFolder(ctx context.Context, folderID, userID int64) (int64, error)
}
