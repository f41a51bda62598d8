package repositories

import (
	"context"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/models"
)

// FolderRepository defines catalog access for folders. Every operation is
// scoped to one user; a folder belonging to another user behaves exactly
// like a missing folder.
type FolderRepository interface {
	// Create inserts a new folder and fills in its ID.
	Create(ctx context.Context, folder *models.Folder) error

	// GetByID retrieves a folder by ID.
	GetByID(ctx context.Context, id, userID int64) (*models.Folder, error)

	// GetRoot retrieves the user's root folder (parent_id IS NULL).
	GetRoot(ctx context.Context, userID int64) (*models.Folder, error)

	// GetByNameAndParent finds a folder by name under a parent.
	// Returns (nil, nil) when no such folder exists.
	GetByNameAndParent(ctx context.Context, userID int64, name string, parentID int64) (*models.Folder, error)

	// Update persists name, parent, lock state and password.
	Update(ctx context.Context, folder *models.Folder) error

	// Delete removes a single folder row.
	Delete(ctx context.Context, id, userID int64) error

	// DeleteByIDs removes a batch of folder rows. Used by the recursive
	// deletion cascade inside a transaction.
	DeleteByIDs(ctx context.Context, userID int64, ids []int64) error

	// ListChildren lists immediate child folders.
	ListChildren(ctx context.Context, parentID, userID int64) ([]models.Folder, error)

	// CountChildren returns the number of immediate child folders.
	CountChildren(ctx context.Context, parentID, userID int64) (int64, error)

	// GetPath computes the slash-joined path from the root to the folder,
	// excluding the root's own name.
	GetPath(ctx context.Context, id, userID int64) (string, error)

	// ListByUser retrieves every folder a user owns (flat list).
	ListByUser(ctx context.Context, userID int64) ([]models.Folder, error)
}
