package services

import (
	"context"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/models"
)

// CreateFolderRequest creates a folder under ParentID. A nil ParentID means
// the user's root folder.
type CreateFolderRequest struct {
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id"`
}

// FolderContents is one folder plus its immediate children.
type FolderContents struct {
	Folder  *models.Folder   `json:"folder"`
	Path    string           `json:"path"`
	Folders []*models.Folder `json:"folders"`
	Files   []*models.File   `json:"files"`
}

type FolderService interface {
	Create(ctx context.Context, userID int64, req *CreateFolderRequest) (*models.Folder, error)
	Get(ctx context.Context, userID, folderID int64) (*models.Folder, error)

	// ByPath resolves a slash-joined path, relative to the user's root,
	// to a folder. The empty path is the root itself.
	ByPath(ctx context.Context, userID int64, path string) (*models.Folder, error)

	// Contents lists a folder's immediate children. Locked folders are
	// readable only when their id is in the unlocked set.
	Contents(ctx context.Context, userID, folderID int64, unlocked map[int64]bool) (*FolderContents, error)

	// Rename renames a folder. The root folder cannot be renamed.
	Rename(ctx context.Context, userID, folderID int64, newName string) (*models.Folder, error)

	// Delete removes an empty folder. Non-empty folders are rejected;
	// use TreeService.DeleteFolderRecursive for cascades.
	Delete(ctx context.Context, userID, folderID int64) error

	// Lock protects a folder with a password. The lock gates reads only;
	// the owner can still delete a locked folder.
	Lock(ctx context.Context, userID, folderID int64, password string) error

	// Unlock verifies the password. On success the caller records the
	// folder id in the session's unlocked set.
	Unlock(ctx context.Context, userID, folderID int64, password string) error

	// ChangePassword replaces the lock password after verifying the old one.
	ChangePassword(ctx context.Context, userID, folderID int64, oldPassword, newPassword string) error

	// RemoveLock clears the lock after verifying the password.
	RemoveLock(ctx context.Context, userID, folderID int64, password string) error
}
