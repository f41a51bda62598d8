package services

import (
	"context"
	"time"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/models"
)

// CreateShareRequest publishes a file or folder under a random token.
// A nil TTL means the share never expires.
type CreateShareRequest struct {
	ItemID int64
	Type   string
	TTL    *time.Duration
}

// ResolvedShare is the public view of a shared item. Exactly one of File
// or Folder is set, matching Share.Type.
type ResolvedShare struct {
	Share  *models.Share
	File   *models.File
	Folder *models.Folder
}

type ShareService interface {
	Create(ctx context.Context, userID int64, req *CreateShareRequest) (*models.Share, error)

	// Resolve looks up a share by token. Expired or revoked tokens
	// resolve to ErrNotFound.
	Resolve(ctx context.Context, token string) (*ResolvedShare, error)

	// ResolveFile authorizes access to one file through a share: either
	// the share is for that file, or it is a folder share and the file
	// lives somewhere under that folder.
	ResolveFile(ctx context.Context, token string, messageID int64) (*models.File, error)

	// ListFolder lists the children of a folder reachable through a
	// folder share. folderID zero means the shared folder itself.
	ListFolder(ctx context.Context, token string, folderID int64) (*FolderContents, error)

	List(ctx context.Context, userID int64) ([]*models.Share, error)
	Revoke(ctx context.Context, userID, shareID int64) error

	// PurgeExpired drops expired share rows. Called periodically.
	PurgeExpired(ctx context.Context) (int64, error)
}
