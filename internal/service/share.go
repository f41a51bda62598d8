package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/models"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/repositories"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/services"
)

const shareTokenBytes = 16

type ShareService struct {
	shares  repositories.ShareRepository
	files   repositories.FileRepository
	folders repositories.FolderRepository
	logger  *slog.Logger
	now     func() time.Time
}

var _ services.ShareService = (*ShareService)(nil)

func NewShareService(
	shares repositories.ShareRepository,
	files repositories.FileRepository,
	folders repositories.FolderRepository,
	logger *slog.Logger,
) *ShareService {
	return &ShareService{
		shares:  shares,
		files:   files,
		folders: folders,
		logger:  logger.With("service", "share"),
		now:     time.Now,
	}
}

func (s *ShareService) Create(ctx context.Context, userID int64, req *services.CreateShareRequest) (*models.Share, error) {
	switch req.Type {
	case models.ShareTypeFile:
		if _, err := s.files.GetByID(ctx, req.ItemID, userID); err != nil {
			return nil, err
		}
	case models.ShareTypeFolder:
		folder, err := s.folders.GetByID(ctx, req.ItemID, userID)
		if err != nil {
			return nil, err
		}
		if folder.IsRoot() {
			return nil, fmt.Errorf("%w: the root folder cannot be shared", domain.ErrPreconditionFailed)
		}
	default:
		return nil, fmt.Errorf("%w: unknown share type %q", domain.ErrValidation, req.Type)
	}

	token, err := newShareToken()
	if err != nil {
		return nil, err
	}
	share := &models.Share{
		ItemID:    req.ItemID,
		Type:      req.Type,
		Token:     token,
		UserID:    userID,
		CreatedAt: s.now().UTC(),
	}
	if req.TTL != nil {
		exp := share.CreatedAt.Add(*req.TTL)
		share.ExpiresAt = &exp
	}
	if err := s.shares.Create(ctx, share); err != nil {
		return nil, err
	}
	return share, nil
}

// Resolve looks up a token. Expired shares resolve exactly like missing
// ones so a token leaks nothing after its window closes.
func (s *ShareService) Resolve(ctx context.Context, token string) (*services.ResolvedShare, error) {
	share, err := s.resolveLive(ctx, token)
	if err != nil {
		return nil, err
	}
	out := &services.ResolvedShare{Share: share}
	switch share.Type {
	case models.ShareTypeFile:
		if out.File, err = s.files.GetByID(ctx, share.ItemID, share.UserID); err != nil {
			return nil, err
		}
	case models.ShareTypeFolder:
		if out.Folder, err = s.folders.GetByID(ctx, share.ItemID, share.UserID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ResolveFile authorizes one file against a token: either the share is for
// that file, or the file sits somewhere under the shared folder.
func (s *ShareService) ResolveFile(ctx context.Context, token string, messageID int64) (*models.File, error) {
	share, err := s.resolveLive(ctx, token)
	if err != nil {
		return nil, err
	}
	file, err := s.files.GetByID(ctx, messageID, share.UserID)
	if err != nil {
		return nil, err
	}
	switch share.Type {
	case models.ShareTypeFile:
		if share.ItemID != messageID {
			return nil, domain.ErrNotFound
		}
		return file, nil
	case models.ShareTypeFolder:
		ok, err := s.underFolder(ctx, share.UserID, file.FolderID, share.ItemID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrNotFound
		}
		return file, nil
	}
	return nil, domain.ErrNotFound
}

// ListFolder lists a folder reachable through a folder share. folderID zero
// means the shared folder itself; any other id must sit inside the shared
// subtree.
func (s *ShareService) ListFolder(ctx context.Context, token string, folderID int64) (*services.FolderContents, error) {
	share, err := s.resolveLive(ctx, token)
	if err != nil {
		return nil, err
	}
	if share.Type != models.ShareTypeFolder {
		return nil, domain.ErrNotFound
	}
	id := share.ItemID
	if folderID != 0 && folderID != share.ItemID {
		ok, err := s.underFolder(ctx, share.UserID, folderID, share.ItemID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrNotFound
		}
		id = folderID
	}

	folder, err := s.folders.GetByID(ctx, id, share.UserID)
	if err != nil {
		return nil, err
	}
	childFolders, err := s.folders.ListChildren(ctx, id, share.UserID)
	if err != nil {
		return nil, err
	}
	childFiles, err := s.files.ListByFolder(ctx, id, share.UserID)
	if err != nil {
		return nil, err
	}
	out := &services.FolderContents{
		Folder:  folder,
		Folders: make([]*models.Folder, len(childFolders)),
		Files:   make([]*models.File, len(childFiles)),
	}
	for i := range childFolders {
		out.Folders[i] = &childFolders[i]
	}
	for i := range childFiles {
		out.Files[i] = &childFiles[i]
	}
	return out, nil
}

func (s *ShareService) List(ctx context.Context, userID int64) ([]*models.Share, error) {
	shares, err := s.shares.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Share, len(shares))
	for i := range shares {
		out[i] = &shares[i]
	}
	return out, nil
}

func (s *ShareService) Revoke(ctx context.Context, userID, shareID int64) error {
	return s.shares.Delete(ctx, shareID, userID)
}

func (s *ShareService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.shares.DeleteExpired(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("purged expired shares", "count", n)
	}
	return n, nil
}

func (s *ShareService) resolveLive(ctx context.Context, token string) (*models.Share, error) {
	share, err := s.shares.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if share.Expired(s.now()) {
		return nil, domain.ErrNotFound
	}
	return share, nil
}

// underFolder reports whether folderID lies inside ancestorID's subtree,
// walking parent links up to the root.
func (s *ShareService) underFolder(ctx context.Context, userID, folderID, ancestorID int64) (bool, error) {
	id := folderID
	for {
		if id == ancestorID {
			return true, nil
		}
		f, err := s.folders.GetByID(ctx, id, userID)
		if err != nil {
			return false, err
		}
		if f.ParentID == nil {
			return false, nil
		}
		id = *f.ParentID
	}
}

func newShareToken() (string, error) {
	buf := make([]byte, shareTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating share token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
