package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/models"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/repositories"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/services"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/storage"
)

type FileService struct {
	files    repositories.FileRepository
	folders  repositories.FolderRepository
	backends BackendResolver
	tx       repositories.TransactionManager
	logger   *slog.Logger
}

var _ services.FileService = (*FileService)(nil)

func NewFileService(
	files repositories.FileRepository,
	folders repositories.FolderRepository,
	backends BackendResolver,
	tx repositories.TransactionManager,
	logger *slog.Logger,
) *FileService {
	return &FileService{
		files:    files,
		folders:  folders,
		backends: backends,
		tx:       tx,
		logger:   logger.With("service", "file"),
	}
}

// Upload streams the body to the active backend and then records the catalog
// row. The physical write goes first: when it fails no row exists, and when
// the row insert fails afterwards the uploaded object is removed best-effort.
func (s *FileService) Upload(ctx context.Context, userID int64, body io.Reader, req *services.UploadFileRequest, unlocked map[int64]bool) (*models.File, error) {
	if err := validName(req.FileName); err != nil {
		return nil, fmt.Errorf("%w: file name %v", domain.ErrValidation, err)
	}
	folder, err := s.resolveFolder(ctx, userID, req.FolderID)
	if err != nil {
		return nil, err
	}
	if err := ensureFolderReadable(ctx, s.folders, userID, folder.ID, unlocked); err != nil {
		return nil, err
	}

	name, err := s.freeFileName(ctx, userID, folder.ID, req.FileName)
	if err != nil {
		return nil, err
	}
	folderPath := ""
	if !folder.IsRoot() {
		if folderPath, err = s.folders.GetPath(ctx, folder.ID, userID); err != nil {
			return nil, err
		}
	}

	backend, err := s.backends.Active(ctx)
	if err != nil {
		return nil, err
	}
	result, err := backend.Upload(ctx, body, storage.UploadRequest{
		FileName:   name,
		Mimetype:   req.Mimetype,
		UserID:     userID,
		FolderPath: folderPath,
		Caption:    req.Caption,
		Size:       req.Size,
	})
	if err != nil {
		return nil, err
	}

	file := &models.File{
		MessageID:   result.MessageID,
		FileName:    name,
		Mimetype:    req.Mimetype,
		Size:        result.Size,
		FileID:      result.Locator,
		Date:        time.Now().UTC(),
		FolderID:    folder.ID,
		UserID:      userID,
		StorageType: string(backend.Type()),
	}
	if result.ThumbLocator != "" {
		t := result.ThumbLocator
		file.ThumbFileID = &t
	}
	if err := s.files.Create(ctx, file); err != nil {
		// The object is already stored; try to take it back out so the
		// failed upload leaves no trace.
		report := backend.Remove(ctx, []storage.RemoveItem{{Locator: result.Locator, MessageID: result.MessageID}})
		if !report.OK() {
			s.logger.Error("catalog insert failed after upload, object orphaned",
				"backend", backend.Type(), "locator", result.Locator, "error", err)
		}
		return nil, err
	}
	return file, nil
}

func (s *FileService) Get(ctx context.Context, userID, messageID int64) (*models.File, error) {
	return s.files.GetByID(ctx, messageID, userID)
}

// Download resolves a file through the backend recorded on its row, never
// the currently active one. When the backend serves direct URLs the result
// carries the URL; otherwise an open stream.
func (s *FileService) Download(ctx context.Context, userID, messageID int64, unlocked map[int64]bool, rng *storage.Range) (*services.DownloadResult, error) {
	file, err := s.files.GetByID(ctx, messageID, userID)
	if err != nil {
		return nil, err
	}
	if err := ensureFolderReadable(ctx, s.folders, userID, file.FolderID, unlocked); err != nil {
		return nil, err
	}
	return s.Open(ctx, file, rng)
}

// Open dispatches on the row's stored backend type. Authorization is the
// caller's job.
func (s *FileService) Open(ctx context.Context, file *models.File, rng *storage.Range) (*services.DownloadResult, error) {
	backend, err := s.backends.ForType(ctx, storage.Type(file.StorageType))
	if err != nil {
		return nil, err
	}
	if rng == nil {
		url, err := backend.GetURL(ctx, file.FileID)
		if err != nil {
			return nil, err
		}
		if url != "" {
			return &services.DownloadResult{File: file, URL: url, Size: file.Size}, nil
		}
	}
	body, size, err := backend.Stream(ctx, file.FileID, rng)
	if err != nil {
		return nil, err
	}
	return &services.DownloadResult{File: file, Body: body, Size: size}, nil
}

func (s *FileService) Rename(ctx context.Context, userID, messageID int64, newName string) (*models.File, error) {
	if err := validName(newName); err != nil {
		return nil, fmt.Errorf("%w: file name %v", domain.ErrValidation, err)
	}
	file, err := s.files.GetByID(ctx, messageID, userID)
	if err != nil {
		return nil, err
	}
	if file.FileName == newName {
		return file, nil
	}
	taken, err := nameInUse(ctx, s.files, s.folders, userID, file.FolderID, newName)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, &domain.ConflictError{Message: "an item with this name already exists", ItemType: "file", ItemName: newName}
	}
	file.FileName = newName
	if err := s.files.Update(ctx, file); err != nil {
		return nil, err
	}
	return file, nil
}

// Delete removes a batch of files: physical objects first per stored backend
// type, then every row in one transaction. Physical failures orphan objects
// and are reported, never blocking the catalog cleanup.
func (s *FileService) Delete(ctx context.Context, userID int64, messageIDs []int64) (*services.DeleteFilesReport, error) {
	var files []models.File
	for _, id := range messageIDs {
		f, err := s.files.GetByID(ctx, id, userID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		files = append(files, *f)
	}
	if len(files) == 0 {
		return &services.DeleteFilesReport{}, nil
	}

	_, failed := removeFilesPhysical(ctx, s.backends, s.logger, files)

	ids := make([]int64, len(files))
	for i := range files {
		ids[i] = files[i].MessageID
	}
	err := s.tx.ExecTx(ctx, func(txCtx context.Context) error {
		return s.files.DeleteByIDs(txCtx, userID, ids)
	})
	if err != nil {
		return nil, err
	}
	return &services.DeleteFilesReport{Deleted: len(files), PhysicalFailures: failed}, nil
}

// freeFileName returns the requested name, or the first numbered variant
// when the name is already taken in the folder. Folders occupy the same
// namespace, so a subfolder's name blocks a file just like a sibling file.
func (s *FileService) freeFileName(ctx context.Context, userID, folderID int64, name string) (string, error) {
	taken, err := nameInUse(ctx, s.files, s.folders, userID, folderID, name)
	if err != nil {
		return "", err
	}
	if !taken {
		return name, nil
	}
	for n := 1; n < 1000; n++ {
		cand := numberedName(name, n)
		taken, err := nameInUse(ctx, s.files, s.folders, userID, folderID, cand)
		if err != nil {
			return "", err
		}
		if !taken {
			return cand, nil
		}
	}
	return "", fmt.Errorf("%w: no free name variant for %q", domain.ErrConflict, name)
}

func (s *FileService) resolveFolder(ctx context.Context, userID, folderID int64) (*models.Folder, error) {
	if folderID == 0 {
		return s.folders.GetRoot(ctx, userID)
	}
	return s.folders.GetByID(ctx, folderID, userID)
}
