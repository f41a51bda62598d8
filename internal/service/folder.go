package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/models"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/repositories"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/services"
)

type FolderService struct {
	folders repositories.FolderRepository
	files   repositories.FileRepository
	logger  *slog.Logger
}

var _ services.FolderService = (*FolderService)(nil)

func NewFolderService(folders repositories.FolderRepository, files repositories.FileRepository, logger *slog.Logger) *FolderService {
	return &FolderService{folders: folders, files: files, logger: logger.With("service", "folder")}
}

func validName(name string) error {
	return validation.Validate(name,
		validation.Required,
		validation.Length(1, 255),
		validation.By(func(v interface{}) error {
			s, _ := v.(string)
			if strings.ContainsAny(s, "/\x00") {
				return fmt.Errorf("must not contain slashes")
			}
			if s == "." || s == ".." {
				return fmt.Errorf("is reserved")
			}
			return nil
		}),
	)
}

func (s *FolderService) Create(ctx context.Context, userID int64, req *services.CreateFolderRequest) (*models.Folder, error) {
	if err := validName(req.Name); err != nil {
		return nil, fmt.Errorf("%w: name %v", domain.ErrValidation, err)
	}
	parent, err := s.resolve(ctx, userID, req.ParentID)
	if err != nil {
		return nil, err
	}
	taken, err := nameInUse(ctx, s.files, s.folders, userID, parent.ID, req.Name)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, &domain.ConflictError{Message: "an item with this name already exists", ItemType: "folder", ItemName: req.Name}
	}
	folder := &models.Folder{
		Name:     req.Name,
		ParentID: &parent.ID,
		UserID:   userID,
	}
	if err := s.folders.Create(ctx, folder); err != nil {
		return nil, err
	}
	return folder, nil
}

func (s *FolderService) Get(ctx context.Context, userID, folderID int64) (*models.Folder, error) {
	if folderID == 0 {
		return s.folders.GetRoot(ctx, userID)
	}
	return s.folders.GetByID(ctx, folderID, userID)
}

// ByPath walks name segments from the root. A segment that does not match
// any folder resolves the whole path to ErrNotFound.
func (s *FolderService) ByPath(ctx context.Context, userID int64, p string) (*models.Folder, error) {
	folder, err := s.folders.GetRoot(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == "" {
			continue
		}
		next, err := s.folders.GetByNameAndParent(ctx, userID, seg, folder.ID)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, fmt.Errorf("%w: no folder %q", domain.ErrNotFound, seg)
		}
		folder = next
	}
	return folder, nil
}

func (s *FolderService) Contents(ctx context.Context, userID, folderID int64, unlocked map[int64]bool) (*services.FolderContents, error) {
	folder, err := s.Get(ctx, userID, folderID)
	if err != nil {
		return nil, err
	}
	if err := ensureFolderReadable(ctx, s.folders, userID, folder.ID, unlocked); err != nil {
		return nil, err
	}

	childFolders, err := s.folders.ListChildren(ctx, folder.ID, userID)
	if err != nil {
		return nil, err
	}
	childFiles, err := s.files.ListByFolder(ctx, folder.ID, userID)
	if err != nil {
		return nil, err
	}
	p := ""
	if !folder.IsRoot() {
		if p, err = s.folders.GetPath(ctx, folder.ID, userID); err != nil {
			return nil, err
		}
	}

	out := &services.FolderContents{
		Folder:  folder,
		Path:    p,
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

func (s *FolderService) Rename(ctx context.Context, userID, folderID int64, newName string) (*models.Folder, error) {
	if err := validName(newName); err != nil {
		return nil, fmt.Errorf("%w: name %v", domain.ErrValidation, err)
	}
	folder, err := s.folders.GetByID(ctx, folderID, userID)
	if err != nil {
		return nil, err
	}
	if folder.IsRoot() {
		return nil, fmt.Errorf("%w: the root folder cannot be renamed", domain.ErrPreconditionFailed)
	}
	if folder.Name == newName {
		return folder, nil
	}
	taken, err := nameInUse(ctx, s.files, s.folders, userID, *folder.ParentID, newName)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, &domain.ConflictError{Message: "an item with this name already exists", ItemType: "folder", ItemName: newName}
	}
	folder.Name = newName
	if err := s.folders.Update(ctx, folder); err != nil {
		return nil, err
	}
	return folder, nil
}

func (s *FolderService) Delete(ctx context.Context, userID, folderID int64) error {
	folder, err := s.folders.GetByID(ctx, folderID, userID)
	if err != nil {
		return err
	}
	if folder.IsRoot() {
		return fmt.Errorf("%w: the root folder cannot be deleted", domain.ErrPreconditionFailed)
	}
	nFolders, err := s.folders.CountChildren(ctx, folderID, userID)
	if err != nil {
		return err
	}
	nFiles, err := s.files.CountByFolder(ctx, folderID, userID)
	if err != nil {
		return err
	}
	if nFolders > 0 || nFiles > 0 {
		return fmt.Errorf("%w: folder %q is not empty", domain.ErrPreconditionFailed, folder.Name)
	}
	return s.folders.Delete(ctx, folderID, userID)
}

// Lock protects a folder with a password. The lock only gates reads: the
// owner keeps full delete rights over locked folders.
func (s *FolderService) Lock(ctx context.Context, userID, folderID int64, password string) error {
	if password == "" {
		return fmt.Errorf("%w: password is required", domain.ErrValidation)
	}
	folder, err := s.folders.GetByID(ctx, folderID, userID)
	if err != nil {
		return err
	}
	if folder.IsRoot() {
		return fmt.Errorf("%w: the root folder cannot be locked", domain.ErrPreconditionFailed)
	}
	if folder.IsLocked {
		return &domain.ConflictError{Message: "folder is already locked", ItemType: "folder", ItemName: folder.Name}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	h := string(hash)
	folder.Password = &h
	folder.IsLocked = true
	return s.folders.Update(ctx, folder)
}

func (s *FolderService) Unlock(ctx context.Context, userID, folderID int64, password string) error {
	folder, err := s.folders.GetByID(ctx, folderID, userID)
	if err != nil {
		return err
	}
	if !folder.IsLocked {
		return nil
	}
	return s.verifyLock(folder, password)
}

func (s *FolderService) ChangePassword(ctx context.Context, userID, folderID int64, oldPassword, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: new password is required", domain.ErrValidation)
	}
	folder, err := s.folders.GetByID(ctx, folderID, userID)
	if err != nil {
		return err
	}
	if !folder.IsLocked {
		return fmt.Errorf("%w: folder is not locked", domain.ErrPreconditionFailed)
	}
	if err := s.verifyLock(folder, oldPassword); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	h := string(hash)
	folder.Password = &h
	return s.folders.Update(ctx, folder)
}

func (s *FolderService) RemoveLock(ctx context.Context, userID, folderID int64, password string) error {
	folder, err := s.folders.GetByID(ctx, folderID, userID)
	if err != nil {
		return err
	}
	if !folder.IsLocked {
		return nil
	}
	if err := s.verifyLock(folder, password); err != nil {
		return err
	}
	folder.Password = nil
	folder.IsLocked = false
	return s.folders.Update(ctx, folder)
}

func (s *FolderService) verifyLock(folder *models.Folder, password string) error {
	if folder.Password == nil {
		return nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*folder.Password), []byte(password)); err != nil {
		return fmt.Errorf("%w: wrong folder password", domain.ErrUnauthorized)
	}
	return nil
}

func (s *FolderService) resolve(ctx context.Context, userID int64, folderID *int64) (*models.Folder, error) {
	if folderID == nil {
		return s.folders.GetRoot(ctx, userID)
	}
	return s.folders.GetByID(ctx, *folderID, userID)
}

// ensureFolderReadable walks from the folder to the root and fails when any
// folder on the chain is locked and absent from the unlocked set. A missing
// ancestor makes the whole chain inaccessible.
func ensureFolderReadable(ctx context.Context, folders repositories.FolderRepository, userID, folderID int64, unlocked map[int64]bool) error {
	id := folderID
	for {
		f, err := folders.GetByID(ctx, id, userID)
		if err != nil {
			return err
		}
		if f.IsLocked && !unlocked[f.ID] {
			return fmt.Errorf("%w: folder %q is locked", domain.ErrForbidden, f.Name)
		}
		if f.ParentID == nil {
			return nil
		}
		id = *f.ParentID
	}
}
