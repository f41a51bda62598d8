package service

import (
	"context"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/models"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/repositories"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/services"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/storage"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/storage/local"
)

type UserService struct {
	users    repositories.UserRepository
	folders  repositories.FolderRepository
	files    repositories.FileRepository
	backends BackendResolver
	tx       repositories.TransactionManager
	logger   *slog.Logger
}

var _ services.UserService = (*UserService)(nil)

func NewUserService(
	users repositories.UserRepository,
	folders repositories.FolderRepository,
	files repositories.FileRepository,
	backends BackendResolver,
	tx repositories.TransactionManager,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:    users,
		folders:  folders,
		files:    files,
		backends: backends,
		tx:       tx,
		logger:   logger.With("service", "user"),
	}
}

func (s *UserService) Register(ctx context.Context, username, password string, isAdmin bool) (*models.User, error) {
	if err := validation.Validate(username, validation.Required, validation.Length(3, 64)); err != nil {
		return nil, fmt.Errorf("%w: username %v", domain.ErrValidation, err)
	}
	if err := validation.Validate(password, validation.Required, validation.Length(8, 128)); err != nil {
		return nil, fmt.Errorf("%w: password %v", domain.ErrValidation, err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username: username,
		Password: string(hash),
		IsAdmin:  isAdmin,
	}
	// The user row and the root folder commit together: a failed root
	// insert must never leave a rootless account behind.
	err = s.tx.ExecTx(ctx, func(txCtx context.Context) error {
		return s.users.Create(txCtx, user)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Authenticate verifies credentials. Unknown usernames and wrong passwords
// are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, userID int64) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// Delete removes a user. Every stored object of theirs is deleted
// best-effort first, grouped per backend, then the whole local directory,
// and finally the user row with its catalog cascade.
func (s *UserService) Delete(ctx context.Context, userID int64) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return err
	}
	folders, err := s.folders.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	ids := make([]int64, len(folders))
	for i := range folders {
		ids[i] = folders[i].ID
	}
	files, err := s.files.ListByFolders(ctx, userID, ids)
	if err != nil {
		return err
	}

	hadLocal, _ := removeFilesPhysical(ctx, s.backends, s.logger, files)
	if hadLocal {
		if b, err := s.backends.ForType(ctx, storage.TypeLocal); err == nil {
			report := b.Remove(ctx, []storage.RemoveItem{{Locator: local.UserDir(userID), IsDir: true}})
			for _, fail := range report.Failed {
				s.logger.Warn("local user directory cleanup failed", "locator", fail.Locator, "error", fail.Err)
			}
		}
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("user deleted", "user_id", userID, "files_removed", len(files))
	return nil
}
