package repositories

import (
	"context"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/models"
)

// UserRepository defines catalog access for users.
type UserRepository interface {
	// Create inserts the user and their root folder in one transaction.
	Create(ctx context.Context, user *models.User) error

	GetByID(ctx context.Context, id int64) (*models.User, error)

	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// Delete removes the user row; folders, files and shares go with it via
	// catalog-level cascade. Physical cleanup happens before this call.
	Delete(ctx context.Context, id int64) error
}
