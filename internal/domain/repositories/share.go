package repositories

import (
	"context"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/models"
)

// ShareRepository defines catalog access for share tokens.
type ShareRepository interface {
	Create(ctx context.Context, share *models.Share) error

	// GetByToken retrieves a share by its opaque token.
	GetByToken(ctx context.Context, token string) (*models.Share, error)

	// ListByUser lists all shares created by a user.
	ListByUser(ctx context.Context, userID int64) ([]models.Share, error)

	// Delete revokes a share.
	Delete(ctx context.Context, id, userID int64) error

	// DeleteExpired removes shares whose expiry has passed.
	DeleteExpired(ctx context.Context) (int64, error)
}
