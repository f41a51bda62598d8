package services

import (
	"context"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/models"
)

type UserService interface {
	// Register creates a user with a bcrypt-hashed password and their
	// root folder in one transaction.
	Register(ctx context.Context, username, password string, isAdmin bool) (*models.User, error)

	// Authenticate verifies credentials, returning ErrUnauthorized on
	// any mismatch.
	Authenticate(ctx context.Context, username, password string) (*models.User, error)

	Get(ctx context.Context, userID int64) (*models.User, error)

	// Delete removes the user's stored objects best-effort, then every
	// catalog row belonging to them.
	Delete(ctx context.Context, userID int64) error
}
