package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/models"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/repositories"
)

// UserRepository implements repositories.UserRepository on Postgres.
type UserRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewUserRepository creates a new user repository.
func NewUserRepository(config *RepositoryConfig) repositories.UserRepository {
	return &UserRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create inserts the user and their root folder. Runs inside whatever
// transaction rides in the context; callers wrap it with ExecTx so a failed
// root insert never leaves a rootless user behind.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (username, password, is_admin)
		VALUES ($1, $2, $3)
		RETURNING id
	`, r.tables.Users)

	err := queryer(ctx, r.pool).QueryRow(ctx, query,
		user.Username, user.Password, user.IsAdmin,
	).Scan(&user.ID)

	if err != nil {
		if isPgDuplicateError(err) {
			return fmt.Errorf("username %q: %w", user.Username, domain.ErrConflict)
		}
		return fmt.Errorf("create user: %w", err)
	}

	rootQuery := fmt.Sprintf(`
		INSERT INTO %s (name, parent_id, user_id, is_locked, password)
		VALUES ($1, NULL, $2, FALSE, NULL)
	`, r.tables.Folders)

	if _, err := queryer(ctx, r.pool).Exec(ctx, rootQuery, "root", user.ID); err != nil {
		return fmt.Errorf("create root folder: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := fmt.Sprintf(`
		SELECT id, username, password, is_admin FROM %s
		WHERE id = $1
	`, r.tables.Users)

	var user models.User
	err := queryer(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Username, &user.Password, &user.IsAdmin,
	)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

// GetByUsername retrieves a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := fmt.Sprintf(`
		SELECT id, username, password, is_admin FROM %s
		WHERE username = $1
	`, r.tables.Users)

	var user models.User
	err := queryer(ctx, r.pool).QueryRow(ctx, query, username).Scan(
		&user.ID, &user.Username, &user.Password, &user.IsAdmin,
	)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("user %q: %w", username, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

// Delete removes the user row. Folders, files and shares cascade at the
// catalog level; physical storage cleanup must happen before this call.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1
	`, r.tables.Users)

	result, err := queryer(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}

	return nil
}
