package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/models"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/repositories"
)

// ShareRepository implements repositories.ShareRepository on Postgres.
type ShareRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewShareRepository creates a new share repository.
func NewShareRepository(config *RepositoryConfig) repositories.ShareRepository {
	return &ShareRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const shareColumns = "id, item_id, type, token, user_id, created_at, expires_at"

func scanShare(row interface{ Scan(...any) error }) (*models.Share, error) {
	var share models.Share
	err := row.Scan(
		&share.ID,
		&share.ItemID,
		&share.Type,
		&share.Token,
		&share.UserID,
		&share.CreatedAt,
		&share.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	return &share, nil
}

// Create inserts a share and fills in its ID.
func (r *ShareRepository) Create(ctx context.Context, share *models.Share) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (item_id, type, token, user_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, r.tables.Shares)

	err := queryer(ctx, r.pool).QueryRow(ctx, query,
		share.ItemID,
		share.Type,
		share.Token,
		share.UserID,
		share.CreatedAt,
		share.ExpiresAt,
	).Scan(&share.ID)

	if err != nil {
		// Token collision is astronomically unlikely but the unique index
		// still backstops it.
		if isPgDuplicateError(err) {
			return fmt.Errorf("share token: %w", domain.ErrConflict)
		}
		return fmt.Errorf("create share: %w", err)
	}

	return nil
}

// GetByToken retrieves a share by its opaque token.
func (r *ShareRepository) GetByToken(ctx context.Context, token string) (*models.Share, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE token = $1
	`, shareColumns, r.tables.Shares)

	share, err := scanShare(queryer(ctx, r.pool).QueryRow(ctx, query, token))
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("share: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get share: %w", err)
	}

	return share, nil
}

// ListByUser lists all shares created by a user.
func (r *ShareRepository) ListByUser(ctx context.Context, userID int64) ([]models.Share, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, shareColumns, r.tables.Shares)

	rows, err := queryer(ctx, r.pool).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	defer rows.Close()

	var shares []models.Share
	for rows.Next() {
		share, err := scanShare(rows)
		if err != nil {
			return nil, fmt.Errorf("scan share: %w", err)
		}
		shares = append(shares, *share)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shares: %w", err)
	}

	return shares, nil
}

// Delete revokes a share.
func (r *ShareRepository) Delete(ctx context.Context, id, userID int64) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1 AND user_id = $2
	`, r.tables.Shares)

	result, err := queryer(ctx, r.pool).Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete share: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("share %d: %w", id, domain.ErrNotFound)
	}

	return nil
}

// DeleteExpired removes shares whose expiry has passed.
func (r *ShareRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE expires_at IS NOT NULL AND expires_at < NOW()
	`, r.tables.Shares)

	result, err := queryer(ctx, r.pool).Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("delete expired shares: %w", err)
	}

	return result.RowsAffected(), nil
}
