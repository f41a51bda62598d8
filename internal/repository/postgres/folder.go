package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/models"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/repositories"
)

// FolderRepository implements repositories.FolderRepository on Postgres.
type FolderRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewFolderRepository creates a new folder repository.
func NewFolderRepository(config *RepositoryConfig) repositories.FolderRepository {
	return &FolderRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const folderColumns = "id, name, parent_id, user_id, is_locked, password"

func scanFolder(row interface{ Scan(...any) error }) (*models.Folder, error) {
	var folder models.Folder
	err := row.Scan(
		&folder.ID,
		&folder.Name,
		&folder.ParentID,
		&folder.UserID,
		&folder.IsLocked,
		&folder.Password,
	)
	if err != nil {
		return nil, err
	}
	return &folder, nil
}

// Create inserts a new folder and fills in its ID.
func (r *FolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, parent_id, user_id, is_locked, password)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, r.tables.Folders)

	err := queryer(ctx, r.pool).QueryRow(ctx, query,
		folder.Name,
		folder.ParentID,
		folder.UserID,
		folder.IsLocked,
		folder.Password,
	).Scan(&folder.ID)

	if err != nil {
		if isPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:  fmt.Sprintf("a folder named %q already exists in this location", folder.Name),
				ItemType: "folder",
				ItemName: folder.Name,
			}
		}
		return fmt.Errorf("create folder: %w", err)
	}

	return nil
}

// GetByID retrieves a folder by ID.
func (r *FolderRepository) GetByID(ctx context.Context, id, userID int64) (*models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE id = $1 AND user_id = $2
	`, folderColumns, r.tables.Folders)

	folder, err := scanFolder(queryer(ctx, r.pool).QueryRow(ctx, query, id, userID))
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("folder %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get folder: %w", err)
	}

	return folder, nil
}

// GetRoot retrieves the user's root folder.
func (r *FolderRepository) GetRoot(ctx context.Context, userID int64) (*models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE user_id = $1 AND parent_id IS NULL
	`, folderColumns, r.tables.Folders)

	folder, err := scanFolder(queryer(ctx, r.pool).QueryRow(ctx, query, userID))
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("root folder for user %d: %w", userID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get root folder: %w", err)
	}

	return folder, nil
}

// GetByNameAndParent finds a folder by name under a parent.
// Returns (nil, nil) when no such folder exists.
func (r *FolderRepository) GetByNameAndParent(ctx context.Context, userID int64, name string, parentID int64) (*models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE user_id = $1 AND name = $2 AND parent_id = $3
	`, folderColumns, r.tables.Folders)

	folder, err := scanFolder(queryer(ctx, r.pool).QueryRow(ctx, query, userID, name, parentID))
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, nil // not found, not an error
		}
		return nil, fmt.Errorf("get folder by name and parent: %w", err)
	}

	return folder, nil
}

// Update persists name, parent, lock state and password.
func (r *FolderRepository) Update(ctx context.Context, folder *models.Folder) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, parent_id = $2, is_locked = $3, password = $4
		WHERE id = $5 AND user_id = $6
	`, r.tables.Folders)

	result, err := queryer(ctx, r.pool).Exec(ctx, query,
		folder.Name,
		folder.ParentID,
		folder.IsLocked,
		folder.Password,
		folder.ID,
		folder.UserID,
	)

	if err != nil {
		if isPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:  fmt.Sprintf("a folder named %q already exists in this location", folder.Name),
				ItemType: "folder",
				ItemName: folder.Name,
			}
		}
		return fmt.Errorf("update folder: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %d: %w", folder.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete removes a single folder row.
func (r *FolderRepository) Delete(ctx context.Context, id, userID int64) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1 AND user_id = $2
	`, r.tables.Folders)

	result, err := queryer(ctx, r.pool).Exec(ctx, query, id, userID)
	if err != nil {
		if isPgForeignKeyError(err) {
			return fmt.Errorf("folder %d still has children: %w", id, domain.ErrPreconditionFailed)
		}
		return fmt.Errorf("delete folder: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %d: %w", id, domain.ErrNotFound)
	}

	return nil
}

// DeleteByIDs removes a batch of folder rows.
func (r *FolderRepository) DeleteByIDs(ctx context.Context, userID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE user_id = $1 AND id = ANY($2)
	`, r.tables.Folders)

	if _, err := queryer(ctx, r.pool).Exec(ctx, query, userID, ids); err != nil {
		return fmt.Errorf("delete folders: %w", err)
	}

	return nil
}

// ListChildren lists immediate child folders ordered by name.
func (r *FolderRepository) ListChildren(ctx context.Context, parentID, userID int64) ([]models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE user_id = $1 AND parent_id = $2
		ORDER BY name ASC
	`, folderColumns, r.tables.Folders)

	rows, err := queryer(ctx, r.pool).Query(ctx, query, userID, parentID)
	if err != nil {
		return nil, fmt.Errorf("list folder children: %w", err)
	}
	defer rows.Close()

	var folders []models.Folder
	for rows.Next() {
		folder, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, *folder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folders: %w", err)
	}

	return folders, nil
}

// CountChildren returns the number of immediate child folders.
func (r *FolderRepository) CountChildren(ctx context.Context, parentID, userID int64) (int64, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(*) FROM %s
		WHERE user_id = $1 AND parent_id = $2
	`, r.tables.Folders)

	var count int64
	if err := queryer(ctx, r.pool).QueryRow(ctx, query, userID, parentID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count folder children: %w", err)
	}

	return count, nil
}

// GetPath computes the slash-joined path from the root to the folder using a
// recursive CTE. The root's own name is excluded, so a folder directly under
// the root yields just its own name.
func (r *FolderRepository) GetPath(ctx context.Context, id, userID int64) (string, error) {
	query := fmt.Sprintf(`
		WITH RECURSIVE folder_path AS (
			SELECT id, name, parent_id, name::text AS path
			FROM %s
			WHERE id = $1 AND user_id = $2
			UNION ALL
			SELECT f.id, f.name, f.parent_id,
			       CASE WHEN f.parent_id IS NULL THEN fp.path
			            ELSE f.name || '/' || fp.path END
			FROM %s f
			JOIN folder_path fp ON f.id = fp.parent_id
		)
		SELECT path FROM folder_path WHERE parent_id IS NULL
	`, r.tables.Folders, r.tables.Folders)

	var path string
	err := queryer(ctx, r.pool).QueryRow(ctx, query, id, userID).Scan(&path)
	if err != nil {
		if isPgNoRowsError(err) {
			return "", fmt.Errorf("folder %d: %w", id, domain.ErrNotFound)
		}
		return "", fmt.Errorf("get folder path: %w", err)
	}

	return path, nil
}

// ListByUser retrieves every folder a user owns.
func (r *FolderRepository) ListByUser(ctx context.Context, userID int64) ([]models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE user_id = $1
		ORDER BY id ASC
	`, folderColumns, r.tables.Folders)

	rows, err := queryer(ctx, r.pool).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	defer rows.Close()

	var folders []models.Folder
	for rows.Next() {
		folder, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, *folder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folders: %w", err)
	}

	return folders, nil
}
