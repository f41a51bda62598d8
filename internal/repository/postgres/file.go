package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/models"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/repositories"
)

// FileRepository implements repositories.FileRepository on Postgres.
type FileRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewFileRepository creates a new file repository.
func NewFileRepository(config *RepositoryConfig) repositories.FileRepository {
	return &FileRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const fileColumns = "message_id, file_name, mimetype, size, file_id, thumb_file_id, date, folder_id, user_id, storage_type"

func scanFile(row interface{ Scan(...any) error }) (*models.File, error) {
	var file models.File
	err := row.Scan(
		&file.MessageID,
		&file.FileName,
		&file.Mimetype,
		&file.Size,
		&file.FileID,
		&file.ThumbFileID,
		&file.Date,
		&file.FolderID,
		&file.UserID,
		&file.StorageType,
	)
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *FileRepository) conflictErr(name string) error {
	return &domain.ConflictError{
		Message:  fmt.Sprintf("a file named %q already exists in this folder", name),
		ItemType: "file",
		ItemName: name,
	}
}

// Create inserts a file row. A zero MessageID means the backend did not
// assign one (everything except the bot API); the catalog synthesizes it
// from a sequence.
func (r *FileRepository) Create(ctx context.Context, file *models.File) error {
	var err error
	if file.MessageID == 0 {
		query := fmt.Sprintf(`
			INSERT INTO %s (file_name, mimetype, size, file_id, thumb_file_id, date, folder_id, user_id, storage_type)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING message_id
		`, r.tables.Files)

		err = queryer(ctx, r.pool).QueryRow(ctx, query,
			file.FileName, file.Mimetype, file.Size, file.FileID, file.ThumbFileID,
			file.Date, file.FolderID, file.UserID, file.StorageType,
		).Scan(&file.MessageID)
	} else {
		query := fmt.Sprintf(`
			INSERT INTO %s (%s)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, r.tables.Files, fileColumns)

		_, err = queryer(ctx, r.pool).Exec(ctx, query,
			file.MessageID, file.FileName, file.Mimetype, file.Size, file.FileID,
			file.ThumbFileID, file.Date, file.FolderID, file.UserID, file.StorageType,
		)
	}

	if err != nil {
		if isPgDuplicateError(err) {
			return r.conflictErr(file.FileName)
		}
		return fmt.Errorf("create file: %w", err)
	}

	return nil
}

// GetByID retrieves a file by message ID.
func (r *FileRepository) GetByID(ctx context.Context, messageID, userID int64) (*models.File, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE message_id = $1 AND user_id = $2
	`, fileColumns, r.tables.Files)

	file, err := scanFile(queryer(ctx, r.pool).QueryRow(ctx, query, messageID, userID))
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("file %d: %w", messageID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get file: %w", err)
	}

	return file, nil
}

// GetByNameAndFolder finds a file by display name within a folder.
// Returns (nil, nil) when no such file exists.
func (r *FileRepository) GetByNameAndFolder(ctx context.Context, userID int64, name string, folderID int64) (*models.File, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE user_id = $1 AND file_name = $2 AND folder_id = $3
	`, fileColumns, r.tables.Files)

	file, err := scanFile(queryer(ctx, r.pool).QueryRow(ctx, query, userID, name, folderID))
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, nil // not found, not an error
		}
		return nil, fmt.Errorf("get file by name and folder: %w", err)
	}

	return file, nil
}

// Update persists file name and folder assignment.
func (r *FileRepository) Update(ctx context.Context, file *models.File) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET file_name = $1, folder_id = $2
		WHERE message_id = $3 AND user_id = $4
	`, r.tables.Files)

	result, err := queryer(ctx, r.pool).Exec(ctx, query,
		file.FileName, file.FolderID, file.MessageID, file.UserID,
	)

	if err != nil {
		if isPgDuplicateError(err) {
			return r.conflictErr(file.FileName)
		}
		return fmt.Errorf("update file: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("file %d: %w", file.MessageID, domain.ErrNotFound)
	}

	return nil
}

// Delete removes a single file row.
func (r *FileRepository) Delete(ctx context.Context, messageID, userID int64) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE message_id = $1 AND user_id = $2
	`, r.tables.Files)

	result, err := queryer(ctx, r.pool).Exec(ctx, query, messageID, userID)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("file %d: %w", messageID, domain.ErrNotFound)
	}

	return nil
}

// DeleteByIDs removes a batch of file rows in one statement.
func (r *FileRepository) DeleteByIDs(ctx context.Context, userID int64, messageIDs []int64) error {
	if len(messageIDs) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE user_id = $1 AND message_id = ANY($2)
	`, r.tables.Files)

	if _, err := queryer(ctx, r.pool).Exec(ctx, query, userID, messageIDs); err != nil {
		return fmt.Errorf("delete files: %w", err)
	}

	return nil
}

// ListByFolder lists the files directly inside a folder ordered by name.
func (r *FileRepository) ListByFolder(ctx context.Context, folderID, userID int64) ([]models.File, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE user_id = $1 AND folder_id = $2
		ORDER BY file_name ASC
	`, fileColumns, r.tables.Files)

	return r.queryFiles(ctx, query, userID, folderID)
}

// ListByFolders lists every file whose folder_id is in the given set.
func (r *FileRepository) ListByFolders(ctx context.Context, userID int64, folderIDs []int64) ([]models.File, error) {
	if len(folderIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE user_id = $1 AND folder_id = ANY($2)
	`, fileColumns, r.tables.Files)

	return r.queryFiles(ctx, query, userID, folderIDs)
}

// CountByFolder returns the number of files directly inside a folder.
func (r *FileRepository) CountByFolder(ctx context.Context, folderID, userID int64) (int64, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(*) FROM %s
		WHERE user_id = $1 AND folder_id = $2
	`, r.tables.Files)

	var count int64
	if err := queryer(ctx, r.pool).QueryRow(ctx, query, userID, folderID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count files: %w", err)
	}

	return count, nil
}

func (r *FileRepository) queryFiles(ctx context.Context, query string, args ...any) ([]models.File, error) {
	rows, err := queryer(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var files []models.File
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, *file)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}

	return files, nil
}
