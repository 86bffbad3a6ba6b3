package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"assetlib/internal/domain"
	"assetlib/internal/domain/models"
	"assetlib/internal/domain/repositories"
)

const tokenColumns = `id, folder_id, token, can_create_subfolders, can_upload,
	expires_at, created_at, updated_at`

// PostgresFolderTokenRepository implements the FolderTokenRepository interface.
type PostgresFolderTokenRepository struct {
	pool *pgxpool.Pool
}

// NewFolderTokenRepository creates a new folder token repository.
func NewFolderTokenRepository(config *RepositoryConfig) repositories.FolderTokenRepository {
	return &PostgresFolderTokenRepository{pool: config.Pool}
}

func (r *PostgresFolderTokenRepository) Create(ctx context.Context, token *models.FolderToken) error {
	query := `
		INSERT INTO folder_tokens (folder_id, token, can_create_subfolders, can_upload, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		token.FolderID,
		token.Token,
		token.CanCreateSubfolders,
		token.CanUpload,
		token.ExpiresAt,
	).Scan(&token.ID, &token.CreatedAt, &token.UpdatedAt)

	if err != nil {
		if isPgDuplicateError(err) {
			return fmt.Errorf("folder token: %w", domain.ErrConflict)
		}
		return fmt.Errorf("create folder token: %w", err)
	}

	return nil
}

func (r *PostgresFolderTokenRepository) GetByToken(ctx context.Context, token string) (*models.FolderToken, error) {
	query := fmt.Sprintf(`SELECT %s FROM folder_tokens WHERE token = $1`, tokenColumns)

	record, err := scanToken(GetExecutor(ctx, r.pool).QueryRow(ctx, query, token))
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("folder token: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get folder token: %w", err)
	}
	return record, nil
}

func (r *PostgresFolderTokenRepository) ListByFolder(ctx context.Context, folderID int64) ([]models.FolderToken, error) {
	query := fmt.Sprintf(`SELECT %s FROM folder_tokens WHERE folder_id = $1 ORDER BY id ASC`, tokenColumns)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, folderID)
	if err != nil {
		return nil, fmt.Errorf("list folder tokens: %w", err)
	}
	defer rows.Close()

	var tokens []models.FolderToken
	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan folder token: %w", err)
		}
		tokens = append(tokens, *token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folder tokens: %w", err)
	}
	return tokens, nil
}

func (r *PostgresFolderTokenRepository) Delete(ctx context.Context, id int64) error {
	result, err := GetExecutor(ctx, r.pool).Exec(ctx, `DELETE FROM folder_tokens WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete folder token: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder token %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func scanToken(row pgx.Row) (*models.FolderToken, error) {
	var token models.FolderToken
	err := row.Scan(
		&token.ID,
		&token.FolderID,
		&token.Token,
		&token.CanCreateSubfolders,
		&token.CanUpload,
		&token.ExpiresAt,
		&token.CreatedAt,
		&token.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &token, nil
}
