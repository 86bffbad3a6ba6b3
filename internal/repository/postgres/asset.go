package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"assetlib/internal/domain"
	"assetlib/internal/domain/models"
	"assetlib/internal/domain/repositories"
)

const assetColumns = `id, uuid, path, folder_id, owner_id, mime, width, height,
	size_bytes, checksum, generated_thumbs, original_name, created_at, updated_at`

// PostgresAssetRepository implements the AssetRepository interface.
type PostgresAssetRepository struct {
	pool *pgxpool.Pool
}

// NewAssetRepository creates a new asset repository.
func NewAssetRepository(config *RepositoryConfig) repositories.AssetRepository {
	return &PostgresAssetRepository{pool: config.Pool}
}

// Create persists a new asset record.
func (r *PostgresAssetRepository) Create(ctx context.Context, asset *models.Asset) error {
	thumbs, err := marshalThumbs(asset.GeneratedThumbs)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO assets (uuid, path, folder_id, owner_id, mime, width, height,
			size_bytes, checksum, generated_thumbs, original_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`

	err = GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		asset.UUID,
		asset.Path,
		asset.FolderID,
		asset.OwnerID,
		asset.Mime,
		asset.Width,
		asset.Height,
		asset.SizeBytes,
		asset.Checksum,
		thumbs,
		asset.OriginalName,
	).Scan(&asset.ID, &asset.CreatedAt, &asset.UpdatedAt)

	if err != nil {
		if isPgDuplicateError(err) {
			return fmt.Errorf("asset path %q: %w", asset.Path, domain.ErrConflict)
		}
		// The folder vanished between the service's check and the insert.
		if isPgForeignKeyError(err) {
			return fmt.Errorf("asset folder: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("create asset: %w", err)
	}

	return nil
}

// GetByID retrieves an asset by internal ID.
func (r *PostgresAssetRepository) GetByID(ctx context.Context, id int64) (*models.Asset, error) {
	query := fmt.Sprintf(`SELECT %s FROM assets WHERE id = $1`, assetColumns)
	return r.getOne(ctx, query, id)
}

// GetByUUID retrieves an asset by its opaque external identifier.
func (r *PostgresAssetRepository) GetByUUID(ctx context.Context, uuid string) (*models.Asset, error) {
	query := fmt.Sprintf(`SELECT %s FROM assets WHERE uuid = $1`, assetColumns)
	return r.getOne(ctx, query, uuid)
}

// GetByPath retrieves an asset by its storage path.
func (r *PostgresAssetRepository) GetByPath(ctx context.Context, path string) (*models.Asset, error) {
	query := fmt.Sprintf(`SELECT %s FROM assets WHERE path = $1`, assetColumns)
	return r.getOne(ctx, query, path)
}

// List returns a page of assets newest first, scoped to a folder or the
// unfiled pool, plus the total match count.
func (r *PostgresAssetRepository) List(ctx context.Context, q repositories.ListAssetsQuery) ([]models.Asset, int, error) {
	where := `folder_id IS NULL`
	var args []any

	if q.FolderID != nil {
		args = append(args, *q.FolderID)
		where = fmt.Sprintf(`folder_id = $%d`, len(args))
	}
	if q.OwnerID != nil {
		args = append(args, *q.OwnerID)
		where += fmt.Sprintf(` AND owner_id = $%d`, len(args))
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT count(*) FROM assets WHERE %s`, where)
	if err := GetExecutor(ctx, r.pool).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count assets: %w", err)
	}

	args = append(args, q.PerPage, (q.Page-1)*q.PerPage)
	query := fmt.Sprintf(`
		SELECT %s FROM assets
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, assetColumns, where, len(args)-1, len(args))

	assets, err := r.getMany(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return assets, total, nil
}

// ListByIDs returns assets for the given IDs.
func (r *PostgresAssetRepository) ListByIDs(ctx context.Context, ids []int64) ([]models.Asset, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM assets WHERE id = ANY($1)`, assetColumns)
	return r.getMany(ctx, query, ids)
}

// ListImages returns image-MIME assets directly in any of the given folders,
// most-recently-created first.
func (r *PostgresAssetRepository) ListImages(ctx context.Context, folderIDs []int64, limit int) ([]models.Asset, error) {
	if len(folderIDs) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`
		SELECT %s FROM assets
		WHERE folder_id = ANY($1) AND mime LIKE 'image/%%'
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, assetColumns)
	return r.getMany(ctx, query, folderIDs, limit)
}

// CountByFolder counts assets directly in a folder.
func (r *PostgresAssetRepository) CountByFolder(ctx context.Context, folderID int64) (int, error) {
	var count int
	err := GetExecutor(ctx, r.pool).QueryRow(ctx,
		`SELECT count(*) FROM assets WHERE folder_id = $1`, folderID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count assets: %w", err)
	}
	return count, nil
}

// SetFolder reassigns the asset to a folder (nil = unfiled).
func (r *PostgresAssetRepository) SetFolder(ctx context.Context, id int64, folderID *int64) error {
	result, err := GetExecutor(ctx, r.pool).Exec(ctx,
		`UPDATE assets SET folder_id = $1, updated_at = now() WHERE id = $2`, folderID, id)
	if err != nil {
		if isPgForeignKeyError(err) {
			return fmt.Errorf("destination folder: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("move asset: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("asset %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// SetGeneratedThumbs quietly persists the thumbnail-variant mapping.
func (r *PostgresAssetRepository) SetGeneratedThumbs(ctx context.Context, id int64, thumbs map[string]models.Thumbnail) error {
	data, err := marshalThumbs(thumbs)
	if err != nil {
		return err
	}
	_, err = GetExecutor(ctx, r.pool).Exec(ctx,
		`UPDATE assets SET generated_thumbs = $1 WHERE id = $2`, data, id)
	if err != nil {
		return fmt.Errorf("set asset thumbs: %w", err)
	}
	return nil
}

// Delete removes the asset record.
func (r *PostgresAssetRepository) Delete(ctx context.Context, id int64) error {
	result, err := GetExecutor(ctx, r.pool).Exec(ctx, `DELETE FROM assets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("asset %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *PostgresAssetRepository) getOne(ctx context.Context, query string, arg any) (*models.Asset, error) {
	asset, err := scanAsset(GetExecutor(ctx, r.pool).QueryRow(ctx, query, arg))
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("asset %v: %w", arg, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get asset: %w", err)
	}
	return asset, nil
}

func (r *PostgresAssetRepository) getMany(ctx context.Context, query string, args ...any) ([]models.Asset, error) {
	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var assets []models.Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		assets = append(assets, *asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assets: %w", err)
	}
	return assets, nil
}

func scanAsset(row pgx.Row) (*models.Asset, error) {
	var asset models.Asset
	var thumbs []byte

	err := row.Scan(
		&asset.ID,
		&asset.UUID,
		&asset.Path,
		&asset.FolderID,
		&asset.OwnerID,
		&asset.Mime,
		&asset.Width,
		&asset.Height,
		&asset.SizeBytes,
		&asset.Checksum,
		&thumbs,
		&asset.OriginalName,
		&asset.CreatedAt,
		&asset.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(thumbs) > 0 {
		if err := json.Unmarshal(thumbs, &asset.GeneratedThumbs); err != nil {
			return nil, fmt.Errorf("decode generated_thumbs: %w", err)
		}
	}

	return &asset, nil
}

func marshalThumbs(thumbs map[string]models.Thumbnail) ([]byte, error) {
	if thumbs == nil {
		return nil, nil
	}
	data, err := json.Marshal(thumbs)
	if err != nil {
		return nil, fmt.Errorf("encode generated_thumbs: %w", err)
	}
	return data, nil
}
