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

const folderColumns = `id, uuid, name, slug, parent_id, owner_id, access_level,
	preview_asset_ids, depth, files_count, folders_count, created_at, updated_at, deleted_at`

// PostgresFolderRepository implements the FolderRepository interface.
type PostgresFolderRepository struct {
	pool *pgxpool.Pool
}

// NewFolderRepository creates a new folder repository.
func NewFolderRepository(config *RepositoryConfig) repositories.FolderRepository {
	return &PostgresFolderRepository{pool: config.Pool}
}

// Create persists a new folder. The sibling-slug unique index surfaces
// concurrent-create races as a conflict the caller can retry.
func (r *PostgresFolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	preview, err := marshalPreviewIDs(folder.PreviewAssetIDs)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO folders (uuid, name, slug, parent_id, owner_id, access_level,
			preview_asset_ids, depth, files_count, folders_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	err = GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		folder.UUID,
		folder.Name,
		folder.Slug,
		folder.ParentID,
		folder.OwnerID,
		folder.AccessLevel,
		preview,
		folder.Depth,
		folder.FilesCount,
		folder.FoldersCount,
	).Scan(&folder.ID, &folder.CreatedAt, &folder.UpdatedAt)

	if err != nil {
		if isPgDuplicateError(err) {
			return fmt.Errorf("folder slug %q: %w", folder.Slug, domain.ErrConflict)
		}
		return fmt.Errorf("create folder: %w", err)
	}

	return nil
}

// GetByID retrieves an active folder by internal ID.
func (r *PostgresFolderRepository) GetByID(ctx context.Context, id int64) (*models.Folder, error) {
	query := fmt.Sprintf(`SELECT %s FROM folders WHERE id = $1 AND deleted_at IS NULL`, folderColumns)
	return r.getOne(ctx, query, id)
}

// GetByIDAny retrieves a folder regardless of soft-delete state.
func (r *PostgresFolderRepository) GetByIDAny(ctx context.Context, id int64) (*models.Folder, error) {
	query := fmt.Sprintf(`SELECT %s FROM folders WHERE id = $1`, folderColumns)
	return r.getOne(ctx, query, id)
}

// GetByUUID retrieves an active folder by its opaque external identifier.
func (r *PostgresFolderRepository) GetByUUID(ctx context.Context, uuid string) (*models.Folder, error) {
	query := fmt.Sprintf(`SELECT %s FROM folders WHERE uuid = $1 AND deleted_at IS NULL`, folderColumns)
	return r.getOne(ctx, query, uuid)
}

// GetByUUIDAny retrieves a folder by external identifier regardless of
// soft-delete state; restore flows look trashed folders up this way.
func (r *PostgresFolderRepository) GetByUUIDAny(ctx context.Context, uuid string) (*models.Folder, error) {
	query := fmt.Sprintf(`SELECT %s FROM folders WHERE uuid = $1`, folderColumns)
	return r.getOne(ctx, query, uuid)
}

// Update persists name, slug, parent and access level.
func (r *PostgresFolderRepository) Update(ctx context.Context, folder *models.Folder) error {
	query := `
		UPDATE folders
		SET name = $1, slug = $2, parent_id = $3, access_level = $4, updated_at = now()
		WHERE id = $5
	`

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query,
		folder.Name,
		folder.Slug,
		folder.ParentID,
		folder.AccessLevel,
		folder.ID,
	)
	if err != nil {
		if isPgDuplicateError(err) {
			return fmt.Errorf("folder slug %q: %w", folder.Slug, domain.ErrConflict)
		}
		return fmt.Errorf("update folder: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %d: %w", folder.ID, domain.ErrNotFound)
	}

	return nil
}

// SetDepth quietly persists a recomputed depth.
func (r *PostgresFolderRepository) SetDepth(ctx context.Context, id int64, depth int) error {
	_, err := GetExecutor(ctx, r.pool).Exec(ctx,
		`UPDATE folders SET depth = $1 WHERE id = $2`, depth, id)
	if err != nil {
		return fmt.Errorf("set folder depth: %w", err)
	}
	return nil
}

// SetCounters quietly persists recomputed counter caches.
func (r *PostgresFolderRepository) SetCounters(ctx context.Context, id int64, filesCount, foldersCount int) error {
	_, err := GetExecutor(ctx, r.pool).Exec(ctx,
		`UPDATE folders SET files_count = $1, folders_count = $2 WHERE id = $3`,
		filesCount, foldersCount, id)
	if err != nil {
		return fmt.Errorf("set folder counters: %w", err)
	}
	return nil
}

// SetPreviewAssetIDs quietly persists the ordered preview list.
func (r *PostgresFolderRepository) SetPreviewAssetIDs(ctx context.Context, id int64, assetIDs []int64) error {
	preview, err := marshalPreviewIDs(assetIDs)
	if err != nil {
		return err
	}

	_, err = GetExecutor(ctx, r.pool).Exec(ctx,
		`UPDATE folders SET preview_asset_ids = $1 WHERE id = $2`, preview, id)
	if err != nil {
		return fmt.Errorf("set folder preview: %w", err)
	}
	return nil
}

// SoftDelete marks the folder deleted.
func (r *PostgresFolderRepository) SoftDelete(ctx context.Context, id int64) error {
	result, err := GetExecutor(ctx, r.pool).Exec(ctx,
		`UPDATE folders SET deleted_at = now(), updated_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Restore reactivates a soft-deleted folder.
func (r *PostgresFolderRepository) Restore(ctx context.Context, id int64) error {
	result, err := GetExecutor(ctx, r.pool).Exec(ctx,
		`UPDATE folders SET deleted_at = NULL, updated_at = now() WHERE id = $1 AND deleted_at IS NOT NULL`, id)
	if err != nil {
		return fmt.Errorf("restore folder: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// List returns a page of active folders plus the total match count.
func (r *PostgresFolderRepository) List(ctx context.Context, q repositories.ListFoldersQuery) ([]models.Folder, int, error) {
	where := `owner_id = $1 AND deleted_at IS NULL`
	args := []any{q.OwnerID}

	switch {
	case q.ParentID != nil:
		args = append(args, *q.ParentID)
		where += fmt.Sprintf(` AND parent_id = $%d`, len(args))
	case q.Search == "":
		where += ` AND parent_id IS NULL`
	}
	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		where += fmt.Sprintf(` AND name ILIKE $%d`, len(args))
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT count(*) FROM folders WHERE %s`, where)
	if err := GetExecutor(ctx, r.pool).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count folders: %w", err)
	}

	orderBy, order := models.NormalizeOrder(q.OrderBy, q.Order)
	args = append(args, q.PerPage, (q.Page-1)*q.PerPage)
	query := fmt.Sprintf(`
		SELECT %s FROM folders
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, folderColumns, where, orderBy, order, len(args)-1, len(args))

	folders, err := r.getMany(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return folders, total, nil
}

// ListChildren returns direct children, optionally including soft-deleted
// ones so depth sync reaches trashed subtrees.
func (r *PostgresFolderRepository) ListChildren(ctx context.Context, parentID int64, includeDeleted bool) ([]models.Folder, error) {
	query := fmt.Sprintf(`SELECT %s FROM folders WHERE parent_id = $1`, folderColumns)
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	query += ` ORDER BY id ASC`

	return r.getMany(ctx, query, parentID)
}

// ListChildIDs returns the IDs of active direct children.
func (r *PostgresFolderRepository) ListChildIDs(ctx context.Context, parentID int64) ([]int64, error) {
	rows, err := GetExecutor(ctx, r.pool).Query(ctx,
		`SELECT id FROM folders WHERE parent_id = $1 AND deleted_at IS NULL ORDER BY id ASC`, parentID)
	if err != nil {
		return nil, fmt.Errorf("list child folder ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan folder id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folder ids: %w", err)
	}
	return ids, nil
}

// CountChildren counts active direct child folders.
func (r *PostgresFolderRepository) CountChildren(ctx context.Context, parentID int64) (int, error) {
	var count int
	err := GetExecutor(ctx, r.pool).QueryRow(ctx,
		`SELECT count(*) FROM folders WHERE parent_id = $1 AND deleted_at IS NULL`, parentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count child folders: %w", err)
	}
	return count, nil
}

// SlugExists probes the (parent, owner) sibling scope, soft-deleted rows
// included, ignoring excludeID.
func (r *PostgresFolderRepository) SlugExists(ctx context.Context, parentID *int64, ownerID int64, slug string, excludeID int64) (bool, error) {
	var query string
	args := []any{ownerID, slug, excludeID}

	if parentID == nil {
		query = `
			SELECT EXISTS (
				SELECT 1 FROM folders
				WHERE owner_id = $1 AND slug = $2 AND id != $3 AND parent_id IS NULL
			)`
	} else {
		args = append(args, *parentID)
		query = `
			SELECT EXISTS (
				SELECT 1 FROM folders
				WHERE owner_id = $1 AND slug = $2 AND id != $3 AND parent_id = $4
			)`
	}

	var exists bool
	if err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return exists, nil
}

func (r *PostgresFolderRepository) getOne(ctx context.Context, query string, arg any) (*models.Folder, error) {
	folder, err := scanFolder(GetExecutor(ctx, r.pool).QueryRow(ctx, query, arg))
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("folder %v: %w", arg, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get folder: %w", err)
	}
	return folder, nil
}

func (r *PostgresFolderRepository) getMany(ctx context.Context, query string, args ...any) ([]models.Folder, error) {
	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, args...)
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

func scanFolder(row pgx.Row) (*models.Folder, error) {
	var folder models.Folder
	var preview []byte

	err := row.Scan(
		&folder.ID,
		&folder.UUID,
		&folder.Name,
		&folder.Slug,
		&folder.ParentID,
		&folder.OwnerID,
		&folder.AccessLevel,
		&preview,
		&folder.Depth,
		&folder.FilesCount,
		&folder.FoldersCount,
		&folder.CreatedAt,
		&folder.UpdatedAt,
		&folder.DeletedAt,
	)
	if err != nil {
		return nil, err
	}

	folder.PreviewAssetIDs = []int64{}
	if len(preview) > 0 {
		if err := json.Unmarshal(preview, &folder.PreviewAssetIDs); err != nil {
			return nil, fmt.Errorf("decode preview_asset_ids: %w", err)
		}
	}

	return &folder, nil
}

func marshalPreviewIDs(ids []int64) ([]byte, error) {
	if ids == nil {
		ids = []int64{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("encode preview_asset_ids: %w", err)
	}
	return data, nil
}
