package repositories

import (
	"context"

	"assetlib/internal/domain/models"
)

// ListAssetsQuery pages assets within a folder (or the unfiled pool when
// FolderID is nil), newest first.
type ListAssetsQuery struct {
	FolderID *int64
	OwnerID  *int64
	Page     int
	PerPage  int
}

// AssetRepository persists asset records. Writes are quiet; services schedule
// the folder-consistency jobs explicitly.
type AssetRepository interface {
	Create(ctx context.Context, asset *models.Asset) error
	GetByID(ctx context.Context, id int64) (*models.Asset, error)
	GetByUUID(ctx context.Context, uuid string) (*models.Asset, error)
	GetByPath(ctx context.Context, path string) (*models.Asset, error)

	// List returns one page plus the total match count.
	List(ctx context.Context, q ListAssetsQuery) ([]models.Asset, int, error)

	// ListByIDs returns the assets for the given IDs in no particular order;
	// callers re-apply their own ordering.
	ListByIDs(ctx context.Context, ids []int64) ([]models.Asset, error)

	// ListImages returns image-MIME assets directly owned by any of the given
	// folders, most-recently-created first, up to limit.
	ListImages(ctx context.Context, folderIDs []int64, limit int) ([]models.Asset, error)

	// CountByFolder counts assets directly in a folder.
	CountByFolder(ctx context.Context, folderID int64) (int, error)

	// SetFolder reassigns the asset to a folder (nil = unfiled).
	SetFolder(ctx context.Context, id int64, folderID *int64) error

	// SetGeneratedThumbs quietly persists the thumbnail-variant mapping.
	SetGeneratedThumbs(ctx context.Context, id int64, thumbs map[string]models.Thumbnail) error

	Delete(ctx context.Context, id int64) error
}
