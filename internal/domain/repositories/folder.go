package repositories

import (
	"context"

	"assetlib/internal/domain/models"
)

// ListFoldersQuery filters and pages a folder listing. When ParentID is set
// the listing is scoped to that parent's children; when neither ParentID nor
// Search is set, only root folders are returned.
type ListFoldersQuery struct {
	OwnerID  int64
	ParentID *int64
	Search   string
	OrderBy  string // validated column name
	Order    string // "ASC" or "DESC"
	Page     int
	PerPage  int
}

// FolderRepository persists the folder tree. All writes are quiet: no job
// scheduling happens at this layer, services trigger jobs explicitly.
type FolderRepository interface {
	// Create persists a new folder and fills in ID and timestamps.
	// Returns a wrapped domain.ErrConflict on a sibling-slug unique violation.
	Create(ctx context.Context, folder *models.Folder) error

	// GetByID returns an active (not soft-deleted) folder.
	GetByID(ctx context.Context, id int64) (*models.Folder, error)

	// GetByIDAny returns a folder regardless of soft-delete state. Jobs use
	// this so a deleted folder's derived state can still be kept current.
	GetByIDAny(ctx context.Context, id int64) (*models.Folder, error)

	// GetByUUID returns an active folder by its opaque external identifier.
	GetByUUID(ctx context.Context, uuid string) (*models.Folder, error)

	// GetByUUIDAny is GetByUUID without the soft-delete filter; restore
	// resolves trashed folders through it.
	GetByUUIDAny(ctx context.Context, uuid string) (*models.Folder, error)

	// Update persists name, slug, parent_id and access_level.
	Update(ctx context.Context, folder *models.Folder) error

	// SetDepth persists a recomputed depth without touching anything else.
	SetDepth(ctx context.Context, id int64, depth int) error

	// SetCounters quietly persists recomputed counter caches.
	SetCounters(ctx context.Context, id int64, filesCount, foldersCount int) error

	// SetPreviewAssetIDs quietly persists the ordered preview list.
	SetPreviewAssetIDs(ctx context.Context, id int64, assetIDs []int64) error

	// SoftDelete marks the folder deleted; Restore reactivates it.
	SoftDelete(ctx context.Context, id int64) error
	Restore(ctx context.Context, id int64) error

	// List returns a page of folders plus the total match count.
	List(ctx context.Context, q ListFoldersQuery) ([]models.Folder, int, error)

	// ListChildren returns direct children, optionally including soft-deleted
	// ones (depth sync must reach trashed subtrees too).
	ListChildren(ctx context.Context, parentID int64, includeDeleted bool) ([]models.Folder, error)

	// ListChildIDs returns the IDs of active direct children.
	ListChildIDs(ctx context.Context, parentID int64) ([]int64, error)

	// CountChildren counts active direct child folders.
	CountChildren(ctx context.Context, parentID int64) (int, error)

	// SlugExists reports whether a sibling (including soft-deleted ones) in
	// the (parentID, ownerID) scope already uses slug, ignoring excludeID.
	SlugExists(ctx context.Context, parentID *int64, ownerID int64, slug string, excludeID int64) (bool, error)
}
