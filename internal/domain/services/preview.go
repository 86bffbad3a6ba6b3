package services

import (
	"context"

	"assetlib/internal/domain/models"
)

// PreviewService selects and maintains a folder's representative image assets.
type PreviewService interface {
	// Regenerate is the preview selection job body: choose up to the
	// configured max image assets (direct first, then direct children),
	// ensure thumbnails exist, and quietly persist the ordered ID list.
	Regenerate(ctx context.Context, folderID int64) error

	// Get returns the current preview assets in their stored order.
	Get(ctx context.Context, ownerID int64, folderUUID string) ([]models.Asset, error)

	// ToggleAsset pins exactly one asset as the folder's sole preview, or
	// unpins it if it is already the pinned one (the next job run reselects
	// automatically).
	ToggleAsset(ctx context.Context, ownerID int64, folderUUID, assetUUID string) (*models.Folder, error)
}
