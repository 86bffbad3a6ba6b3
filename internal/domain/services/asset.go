package services

import (
	"context"

	"assetlib/internal/domain/models"
)

// UploadAssetRequest stores one uploaded file. Data is the full file content;
// the service derives MIME type, checksum and image dimensions from it.
// FolderID wins when set; otherwise FolderUUID is resolved if present.
type UploadAssetRequest struct {
	OwnerID      *int64
	FolderID     *int64
	FolderUUID   string
	FolderPath   string // storage directory, validated slash path ("" = root)
	OriginalName string
	Data         []byte
}

// UploadedAsset pairs a stored asset with its public URL.
type UploadedAsset struct {
	Asset models.Asset
	URL   string
}

// ListAssetsRequest pages assets in a folder, newest first.
type ListAssetsRequest struct {
	OwnerID  *int64
	FolderID *int64
	Page     int
	PerPage  int
}

// AssetService stores uploads and keeps folder-consistency jobs flowing on
// asset lifecycle events.
type AssetService interface {
	Upload(ctx context.Context, req *UploadAssetRequest) (*UploadedAsset, error)

	// List returns one page plus the total match count.
	List(ctx context.Context, req *ListAssetsRequest) ([]UploadedAsset, int, error)

	// Move reassigns the asset to another folder (nil = unfiled) and
	// schedules jobs for both the old and the new folder. A nil ownerID marks
	// a trusted service caller and skips the ownership check.
	Move(ctx context.Context, ownerID *int64, assetUUID string, folderID *int64) (*models.Asset, error)

	// DeleteByPath removes the stored object and the record, then schedules a
	// recount for the former folder.
	DeleteByPath(ctx context.Context, path string) error
}
