package handler

import (
	"time"

	"assetlib/internal/domain/models"
	"assetlib/internal/domain/services"
)

// CreateFolderBody is the POST /api/v1/folders request body. ParentID is the
// parent's UUID; empty creates a root folder.
type CreateFolderBody struct {
	Name     string `json:"name"`
	ParentID string `json:"parent_id,omitempty"`
}

// RenameFolderBody is the PATCH /api/v1/folders/{id} request body.
type RenameFolderBody struct {
	Name string `json:"name"`
}

// MoveFolderBody is the POST /api/v1/folders/{id}/move request body. A null
// or absent parent_id moves the folder to the root.
type MoveFolderBody struct {
	ParentID *string `json:"parent_id"`
}

// CreateTokenBody is the POST /api/v1/folders/{id}/tokens request body.
type CreateTokenBody struct {
	CanCreateSubfolders bool       `json:"can_create_subfolders"`
	CanUpload           bool       `json:"can_upload"`
	ExpiresAt           *time.Time `json:"expires_at"`
}

// TogglePreviewBody is the POST /api/v1/folders/{id}/preview/toggle body.
type TogglePreviewBody struct {
	AssetID string `json:"asset_id"`
}

// MoveAssetBody is the POST /api/assets/{id}/move request body. FolderID is
// the destination folder's UUID; null unfiles the asset.
type MoveAssetBody struct {
	FolderID *string `json:"folder_id"`
}

// PageMeta describes one page of a listing.
type PageMeta struct {
	Total   int `json:"total"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// FolderListResponse is a paginated folder listing.
type FolderListResponse struct {
	Data []models.Folder `json:"data"`
	Meta PageMeta        `json:"meta"`
}

// FolderContentsResponse is a folder's direct children: subfolders paged,
// plus the assets on the same page.
type FolderContentsResponse struct {
	Folders []models.Folder `json:"folders"`
	Assets  []models.Asset  `json:"assets"`
	Meta    PageMeta        `json:"meta"`
}

// AssetListResponse is a paginated asset listing.
type AssetListResponse struct {
	Data []services.UploadedAsset `json:"data"`
	Meta PageMeta                 `json:"meta"`
}
