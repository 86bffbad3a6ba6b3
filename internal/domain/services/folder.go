package services

import (
	"context"

	"assetlib/internal/domain/models"
)

// CreateFolderRequest creates a folder under an optional parent (nil = root).
type CreateFolderRequest struct {
	OwnerID  int64
	Name     string
	ParentID *int64 // internal ID of the parent, resolved by the handler
}

// RenameFolderRequest renames a folder; the slug is regenerated from the name.
type RenameFolderRequest struct {
	OwnerID int64
	Name    string
}

// MoveFolderRequest reparents a folder. ParentID nil moves it to the root.
type MoveFolderRequest struct {
	OwnerID  int64
	ParentID *int64
}

// ListFoldersRequest pages the owner's folders. Without ParentID or Search,
// only root folders are listed.
type ListFoldersRequest struct {
	OwnerID  int64
	ParentID *int64
	Search   string
	OrderBy  string
	Order    string
	Page     int
	PerPage  int
}

// ListChildrenRequest pages a folder's direct children and assets.
type ListChildrenRequest struct {
	OwnerID int64
	OrderBy string
	Order   string
	Page    int
	PerPage int
}

// FolderPage is one page of a folder listing.
type FolderPage struct {
	Folders []models.Folder
	Total   int
	Page    int
	PerPage int
}

// FolderContents is a folder's direct children: subfolders plus assets.
type FolderContents struct {
	Folders FolderPage
	Assets  []models.Asset
}

// FolderService owns the tree's structural invariants (slug uniqueness,
// depth, cycle-safe moves) and explicitly schedules the consistency jobs that
// the persistence layer never triggers on its own.
type FolderService interface {
	Create(ctx context.Context, req *CreateFolderRequest) (*models.Folder, error)
	Get(ctx context.Context, ownerID int64, folderUUID string) (*models.Folder, error)
	List(ctx context.Context, req *ListFoldersRequest) (*FolderPage, error)
	Rename(ctx context.Context, folderUUID string, req *RenameFolderRequest) (*models.Folder, error)
	Move(ctx context.Context, folderUUID string, req *MoveFolderRequest) (*models.Folder, error)
	Delete(ctx context.Context, ownerID int64, folderUUID string) error
	Restore(ctx context.Context, ownerID int64, folderUUID string) (*models.Folder, error)
	ListChildren(ctx context.Context, folderUUID string, req *ListChildrenRequest) (*FolderContents, error)

	// RecountFolder is the counter reconciliation job body: recompute the
	// folder's direct counts from authoritative queries, persist quietly and
	// schedule the same job for the parent.
	RecountFolder(ctx context.Context, folderID int64) error
}
