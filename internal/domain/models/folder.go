package models

import (
	"strings"
	"time"
)

// AccessLevel controls who may see a folder. Only "private" is exercised by
// the current flows; the other levels are persisted for forward compatibility.
type AccessLevel string

const (
	AccessPrivate AccessLevel = "private"
	AccessToken   AccessLevel = "token"
	AccessPublic  AccessLevel = "public"
)

func (a AccessLevel) Valid() bool {
	switch a {
	case AccessPrivate, AccessToken, AccessPublic:
		return true
	}
	return false
}

// Folder is a node of the per-owner folder tree. The numeric ID is internal
// (joins, ordering); UUID is the opaque identifier exposed to callers.
// FilesCount and FoldersCount are eventually-consistent caches refreshed by
// the counter job, never trusted for correctness-critical decisions.
type Folder struct {
	ID              int64       `json:"id" db:"id"`
	UUID            string      `json:"uuid" db:"uuid"`
	Name            string      `json:"name" db:"name"`
	Slug            string      `json:"slug" db:"slug"`
	ParentID        *int64      `json:"parent_id" db:"parent_id"` // NULL = root
	OwnerID         int64       `json:"owner_id" db:"owner_id"`
	AccessLevel     AccessLevel `json:"access_level" db:"access_level"`
	PreviewAssetIDs []int64     `json:"preview_asset_ids" db:"preview_asset_ids"`
	Depth           int         `json:"depth" db:"depth"`
	FilesCount      int         `json:"files_count" db:"files_count"`
	FoldersCount    int         `json:"folders_count" db:"folders_count"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`
	DeletedAt       *time.Time  `json:"deleted_at,omitempty" db:"deleted_at"`

	// Breadcrumbs is the ancestor chain from root to this folder, computed on
	// read for detail responses; not stored.
	Breadcrumbs []Breadcrumb `json:"breadcrumbs,omitempty"`
}

// Breadcrumb is one hop of the root-to-folder ancestor chain.
type Breadcrumb struct {
	ID   int64  `json:"id"`
	UUID string `json:"uuid"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Trashed reports whether the folder is soft-deleted.
func (f *Folder) Trashed() bool {
	return f.DeletedAt != nil
}

// FolderOrderColumns are the columns folder listings may be ordered by.
var FolderOrderColumns = map[string]bool{
	"name":       true,
	"created_at": true,
	"updated_at": true,
}

// NormalizeOrder clamps orderBy/order to the allowed listing columns and
// directions, falling back to name ascending.
func NormalizeOrder(orderBy, order string) (string, string) {
	if !FolderOrderColumns[orderBy] {
		orderBy = "name"
	}
	if o := strings.ToLower(order); o == "desc" {
		return orderBy, "DESC"
	}
	return orderBy, "ASC"
}
