package models

import (
	"strings"
	"time"
)

// Thumbnail is one generated variant of an asset, keyed in GeneratedThumbs by
// "{format}_{width}x{height}".
type Thumbnail struct {
	Path    string `json:"path"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Quality int    `json:"quality"`
	Format  string `json:"format"`
}

// Asset is an uploaded file's organizational and descriptive metadata. An
// asset belongs to exactly one folder or none (unfiled); it never has
// children. The checksum is the content hash at upload time and is not
// revalidated later.
type Asset struct {
	ID              int64                `json:"id" db:"id"`
	UUID            string               `json:"uuid" db:"uuid"`
	Path            string               `json:"path" db:"path"`
	FolderID        *int64               `json:"folder_id" db:"folder_id"` // NULL = unfiled
	OwnerID         *int64               `json:"owner_id" db:"owner_id"`
	Mime            string               `json:"mime" db:"mime"`
	Width           *int                 `json:"width" db:"width"`
	Height          *int                 `json:"height" db:"height"`
	SizeBytes       int64                `json:"size_bytes" db:"size_bytes"`
	Checksum        string               `json:"checksum" db:"checksum"`
	GeneratedThumbs map[string]Thumbnail `json:"generated_thumbs,omitempty" db:"generated_thumbs"`
	OriginalName    string               `json:"original_name" db:"original_name"`
	CreatedAt       time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at" db:"updated_at"`
}

// IsImage reports whether the asset's MIME type marks it as an image,
// which is what makes it a preview candidate.
func (a *Asset) IsImage() bool {
	return strings.HasPrefix(a.Mime, "image/")
}
