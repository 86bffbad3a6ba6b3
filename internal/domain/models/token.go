package models

import "time"

// FolderToken is a scoped bearer token granting programmatic access to a
// single folder. The token value is a sha256 hex digest generated at creation.
type FolderToken struct {
	ID                  int64      `json:"id" db:"id"`
	FolderID            int64      `json:"folder_id" db:"folder_id"`
	Token               string     `json:"token" db:"token"`
	CanCreateSubfolders bool       `json:"can_create_subfolders" db:"can_create_subfolders"`
	CanUpload           bool       `json:"can_upload" db:"can_upload"`
	ExpiresAt           *time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`
}

// Expired reports whether the token has an expiry in the past.
func (t *FolderToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && t.ExpiresAt.Before(now)
}
