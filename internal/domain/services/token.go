package services

import (
	"context"
	"time"

	"assetlib/internal/domain/models"
)

// CreateFolderTokenRequest issues a scoped token for one folder.
type CreateFolderTokenRequest struct {
	OwnerID             int64
	FolderUUID          string
	CanCreateSubfolders bool
	CanUpload           bool
	ExpiresAt           *time.Time
}

// TokenService issues and resolves folder-scoped access tokens.
type TokenService interface {
	CreateFolderToken(ctx context.Context, req *CreateFolderTokenRequest) (*models.FolderToken, error)

	// Resolve returns the token record for a presented bearer value, or a
	// wrapped domain.ErrUnauthorized when unknown or expired.
	Resolve(ctx context.Context, token string) (*models.FolderToken, error)
}
