package repositories

import (
	"context"

	"assetlib/internal/domain/models"
)

// FolderTokenRepository persists folder-scoped access tokens.
type FolderTokenRepository interface {
	Create(ctx context.Context, token *models.FolderToken) error
	GetByToken(ctx context.Context, token string) (*models.FolderToken, error)
	ListByFolder(ctx context.Context, folderID int64) ([]models.FolderToken, error)
	Delete(ctx context.Context, id int64) error
}
