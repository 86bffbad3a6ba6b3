package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"assetlib/internal/domain"
	"assetlib/internal/domain/models"
	"assetlib/internal/domain/repositories"
	"assetlib/internal/domain/services"
)

// TokenServiceConfig wires a token service.
type TokenServiceConfig struct {
	Tokens  repositories.FolderTokenRepository
	Folders repositories.FolderRepository
	Logger  *slog.Logger
}

type tokenService struct {
	tokens  repositories.FolderTokenRepository
	folders repositories.FolderRepository
	logger  *slog.Logger
	now     func() time.Time
}

// NewTokenService creates the folder token service.
func NewTokenService(cfg TokenServiceConfig) services.TokenService {
	return &tokenService{
		tokens:  cfg.Tokens,
		folders: cfg.Folders,
		logger:  cfg.Logger,
		now:     time.Now,
	}
}

func (s *tokenService) CreateFolderToken(ctx context.Context, req *services.CreateFolderTokenRequest) (*models.FolderToken, error) {
	folder, err := s.folders.GetByUUID(ctx, req.FolderUUID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.NotFoundError{Message: "folder not found"}
		}
		return nil, fmt.Errorf("load folder: %w", err)
	}
	if folder.OwnerID != req.OwnerID {
		return nil, &domain.NotFoundError{Message: "folder not found"}
	}
	if req.ExpiresAt != nil && req.ExpiresAt.Before(s.now()) {
		return nil, &domain.ValidationError{Message: "expiry must be in the future"}
	}

	// The token value is an unguessable digest, not derived from any stored
	// secret; looking it up is a plain equality match.
	sum := sha256.Sum256([]byte(uuid.NewString()))

	token := &models.FolderToken{
		FolderID:            folder.ID,
		Token:               hex.EncodeToString(sum[:]),
		CanCreateSubfolders: req.CanCreateSubfolders,
		CanUpload:           req.CanUpload,
		ExpiresAt:           req.ExpiresAt,
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return nil, fmt.Errorf("create folder token: %w", err)
	}
	return token, nil
}

func (s *tokenService) Resolve(ctx context.Context, token string) (*models.FolderToken, error) {
	record, err := s.tokens.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("unknown token: %w", domain.ErrUnauthorized)
		}
		return nil, fmt.Errorf("resolve token: %w", err)
	}
	if record.Expired(s.now()) {
		return nil, fmt.Errorf("expired token: %w", domain.ErrUnauthorized)
	}
	return record, nil
}
