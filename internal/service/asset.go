package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"net/http"
	"path"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"assetlib/internal/domain"
	"assetlib/internal/domain/models"
	"assetlib/internal/domain/repositories"
	"assetlib/internal/domain/services"
	"assetlib/internal/jobs"
	"assetlib/internal/storage"
)

// AssetServiceConfig wires an asset service.
type AssetServiceConfig struct {
	Assets      repositories.AssetRepository
	Folders     repositories.FolderRepository
	Storage     storage.Storage
	Scheduler   jobs.Scheduler
	MaxFileSize int64
	Logger      *slog.Logger
}

type assetService struct {
	assets      repositories.AssetRepository
	folders     repositories.FolderRepository
	storage     storage.Storage
	scheduler   jobs.Scheduler
	maxFileSize int64
	logger      *slog.Logger
}

// NewAssetService creates the asset ingestion service.
func NewAssetService(cfg AssetServiceConfig) services.AssetService {
	return &assetService{
		assets:      cfg.Assets,
		folders:     cfg.Folders,
		storage:     cfg.Storage,
		scheduler:   cfg.Scheduler,
		maxFileSize: cfg.MaxFileSize,
		logger:      cfg.Logger,
	}
}

func (s *assetService) schedule(ctx context.Context, job jobs.Job) {
	if err := s.scheduler.Schedule(ctx, job); err != nil {
		s.logger.Error("failed to schedule job",
			"type", job.Type,
			"folder_id", job.FolderID,
			"error", err,
		)
	}
}

// validFolderPath accepts a clean relative slash path with slug-safe segments.
func validFolderPath(p string) error {
	if p == "" {
		return nil
	}
	return validation.Validate(p,
		validation.By(func(value interface{}) error {
			raw := value.(string)
			if path.Clean(raw) != raw || strings.HasPrefix(raw, "/") || strings.Contains(raw, "..") {
				return errors.New("must be a clean relative path")
			}
			return nil
		}),
	)
}

// storageKey builds a collision-free storage key for an upload: the slugged
// stem plus a short random suffix keeps names readable without a uniqueness
// round-trip.
func storageKey(folderPath, originalName string) string {
	ext := strings.ToLower(path.Ext(originalName))
	stem := slug.Make(strings.TrimSuffix(originalName, path.Ext(originalName)))
	if stem == "" {
		stem = "file"
	}
	name := fmt.Sprintf("%s-%s%s", stem, uuid.NewString()[:8], ext)
	if folderPath == "" {
		return path.Join("uploads", name)
	}
	return path.Join("uploads", folderPath, name)
}

func (s *assetService) Upload(ctx context.Context, req *services.UploadAssetRequest) (*services.UploadedAsset, error) {
	if len(req.Data) == 0 {
		return nil, &domain.ValidationError{Message: "file is empty"}
	}
	if int64(len(req.Data)) > s.maxFileSize {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("file exceeds the %d byte limit", s.maxFileSize),
		}
	}
	if req.OriginalName == "" {
		return nil, &domain.ValidationError{Message: "file name is required"}
	}
	if err := validFolderPath(req.FolderPath); err != nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("folder path: %v", err)}
	}

	folderID := req.FolderID
	if folderID != nil || req.FolderUUID != "" {
		var folder *models.Folder
		var err error
		if folderID != nil {
			folder, err = s.folders.GetByID(ctx, *folderID)
		} else {
			folder, err = s.folders.GetByUUID(ctx, req.FolderUUID)
		}
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, &domain.NotFoundError{Message: "folder not found"}
			}
			return nil, fmt.Errorf("load folder: %w", err)
		}
		if req.OwnerID != nil && folder.OwnerID != *req.OwnerID {
			return nil, &domain.NotFoundError{Message: "folder not found"}
		}
		folderID = &folder.ID
	}

	mime := http.DetectContentType(req.Data)
	// DetectContentType appends charset parameters for text types.
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}

	sum := sha256.Sum256(req.Data)

	asset := &models.Asset{
		UUID:            uuid.NewString(),
		Path:            storageKey(req.FolderPath, req.OriginalName),
		FolderID:        folderID,
		OwnerID:         req.OwnerID,
		Mime:            mime,
		SizeBytes:       int64(len(req.Data)),
		Checksum:        hex.EncodeToString(sum[:]),
		GeneratedThumbs: map[string]models.Thumbnail{},
		OriginalName:    req.OriginalName,
	}

	if strings.HasPrefix(mime, "image/") {
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(req.Data)); err == nil {
			asset.Width = &cfg.Width
			asset.Height = &cfg.Height
		}
	}

	if err := s.storage.Put(ctx, asset.Path, req.Data, mime); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	if err := s.assets.Create(ctx, asset); err != nil {
		// Do not leave an orphaned blob behind the failed record.
		if delErr := s.storage.Delete(ctx, asset.Path); delErr != nil {
			s.logger.Error("failed to remove orphaned upload", "path", asset.Path, "error", delErr)
		}
		return nil, fmt.Errorf("create asset record: %w", err)
	}

	if asset.FolderID != nil {
		s.schedule(ctx, jobs.UpdateFolderCounters(*asset.FolderID))
		s.schedule(ctx, jobs.GenerateFolderPreview(*asset.FolderID))
	}

	return &services.UploadedAsset{
		Asset: *asset,
		URL:   s.storage.URL(asset.Path),
	}, nil
}

func (s *assetService) List(ctx context.Context, req *services.ListAssetsRequest) ([]services.UploadedAsset, int, error) {
	page, perPage := normalizePaging(req.Page, req.PerPage)

	assets, total, err := s.assets.List(ctx, repositories.ListAssetsQuery{
		FolderID: req.FolderID,
		OwnerID:  req.OwnerID,
		Page:     page,
		PerPage:  perPage,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list assets: %w", err)
	}

	out := make([]services.UploadedAsset, 0, len(assets))
	for _, a := range assets {
		out = append(out, services.UploadedAsset{Asset: a, URL: s.storage.URL(a.Path)})
	}
	return out, total, nil
}

func (s *assetService) Move(ctx context.Context, ownerID *int64, assetUUID string, folderID *int64) (*models.Asset, error) {
	asset, err := s.assets.GetByUUID(ctx, assetUUID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.NotFoundError{Message: "asset not found"}
		}
		return nil, fmt.Errorf("load asset: %w", err)
	}
	if ownerID != nil && asset.OwnerID != nil && *asset.OwnerID != *ownerID {
		return nil, &domain.NotFoundError{Message: "asset not found"}
	}

	if folderID != nil {
		folder, err := s.folders.GetByID(ctx, *folderID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, &domain.NotFoundError{Message: "destination folder not found"}
			}
			return nil, fmt.Errorf("load destination folder: %w", err)
		}
		if ownerID != nil && folder.OwnerID != *ownerID {
			return nil, &domain.NotFoundError{Message: "destination folder not found"}
		}
	}

	oldFolderID := asset.FolderID
	if err := s.assets.SetFolder(ctx, asset.ID, folderID); err != nil {
		return nil, fmt.Errorf("move asset: %w", err)
	}
	asset.FolderID = folderID

	if oldFolderID != nil {
		s.schedule(ctx, jobs.UpdateFolderCounters(*oldFolderID))
		s.schedule(ctx, jobs.GenerateFolderPreview(*oldFolderID))
	}
	if folderID != nil {
		s.schedule(ctx, jobs.UpdateFolderCounters(*folderID))
		s.schedule(ctx, jobs.GenerateFolderPreview(*folderID))
	}

	return asset, nil
}

func (s *assetService) DeleteByPath(ctx context.Context, assetPath string) error {
	asset, err := s.assets.GetByPath(ctx, assetPath)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.NotFoundError{Message: "asset not found"}
		}
		return fmt.Errorf("load asset: %w", err)
	}

	if err := s.storage.Delete(ctx, asset.Path); err != nil {
		return fmt.Errorf("delete stored object: %w", err)
	}
	for _, thumb := range asset.GeneratedThumbs {
		if err := s.storage.Delete(ctx, thumb.Path); err != nil {
			s.logger.Warn("failed to delete thumbnail", "path", thumb.Path, "error", err)
		}
	}

	if err := s.assets.Delete(ctx, asset.ID); err != nil {
		return fmt.Errorf("delete asset record: %w", err)
	}

	if asset.FolderID != nil {
		s.schedule(ctx, jobs.UpdateFolderCounters(*asset.FolderID))
		s.schedule(ctx, jobs.GenerateFolderPreview(*asset.FolderID))
	}
	return nil
}
