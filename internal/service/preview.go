package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"assetlib/internal/domain"
	"assetlib/internal/domain/models"
	"assetlib/internal/domain/repositories"
	"assetlib/internal/domain/services"
	"assetlib/internal/jobs"
	"assetlib/internal/storage"
	"assetlib/internal/thumbnail"
)

// PreviewConfig tunes preview selection and thumbnail rendering.
type PreviewConfig struct {
	MaxItems  int
	ThumbSize int
	Quality   int
}

// PreviewServiceConfig wires a preview service.
type PreviewServiceConfig struct {
	Folders   repositories.FolderRepository
	Assets    repositories.AssetRepository
	Storage   storage.Storage
	Encoder   thumbnail.Encoder
	Scheduler jobs.Scheduler
	Preview   PreviewConfig
	Logger    *slog.Logger
}

type previewService struct {
	folders   repositories.FolderRepository
	assets    repositories.AssetRepository
	storage   storage.Storage
	encoder   thumbnail.Encoder
	scheduler jobs.Scheduler
	cfg       PreviewConfig
	logger    *slog.Logger
}

// NewPreviewService creates the preview selection service.
func NewPreviewService(cfg PreviewServiceConfig) services.PreviewService {
	return &previewService{
		folders:   cfg.Folders,
		assets:    cfg.Assets,
		storage:   cfg.Storage,
		encoder:   cfg.Encoder,
		scheduler: cfg.Scheduler,
		cfg:       cfg.Preview,
		logger:    cfg.Logger,
	}
}

// variantKey names a thumbnail variant, e.g. "jpeg_512x512".
func (s *previewService) variantKey() string {
	return fmt.Sprintf("%s_%dx%d", s.encoder.Format(), s.cfg.ThumbSize, s.cfg.ThumbSize)
}

// thumbPath derives the storage key for an asset's thumbnail:
// uploads/a/b/photo.png -> thumbnails/uploads/a/b/photo_512.jpeg
func (s *previewService) thumbPath(assetPath string) string {
	dir := path.Dir(assetPath)
	base := path.Base(assetPath)
	stem := strings.TrimSuffix(base, path.Ext(base))
	name := fmt.Sprintf("%s_%d.%s", stem, s.cfg.ThumbSize, s.encoder.Format())
	if dir == "." {
		return path.Join("thumbnails", name)
	}
	return path.Join("thumbnails", dir, name)
}

// Regenerate reselects a folder's preview assets. Direct image assets win,
// newest first; when fewer than MaxItems exist, images from direct child
// folders top up the list. Assets whose thumbnails cannot be rendered are
// skipped rather than failing the whole selection.
func (s *previewService) Regenerate(ctx context.Context, folderID int64) error {
	folder, err := s.folders.GetByIDAny(ctx, folderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debug("skipping preview job for missing folder", "folder_id", folderID)
			return nil
		}
		return fmt.Errorf("load folder %d: %w", folderID, err)
	}

	candidates, err := s.assets.ListImages(ctx, []int64{folder.ID}, s.cfg.MaxItems)
	if err != nil {
		return fmt.Errorf("list direct images: %w", err)
	}

	if len(candidates) < s.cfg.MaxItems {
		childIDs, err := s.folders.ListChildIDs(ctx, folder.ID)
		if err != nil {
			return fmt.Errorf("list child folders: %w", err)
		}
		if len(childIDs) > 0 {
			fill, err := s.assets.ListImages(ctx, childIDs, s.cfg.MaxItems-len(candidates))
			if err != nil {
				return fmt.Errorf("list child images: %w", err)
			}
			candidates = append(candidates, fill...)
		}
	}

	selected := make([]int64, 0, len(candidates))
	for i := range candidates {
		asset := &candidates[i]
		if err := s.ensureThumbnail(ctx, asset); err != nil {
			s.logger.Warn("skipping preview candidate",
				"asset_id", asset.ID,
				"path", asset.Path,
				"error", err,
			)
			continue
		}
		selected = append(selected, asset.ID)
	}

	if err := s.folders.SetPreviewAssetIDs(ctx, folder.ID, selected); err != nil {
		return fmt.Errorf("persist preview selection: %w", err)
	}
	return nil
}

// ensureThumbnail renders and records the configured thumbnail variant if the
// asset does not have it yet.
func (s *previewService) ensureThumbnail(ctx context.Context, asset *models.Asset) error {
	key := s.variantKey()
	if _, ok := asset.GeneratedThumbs[key]; ok {
		return nil
	}

	original, err := s.storage.Get(ctx, asset.Path)
	if err != nil {
		return fmt.Errorf("load original: %w", err)
	}

	encoded, width, height, err := s.encoder.Encode(original, s.cfg.ThumbSize, s.cfg.Quality)
	if err != nil {
		return fmt.Errorf("render thumbnail: %w", err)
	}

	thumbKey := s.thumbPath(asset.Path)
	contentType := "image/" + s.encoder.Format()
	if err := s.storage.Put(ctx, thumbKey, encoded, contentType); err != nil {
		return fmt.Errorf("store thumbnail: %w", err)
	}

	if asset.GeneratedThumbs == nil {
		asset.GeneratedThumbs = make(map[string]models.Thumbnail)
	}
	asset.GeneratedThumbs[key] = models.Thumbnail{
		Path:    thumbKey,
		Width:   width,
		Height:  height,
		Quality: s.cfg.Quality,
		Format:  s.encoder.Format(),
	}
	if err := s.assets.SetGeneratedThumbs(ctx, asset.ID, asset.GeneratedThumbs); err != nil {
		return fmt.Errorf("record thumbnail: %w", err)
	}
	return nil
}

func (s *previewService) Get(ctx context.Context, ownerID int64, folderUUID string) ([]models.Asset, error) {
	folder, err := s.folders.GetByUUID(ctx, folderUUID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.NotFoundError{Message: "folder not found"}
		}
		return nil, fmt.Errorf("load folder: %w", err)
	}
	if folder.OwnerID != ownerID {
		return nil, &domain.NotFoundError{Message: "folder not found"}
	}
	if len(folder.PreviewAssetIDs) == 0 {
		return []models.Asset{}, nil
	}

	assets, err := s.assets.ListByIDs(ctx, folder.PreviewAssetIDs)
	if err != nil {
		return nil, fmt.Errorf("load preview assets: %w", err)
	}

	// Stored order is the selection order; the repository does not preserve it.
	byID := make(map[int64]models.Asset, len(assets))
	for _, a := range assets {
		byID[a.ID] = a
	}
	ordered := make([]models.Asset, 0, len(folder.PreviewAssetIDs))
	for _, id := range folder.PreviewAssetIDs {
		if a, ok := byID[id]; ok {
			ordered = append(ordered, a)
		}
	}
	return ordered, nil
}

// ToggleAsset pins one asset as the folder's sole preview image, or unpins it
// when it is already the only selection. Unpinning schedules a fresh
// automatic selection.
func (s *previewService) ToggleAsset(ctx context.Context, ownerID int64, folderUUID, assetUUID string) (*models.Folder, error) {
	folder, err := s.folders.GetByUUID(ctx, folderUUID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.NotFoundError{Message: "folder not found"}
		}
		return nil, fmt.Errorf("load folder: %w", err)
	}
	if folder.OwnerID != ownerID {
		return nil, &domain.NotFoundError{Message: "folder not found"}
	}

	asset, err := s.assets.GetByUUID(ctx, assetUUID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.NotFoundError{Message: "asset not found"}
		}
		return nil, fmt.Errorf("load asset: %w", err)
	}
	if !asset.IsImage() {
		return nil, &domain.ValidationError{Message: "preview assets must be images"}
	}

	pinned := len(folder.PreviewAssetIDs) == 1 && folder.PreviewAssetIDs[0] == asset.ID
	if pinned {
		folder.PreviewAssetIDs = []int64{}
		if err := s.folders.SetPreviewAssetIDs(ctx, folder.ID, folder.PreviewAssetIDs); err != nil {
			return nil, fmt.Errorf("clear preview selection: %w", err)
		}
		if err := s.scheduler.Schedule(ctx, jobs.GenerateFolderPreview(folder.ID)); err != nil {
			s.logger.Error("failed to schedule preview job", "folder_id", folder.ID, "error", err)
		}
		return folder, nil
	}

	if err := s.ensureThumbnail(ctx, asset); err != nil {
		return nil, fmt.Errorf("prepare pinned preview: %w", err)
	}
	folder.PreviewAssetIDs = []int64{asset.ID}
	if err := s.folders.SetPreviewAssetIDs(ctx, folder.ID, folder.PreviewAssetIDs); err != nil {
		return nil, fmt.Errorf("persist preview selection: %w", err)
	}
	return folder, nil
}
