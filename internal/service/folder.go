// Package service implements the business layer over the repositories:
// folder tree invariants, preview selection, asset ingestion and folder
// tokens. Repositories never schedule work; every consistency job is
// scheduled here, at the point of the mutation that made it necessary.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"assetlib/internal/config"
	"assetlib/internal/domain"
	"assetlib/internal/domain/models"
	"assetlib/internal/domain/repositories"
	"assetlib/internal/domain/services"
	"assetlib/internal/jobs"
)

// createRetries bounds retries when a concurrent create steals a slug between
// our uniqueness probe and the insert.
const createRetries = 3

// FolderServiceConfig wires a folder service.
type FolderServiceConfig struct {
	Folders   repositories.FolderRepository
	Assets    repositories.AssetRepository
	Tx        repositories.TransactionManager
	Scheduler jobs.Scheduler
	Logger    *slog.Logger
}

type folderService struct {
	folders   repositories.FolderRepository
	assets    repositories.AssetRepository
	tx        repositories.TransactionManager
	scheduler jobs.Scheduler
	logger    *slog.Logger
}

// NewFolderService creates the folder tree service.
func NewFolderService(cfg FolderServiceConfig) services.FolderService {
	return &folderService{
		folders:   cfg.Folders,
		assets:    cfg.Assets,
		tx:        cfg.Tx,
		scheduler: cfg.Scheduler,
		logger:    cfg.Logger,
	}
}

func validateFolderName(name string) error {
	err := validation.Validate(name,
		validation.Required,
		validation.RuneLength(1, config.MaxFolderNameLength),
	)
	if err != nil {
		return &domain.ValidationError{Message: fmt.Sprintf("name: %v", err)}
	}
	return nil
}

// siblingProbe probes slug availability among the siblings under parentID,
// soft-deleted siblings included.
func (s *folderService) siblingProbe(parentID *int64, ownerID, excludeID int64) slugProbe {
	return func(ctx context.Context, candidate string) (bool, error) {
		return s.folders.SlugExists(ctx, parentID, ownerID, candidate, excludeID)
	}
}

// schedule enqueues a job, logging instead of failing the caller: a missed
// job leaves derived state stale until the next mutation, never wrong data.
func (s *folderService) schedule(ctx context.Context, job jobs.Job) {
	if err := s.scheduler.Schedule(ctx, job); err != nil {
		s.logger.Error("failed to schedule job",
			"type", job.Type,
			"folder_id", job.FolderID,
			"error", err,
		)
	}
}

func (s *folderService) Create(ctx context.Context, req *services.CreateFolderRequest) (*models.Folder, error) {
	if err := validateFolderName(req.Name); err != nil {
		return nil, err
	}

	depth := 0
	if req.ParentID != nil {
		parent, err := s.folders.GetByID(ctx, *req.ParentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, &domain.NotFoundError{Message: "parent folder not found"}
			}
			return nil, fmt.Errorf("load parent folder: %w", err)
		}
		if parent.OwnerID != req.OwnerID {
			return nil, &domain.NotFoundError{Message: "parent folder not found"}
		}
		depth = parent.Depth + 1
	}

	stem := slugBase(req.Name)

	// The uniqueness probe and the insert race against concurrent creates;
	// the sibling-slug unique index is the arbiter, so retry on conflict.
	var lastErr error
	for attempt := 0; attempt < createRetries; attempt++ {
		folderSlug, err := uniqueSlug(ctx, stem, s.siblingProbe(req.ParentID, req.OwnerID, 0))
		if err != nil {
			return nil, err
		}

		folder := &models.Folder{
			UUID:            uuid.NewString(),
			Name:            req.Name,
			Slug:            folderSlug,
			ParentID:        req.ParentID,
			OwnerID:         req.OwnerID,
			AccessLevel:     models.AccessPrivate,
			PreviewAssetIDs: []int64{},
			Depth:           depth,
		}

		if err := s.folders.Create(ctx, folder); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				lastErr = err
				continue
			}
			return nil, fmt.Errorf("create folder: %w", err)
		}

		if req.ParentID != nil {
			s.schedule(ctx, jobs.UpdateFolderCounters(*req.ParentID))
		}
		s.schedule(ctx, jobs.GenerateFolderPreview(folder.ID))

		return s.withBreadcrumbs(ctx, folder)
	}

	return nil, &domain.ConflictError{
		Message:      fmt.Sprintf("folder slug contention for %q: %v", req.Name, lastErr),
		ResourceType: "folder",
	}
}

// getOwned loads an active folder by UUID and verifies ownership. A folder
// belonging to someone else is indistinguishable from a missing one.
func (s *folderService) getOwned(ctx context.Context, ownerID int64, folderUUID string) (*models.Folder, error) {
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
	return folder, nil
}

func (s *folderService) Get(ctx context.Context, ownerID int64, folderUUID string) (*models.Folder, error) {
	folder, err := s.getOwned(ctx, ownerID, folderUUID)
	if err != nil {
		return nil, err
	}
	return s.withBreadcrumbs(ctx, folder)
}

// withBreadcrumbs attaches the ancestor chain so every read and every
// mutation returns the folder's full current state.
func (s *folderService) withBreadcrumbs(ctx context.Context, folder *models.Folder) (*models.Folder, error) {
	crumbs, err := s.breadcrumbs(ctx, folder)
	if err != nil {
		return nil, err
	}
	folder.Breadcrumbs = crumbs
	return folder, nil
}

// breadcrumbs walks the active ancestor chain root-first. A trashed ancestor
// truncates the chain rather than failing the read.
func (s *folderService) breadcrumbs(ctx context.Context, folder *models.Folder) ([]models.Breadcrumb, error) {
	var chain []models.Breadcrumb
	parentID := folder.ParentID
	for parentID != nil {
		parent, err := s.folders.GetByID(ctx, *parentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				break
			}
			return nil, fmt.Errorf("load ancestor %d: %w", *parentID, err)
		}
		chain = append([]models.Breadcrumb{{
			ID:   parent.ID,
			UUID: parent.UUID,
			Name: parent.Name,
			Slug: parent.Slug,
		}}, chain...)
		parentID = parent.ParentID
	}
	chain = append(chain, models.Breadcrumb{
		ID:   folder.ID,
		UUID: folder.UUID,
		Name: folder.Name,
		Slug: folder.Slug,
	})
	return chain, nil
}

func normalizePaging(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = config.DefaultPerPage
	}
	if perPage > config.MaxPerPage {
		perPage = config.MaxPerPage
	}
	return page, perPage
}

func (s *folderService) List(ctx context.Context, req *services.ListFoldersRequest) (*services.FolderPage, error) {
	page, perPage := normalizePaging(req.Page, req.PerPage)
	orderBy, order := models.NormalizeOrder(req.OrderBy, req.Order)

	folders, total, err := s.folders.List(ctx, repositories.ListFoldersQuery{
		OwnerID:  req.OwnerID,
		ParentID: req.ParentID,
		Search:   req.Search,
		OrderBy:  orderBy,
		Order:    order,
		Page:     page,
		PerPage:  perPage,
	})
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}

	return &services.FolderPage{
		Folders: folders,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	}, nil
}

func (s *folderService) Rename(ctx context.Context, folderUUID string, req *services.RenameFolderRequest) (*models.Folder, error) {
	if err := validateFolderName(req.Name); err != nil {
		return nil, err
	}

	folder, err := s.getOwned(ctx, req.OwnerID, folderUUID)
	if err != nil {
		return nil, err
	}
	if folder.Name == req.Name {
		return s.withBreadcrumbs(ctx, folder)
	}

	newSlug, err := uniqueSlug(ctx, slugBase(req.Name),
		s.siblingProbe(folder.ParentID, folder.OwnerID, folder.ID))
	if err != nil {
		return nil, err
	}

	folder.Name = req.Name
	folder.Slug = newSlug
	if err := s.folders.Update(ctx, folder); err != nil {
		return nil, fmt.Errorf("rename folder: %w", err)
	}

	// Renaming changes what the folder card shows, so the preview refreshes.
	s.schedule(ctx, jobs.GenerateFolderPreview(folder.ID))

	return s.withBreadcrumbs(ctx, folder)
}

func (s *folderService) Move(ctx context.Context, folderUUID string, req *services.MoveFolderRequest) (*models.Folder, error) {
	folder, err := s.getOwned(ctx, req.OwnerID, folderUUID)
	if err != nil {
		return nil, err
	}

	sameParent := (folder.ParentID == nil && req.ParentID == nil) ||
		(folder.ParentID != nil && req.ParentID != nil && *folder.ParentID == *req.ParentID)
	if sameParent {
		return s.withBreadcrumbs(ctx, folder)
	}

	newDepth := 0
	if req.ParentID != nil {
		if *req.ParentID == folder.ID {
			return nil, &domain.ValidationError{Message: "cannot move a folder into itself"}
		}
		parent, err := s.folders.GetByID(ctx, *req.ParentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, &domain.NotFoundError{Message: "destination folder not found"}
			}
			return nil, fmt.Errorf("load destination folder: %w", err)
		}
		if parent.OwnerID != req.OwnerID {
			return nil, &domain.NotFoundError{Message: "destination folder not found"}
		}
		if err := s.ensureNotDescendant(ctx, folder.ID, parent); err != nil {
			return nil, err
		}
		newDepth = parent.Depth + 1
	}

	// The slug must be unique among the new siblings; re-probe from the stem
	// so "docs" moved next to another "docs" becomes "docs-2".
	newSlug, err := uniqueSlug(ctx, slugBase(folder.Name),
		s.siblingProbe(req.ParentID, folder.OwnerID, folder.ID))
	if err != nil {
		return nil, err
	}

	oldParentID := folder.ParentID
	folder.ParentID = req.ParentID
	folder.Slug = newSlug

	// Reparenting and the subtree depth rewrite commit together; a crash
	// mid-move must not leave descendants at stale depths.
	err = s.tx.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.folders.Update(txCtx, folder); err != nil {
			return fmt.Errorf("move folder: %w", err)
		}
		return s.syncDepth(txCtx, folder.ID, newDepth)
	})
	if err != nil {
		return nil, err
	}
	folder.Depth = newDepth

	if oldParentID != nil {
		s.schedule(ctx, jobs.UpdateFolderCounters(*oldParentID))
	}
	if req.ParentID != nil {
		s.schedule(ctx, jobs.UpdateFolderCounters(*req.ParentID))
	}

	return s.withBreadcrumbs(ctx, folder)
}

// ensureNotDescendant walks up from candidate's ancestors and rejects the
// move if folderID appears anywhere on the chain. Only active ancestors are
// walked: a trashed ancestor severs the visible chain.
func (s *folderService) ensureNotDescendant(ctx context.Context, folderID int64, candidate *models.Folder) error {
	current := candidate
	for {
		if current.ID == folderID {
			return &domain.ValidationError{Message: "cannot move a folder into its own subtree"}
		}
		if current.ParentID == nil {
			return nil
		}
		parent, err := s.folders.GetByID(ctx, *current.ParentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("walk ancestors: %w", err)
		}
		current = parent
	}
}

// syncDepth sets a folder's depth and recomputes the whole subtree below it,
// trashed descendants included so a later restore finds them consistent.
func (s *folderService) syncDepth(ctx context.Context, folderID int64, depth int) error {
	if err := s.folders.SetDepth(ctx, folderID, depth); err != nil {
		return fmt.Errorf("set depth: %w", err)
	}
	children, err := s.folders.ListChildren(ctx, folderID, true)
	if err != nil {
		return fmt.Errorf("list children: %w", err)
	}
	for _, child := range children {
		if err := s.syncDepth(ctx, child.ID, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (s *folderService) Delete(ctx context.Context, ownerID int64, folderUUID string) error {
	folder, err := s.getOwned(ctx, ownerID, folderUUID)
	if err != nil {
		return err
	}

	if err := s.folders.SoftDelete(ctx, folder.ID); err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}

	if folder.ParentID != nil {
		s.schedule(ctx, jobs.UpdateFolderCounters(*folder.ParentID))
		s.schedule(ctx, jobs.GenerateFolderPreview(*folder.ParentID))
	}
	return nil
}

func (s *folderService) Restore(ctx context.Context, ownerID int64, folderUUID string) (*models.Folder, error) {
	folder, err := s.folders.GetByUUIDAny(ctx, folderUUID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.NotFoundError{Message: "folder not found"}
		}
		return nil, fmt.Errorf("load folder: %w", err)
	}
	if folder.OwnerID != ownerID {
		return nil, &domain.NotFoundError{Message: "folder not found"}
	}
	if !folder.Trashed() {
		return s.withBreadcrumbs(ctx, folder)
	}

	// A sibling created while this folder was trashed may have claimed the
	// next free slug; the restored folder takes whatever is free now.
	restoredSlug, err := uniqueSlug(ctx, slugBase(folder.Name),
		s.siblingProbe(folder.ParentID, folder.OwnerID, folder.ID))
	if err != nil {
		return nil, err
	}

	folder.DeletedAt = nil
	folder.Slug = restoredSlug
	err = s.tx.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.folders.Restore(txCtx, folder.ID); err != nil {
			return fmt.Errorf("restore folder: %w", err)
		}
		if err := s.folders.Update(txCtx, folder); err != nil {
			return fmt.Errorf("update restored slug: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.schedule(ctx, jobs.UpdateFolderCounters(folder.ID))
	s.schedule(ctx, jobs.GenerateFolderPreview(folder.ID))
	if folder.ParentID != nil {
		s.schedule(ctx, jobs.UpdateFolderCounters(*folder.ParentID))
		s.schedule(ctx, jobs.GenerateFolderPreview(*folder.ParentID))
	}

	return s.withBreadcrumbs(ctx, folder)
}

func (s *folderService) ListChildren(ctx context.Context, folderUUID string, req *services.ListChildrenRequest) (*services.FolderContents, error) {
	folder, err := s.getOwned(ctx, req.OwnerID, folderUUID)
	if err != nil {
		return nil, err
	}

	page, perPage := normalizePaging(req.Page, req.PerPage)
	orderBy, order := models.NormalizeOrder(req.OrderBy, req.Order)

	children, total, err := s.folders.List(ctx, repositories.ListFoldersQuery{
		OwnerID:  req.OwnerID,
		ParentID: &folder.ID,
		OrderBy:  orderBy,
		Order:    order,
		Page:     page,
		PerPage:  perPage,
	})
	if err != nil {
		return nil, fmt.Errorf("list child folders: %w", err)
	}

	assets, _, err := s.assets.List(ctx, repositories.ListAssetsQuery{
		FolderID: &folder.ID,
		Page:     page,
		PerPage:  perPage,
	})
	if err != nil {
		return nil, fmt.Errorf("list folder assets: %w", err)
	}

	return &services.FolderContents{
		Folders: services.FolderPage{
			Folders: children,
			Total:   total,
			Page:    page,
			PerPage: perPage,
		},
		Assets: assets,
	}, nil
}

// RecountFolder recomputes the folder's counter caches from authoritative
// queries and walks the correction up to the parent. A folder deleted before
// its job ran is silently skipped.
func (s *folderService) RecountFolder(ctx context.Context, folderID int64) error {
	folder, err := s.folders.GetByIDAny(ctx, folderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debug("skipping counter job for missing folder", "folder_id", folderID)
			return nil
		}
		return fmt.Errorf("load folder %d: %w", folderID, err)
	}

	filesCount, err := s.assets.CountByFolder(ctx, folder.ID)
	if err != nil {
		return fmt.Errorf("count assets: %w", err)
	}
	foldersCount, err := s.folders.CountChildren(ctx, folder.ID)
	if err != nil {
		return fmt.Errorf("count child folders: %w", err)
	}

	if err := s.folders.SetCounters(ctx, folder.ID, filesCount, foldersCount); err != nil {
		return fmt.Errorf("persist counters: %w", err)
	}

	if folder.ParentID != nil {
		s.schedule(ctx, jobs.UpdateFolderCounters(*folder.ParentID))
	}
	return nil
}
