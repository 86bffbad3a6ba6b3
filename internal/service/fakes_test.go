package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"assetlib/internal/domain"
	"assetlib/internal/domain/models"
	"assetlib/internal/domain/repositories"
	"assetlib/internal/jobs"
	"assetlib/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeFolderRepo is an in-memory FolderRepository mirroring the SQL layer's
// semantics closely enough for service tests: soft-deleted rows keep their
// slugs reserved and sibling-slug uniqueness is enforced on write.
type fakeFolderRepo struct {
	folders map[int64]*models.Folder
	nextID  int64
}

func newFakeFolderRepo() *fakeFolderRepo {
	return &fakeFolderRepo{folders: make(map[int64]*models.Folder)}
}

func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r *fakeFolderRepo) slugTaken(parentID *int64, ownerID int64, slug string, excludeID int64) bool {
	for _, f := range r.folders {
		if f.OwnerID == ownerID && f.Slug == slug && f.ID != excludeID && sameParent(f.ParentID, parentID) {
			return true
		}
	}
	return false
}

func (r *fakeFolderRepo) Create(_ context.Context, folder *models.Folder) error {
	if r.slugTaken(folder.ParentID, folder.OwnerID, folder.Slug, 0) {
		return fmt.Errorf("folder slug %q: %w", folder.Slug, domain.ErrConflict)
	}
	r.nextID++
	folder.ID = r.nextID
	folder.CreatedAt = time.Now()
	folder.UpdatedAt = folder.CreatedAt
	clone := *folder
	r.folders[folder.ID] = &clone
	return nil
}

func (r *fakeFolderRepo) GetByID(_ context.Context, id int64) (*models.Folder, error) {
	f, ok := r.folders[id]
	if !ok || f.DeletedAt != nil {
		return nil, fmt.Errorf("folder %d: %w", id, domain.ErrNotFound)
	}
	clone := *f
	return &clone, nil
}

func (r *fakeFolderRepo) GetByIDAny(_ context.Context, id int64) (*models.Folder, error) {
	f, ok := r.folders[id]
	if !ok {
		return nil, fmt.Errorf("folder %d: %w", id, domain.ErrNotFound)
	}
	clone := *f
	return &clone, nil
}

func (r *fakeFolderRepo) GetByUUID(_ context.Context, folderUUID string) (*models.Folder, error) {
	for _, f := range r.folders {
		if f.UUID == folderUUID && f.DeletedAt == nil {
			clone := *f
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("folder %s: %w", folderUUID, domain.ErrNotFound)
}

func (r *fakeFolderRepo) GetByUUIDAny(_ context.Context, folderUUID string) (*models.Folder, error) {
	for _, f := range r.folders {
		if f.UUID == folderUUID {
			clone := *f
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("folder %s: %w", folderUUID, domain.ErrNotFound)
}

func (r *fakeFolderRepo) Update(_ context.Context, folder *models.Folder) error {
	stored, ok := r.folders[folder.ID]
	if !ok {
		return fmt.Errorf("folder %d: %w", folder.ID, domain.ErrNotFound)
	}
	if r.slugTaken(folder.ParentID, folder.OwnerID, folder.Slug, folder.ID) {
		return fmt.Errorf("folder slug %q: %w", folder.Slug, domain.ErrConflict)
	}
	stored.Name = folder.Name
	stored.Slug = folder.Slug
	stored.ParentID = folder.ParentID
	stored.AccessLevel = folder.AccessLevel
	stored.UpdatedAt = time.Now()
	return nil
}

func (r *fakeFolderRepo) SetDepth(_ context.Context, id int64, depth int) error {
	f, ok := r.folders[id]
	if !ok {
		return fmt.Errorf("folder %d: %w", id, domain.ErrNotFound)
	}
	f.Depth = depth
	return nil
}

func (r *fakeFolderRepo) SetCounters(_ context.Context, id int64, filesCount, foldersCount int) error {
	f, ok := r.folders[id]
	if !ok {
		return fmt.Errorf("folder %d: %w", id, domain.ErrNotFound)
	}
	f.FilesCount = filesCount
	f.FoldersCount = foldersCount
	return nil
}

func (r *fakeFolderRepo) SetPreviewAssetIDs(_ context.Context, id int64, assetIDs []int64) error {
	f, ok := r.folders[id]
	if !ok {
		return fmt.Errorf("folder %d: %w", id, domain.ErrNotFound)
	}
	f.PreviewAssetIDs = append([]int64(nil), assetIDs...)
	return nil
}

func (r *fakeFolderRepo) SoftDelete(_ context.Context, id int64) error {
	f, ok := r.folders[id]
	if !ok || f.DeletedAt != nil {
		return fmt.Errorf("folder %d: %w", id, domain.ErrNotFound)
	}
	now := time.Now()
	f.DeletedAt = &now
	return nil
}

func (r *fakeFolderRepo) Restore(_ context.Context, id int64) error {
	f, ok := r.folders[id]
	if !ok || f.DeletedAt == nil {
		return fmt.Errorf("folder %d: %w", id, domain.ErrNotFound)
	}
	f.DeletedAt = nil
	return nil
}

func (r *fakeFolderRepo) List(_ context.Context, q repositories.ListFoldersQuery) ([]models.Folder, int, error) {
	var matched []models.Folder
	for _, f := range r.folders {
		if f.OwnerID != q.OwnerID || f.DeletedAt != nil {
			continue
		}
		switch {
		case q.ParentID != nil:
			if !sameParent(f.ParentID, q.ParentID) {
				continue
			}
		case q.Search == "":
			if f.ParentID != nil {
				continue
			}
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(f.Name), strings.ToLower(q.Search)) {
			continue
		}
		matched = append(matched, *f)
	}

	sort.Slice(matched, func(i, j int) bool {
		if q.Order == "DESC" {
			return matched[i].Name > matched[j].Name
		}
		return matched[i].Name < matched[j].Name
	})

	total := len(matched)
	start := (q.Page - 1) * q.PerPage
	if start > total {
		start = total
	}
	end := start + q.PerPage
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *fakeFolderRepo) ListChildren(_ context.Context, parentID int64, includeDeleted bool) ([]models.Folder, error) {
	var children []models.Folder
	for _, f := range r.folders {
		if f.ParentID == nil || *f.ParentID != parentID {
			continue
		}
		if !includeDeleted && f.DeletedAt != nil {
			continue
		}
		children = append(children, *f)
	}
	sort.Slice(children, func(i, j int) bool { return children[i].ID < children[j].ID })
	return children, nil
}

func (r *fakeFolderRepo) ListChildIDs(ctx context.Context, parentID int64) ([]int64, error) {
	children, err := r.ListChildren(ctx, parentID, false)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(children))
	for _, c := range children {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

func (r *fakeFolderRepo) CountChildren(ctx context.Context, parentID int64) (int, error) {
	ids, err := r.ListChildIDs(ctx, parentID)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (r *fakeFolderRepo) SlugExists(_ context.Context, parentID *int64, ownerID int64, slug string, excludeID int64) (bool, error) {
	return r.slugTaken(parentID, ownerID, slug, excludeID), nil
}

// fakeAssetRepo is an in-memory AssetRepository.
type fakeAssetRepo struct {
	assets map[int64]*models.Asset
	nextID int64
}

func newFakeAssetRepo() *fakeAssetRepo {
	return &fakeAssetRepo{assets: make(map[int64]*models.Asset)}
}

func (r *fakeAssetRepo) Create(_ context.Context, asset *models.Asset) error {
	r.nextID++
	asset.ID = r.nextID
	asset.CreatedAt = time.Now()
	asset.UpdatedAt = asset.CreatedAt
	clone := *asset
	r.assets[asset.ID] = &clone
	return nil
}

func (r *fakeAssetRepo) GetByID(_ context.Context, id int64) (*models.Asset, error) {
	a, ok := r.assets[id]
	if !ok {
		return nil, fmt.Errorf("asset %d: %w", id, domain.ErrNotFound)
	}
	clone := *a
	return &clone, nil
}

func (r *fakeAssetRepo) GetByUUID(_ context.Context, assetUUID string) (*models.Asset, error) {
	for _, a := range r.assets {
		if a.UUID == assetUUID {
			clone := *a
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("asset %s: %w", assetUUID, domain.ErrNotFound)
}

func (r *fakeAssetRepo) GetByPath(_ context.Context, path string) (*models.Asset, error) {
	for _, a := range r.assets {
		if a.Path == path {
			clone := *a
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("asset %s: %w", path, domain.ErrNotFound)
}

func (r *fakeAssetRepo) List(_ context.Context, q repositories.ListAssetsQuery) ([]models.Asset, int, error) {
	var matched []models.Asset
	for _, a := range r.assets {
		if q.FolderID != nil && !sameParent(a.FolderID, q.FolderID) {
			continue
		}
		matched = append(matched, *a)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := len(matched)
	start := (q.Page - 1) * q.PerPage
	if start > total {
		start = total
	}
	end := start + q.PerPage
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *fakeAssetRepo) ListByIDs(_ context.Context, ids []int64) ([]models.Asset, error) {
	var out []models.Asset
	for _, id := range ids {
		if a, ok := r.assets[id]; ok {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeAssetRepo) ListImages(_ context.Context, folderIDs []int64, limit int) ([]models.Asset, error) {
	inScope := func(folderID *int64) bool {
		if folderID == nil {
			return false
		}
		for _, id := range folderIDs {
			if *folderID == id {
				return true
			}
		}
		return false
	}

	var matched []models.Asset
	for _, a := range r.assets {
		if strings.HasPrefix(a.Mime, "image/") && inScope(a.FolderID) {
			matched = append(matched, *a)
		}
	}
	// Newest first; IDs are assigned in creation order.
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *fakeAssetRepo) CountByFolder(_ context.Context, folderID int64) (int, error) {
	count := 0
	for _, a := range r.assets {
		if a.FolderID != nil && *a.FolderID == folderID {
			count++
		}
	}
	return count, nil
}

func (r *fakeAssetRepo) SetFolder(_ context.Context, id int64, folderID *int64) error {
	a, ok := r.assets[id]
	if !ok {
		return fmt.Errorf("asset %d: %w", id, domain.ErrNotFound)
	}
	a.FolderID = folderID
	return nil
}

func (r *fakeAssetRepo) SetGeneratedThumbs(_ context.Context, id int64, thumbs map[string]models.Thumbnail) error {
	a, ok := r.assets[id]
	if !ok {
		return fmt.Errorf("asset %d: %w", id, domain.ErrNotFound)
	}
	a.GeneratedThumbs = thumbs
	return nil
}

func (r *fakeAssetRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.assets[id]; !ok {
		return fmt.Errorf("asset %d: %w", id, domain.ErrNotFound)
	}
	delete(r.assets, id)
	return nil
}

// addImage seeds an image asset directly into the fake.
func (r *fakeAssetRepo) addImage(folderID int64, path string) *models.Asset {
	r.nextID++
	a := &models.Asset{
		ID:              r.nextID,
		UUID:            uuid.NewString(),
		Path:            path,
		FolderID:        &folderID,
		Mime:            "image/png",
		GeneratedThumbs: map[string]models.Thumbnail{},
		CreatedAt:       time.Now(),
	}
	r.assets[a.ID] = a
	return a
}

// fakeTokenRepo is an in-memory FolderTokenRepository.
type fakeTokenRepo struct {
	tokens map[int64]*models.FolderToken
	nextID int64
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[int64]*models.FolderToken)}
}

func (r *fakeTokenRepo) Create(_ context.Context, token *models.FolderToken) error {
	r.nextID++
	token.ID = r.nextID
	token.CreatedAt = time.Now()
	token.UpdatedAt = token.CreatedAt
	clone := *token
	r.tokens[token.ID] = &clone
	return nil
}

func (r *fakeTokenRepo) GetByToken(_ context.Context, value string) (*models.FolderToken, error) {
	for _, t := range r.tokens {
		if t.Token == value {
			clone := *t
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("token: %w", domain.ErrNotFound)
}

func (r *fakeTokenRepo) ListByFolder(_ context.Context, folderID int64) ([]models.FolderToken, error) {
	var out []models.FolderToken
	for _, t := range r.tokens {
		if t.FolderID == folderID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTokenRepo) Delete(_ context.Context, id int64) error {
	delete(r.tokens, id)
	return nil
}

// fakeStorage is an in-memory blob store.
type fakeStorage struct {
	blobs map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{blobs: make(map[string][]byte)}
}

func (s *fakeStorage) Put(_ context.Context, key string, data []byte, _ string) error {
	s.blobs[key] = append([]byte(nil), data...)
	return nil
}

func (s *fakeStorage) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := s.blobs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return data, nil
}

func (s *fakeStorage) Delete(_ context.Context, key string) error {
	delete(s.blobs, key)
	return nil
}

func (s *fakeStorage) Exists(_ context.Context, key string) (bool, error) {
	_, ok := s.blobs[key]
	return ok, nil
}

func (s *fakeStorage) URL(key string) string { return "/assets/" + key }

// fakeEncoder renders fixed-size fake thumbnails and can be told to fail for
// specific source blobs.
type fakeEncoder struct {
	failFor map[string]bool // keyed by source content
}

func newFakeEncoder() *fakeEncoder {
	return &fakeEncoder{failFor: make(map[string]bool)}
}

func (e *fakeEncoder) Format() string { return "jpeg" }

func (e *fakeEncoder) Encode(src []byte, size, _ int) ([]byte, int, int, error) {
	if e.failFor[string(src)] {
		return nil, 0, 0, errors.New("decode image: corrupt data")
	}
	return []byte("thumb:" + string(src)), size, size, nil
}

// fakeTx runs the function without a real transaction.
type fakeTx struct{}

func (fakeTx) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

// recordingScheduler captures scheduled jobs without running them.
type recordingScheduler struct {
	scheduled []jobs.Job
}

func (s *recordingScheduler) Schedule(_ context.Context, job jobs.Job) error {
	s.scheduled = append(s.scheduled, job)
	return nil
}

func (s *recordingScheduler) count(jobType jobs.Type, folderID int64) int {
	n := 0
	for _, j := range s.scheduled {
		if j.Type == jobType && j.FolderID == folderID {
			n++
		}
	}
	return n
}
