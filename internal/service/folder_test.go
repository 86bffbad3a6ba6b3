package service

import (
	"context"
	"errors"
	"testing"

	"assetlib/internal/domain"
	"assetlib/internal/domain/models"
	"assetlib/internal/domain/services"
	"assetlib/internal/jobs"
)

type folderFixture struct {
	svc       services.FolderService
	folders   *fakeFolderRepo
	assets    *fakeAssetRepo
	scheduler *recordingScheduler
}

func newFolderFixture() *folderFixture {
	folders := newFakeFolderRepo()
	assets := newFakeAssetRepo()
	scheduler := &recordingScheduler{}
	svc := NewFolderService(FolderServiceConfig{
		Folders:   folders,
		Assets:    assets,
		Tx:        fakeTx{},
		Scheduler: scheduler,
		Logger:    testLogger(),
	})
	return &folderFixture{svc: svc, folders: folders, assets: assets, scheduler: scheduler}
}

func (f *folderFixture) mustCreate(t *testing.T, ownerID int64, name string, parentID *int64) *models.Folder {
	t.Helper()
	folder, err := f.svc.Create(context.Background(), &services.CreateFolderRequest{
		OwnerID:  ownerID,
		Name:     name,
		ParentID: parentID,
	})
	if err != nil {
		t.Fatalf("Create(%q) failed: %v", name, err)
	}
	return folder
}

func TestCreateFolderSlugs(t *testing.T) {
	f := newFolderFixture()
	ctx := context.Background()

	first := f.mustCreate(t, 1, "Projects", nil)
	if first.Slug != "projects" {
		t.Errorf("first slug = %q, want %q", first.Slug, "projects")
	}
	if first.Depth != 0 {
		t.Errorf("root depth = %d, want 0", first.Depth)
	}

	second := f.mustCreate(t, 1, "Projects", nil)
	if second.Slug != "projects-2" {
		t.Errorf("second slug = %q, want %q", second.Slug, "projects-2")
	}

	// A different sibling scope starts the numbering over.
	nested := f.mustCreate(t, 1, "Projects", &first.ID)
	if nested.Slug != "projects" {
		t.Errorf("nested slug = %q, want %q", nested.Slug, "projects")
	}
	if nested.Depth != 1 {
		t.Errorf("nested depth = %d, want 1", nested.Depth)
	}

	// Names that slugify to nothing fall back to a fixed stem.
	emoji, err := f.svc.Create(ctx, &services.CreateFolderRequest{OwnerID: 1, Name: "🎨🎨🎨"})
	if err != nil {
		t.Fatalf("Create(emoji) failed: %v", err)
	}
	if emoji.Slug != "folder" {
		t.Errorf("emoji slug = %q, want %q", emoji.Slug, "folder")
	}
}

func TestCreateFolderValidation(t *testing.T) {
	f := newFolderFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, &services.CreateFolderRequest{OwnerID: 1, Name: ""})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("empty name error = %v, want ErrValidation", err)
	}

	missing := int64(99)
	_, err = f.svc.Create(ctx, &services.CreateFolderRequest{OwnerID: 1, Name: "a", ParentID: &missing})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing parent error = %v, want ErrNotFound", err)
	}

	// Another owner's folder is invisible as a parent.
	other := f.mustCreate(t, 2, "theirs", nil)
	_, err = f.svc.Create(ctx, &services.CreateFolderRequest{OwnerID: 1, Name: "a", ParentID: &other.ID})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("foreign parent error = %v, want ErrNotFound", err)
	}
}

func TestTrashedSiblingReservesSlug(t *testing.T) {
	f := newFolderFixture()
	ctx := context.Background()

	first := f.mustCreate(t, 1, "Projects", nil)
	if err := f.svc.Delete(ctx, 1, first.UUID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	// The trashed folder still holds "projects".
	second := f.mustCreate(t, 1, "Projects", nil)
	if second.Slug != "projects-2" {
		t.Errorf("slug after delete = %q, want %q", second.Slug, "projects-2")
	}

	restored, err := f.svc.Restore(ctx, 1, first.UUID)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if restored.Slug != "projects" {
		t.Errorf("restored slug = %q, want %q", restored.Slug, "projects")
	}
	if restored.Trashed() {
		t.Error("restored folder still trashed")
	}

	third := f.mustCreate(t, 1, "Projects", nil)
	if third.Slug != "projects-3" {
		t.Errorf("third slug = %q, want %q", third.Slug, "projects-3")
	}
}

func TestRestoreTakesNextFreeSlug(t *testing.T) {
	f := newFolderFixture()
	ctx := context.Background()

	first := f.mustCreate(t, 1, "Docs", nil)
	if err := f.svc.Delete(ctx, 1, first.UUID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	// Hand the trashed folder's slug to a new sibling so restore must yield.
	stored := f.folders.folders[first.ID]
	stored.Slug = "docs-x"
	f.mustCreate(t, 1, "Docs", nil)

	restored, err := f.svc.Restore(ctx, 1, first.UUID)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if restored.Slug != "docs-2" {
		t.Errorf("restored slug = %q, want %q", restored.Slug, "docs-2")
	}
}

func TestMoveFolderSyncsSubtreeDepth(t *testing.T) {
	f := newFolderFixture()
	ctx := context.Background()

	a := f.mustCreate(t, 1, "a", nil)
	b := f.mustCreate(t, 1, "b", &a.ID)
	c := f.mustCreate(t, 1, "c", &b.ID)

	moved, err := f.svc.Move(ctx, b.UUID, &services.MoveFolderRequest{OwnerID: 1, ParentID: nil})
	if err != nil {
		t.Fatalf("Move to root failed: %v", err)
	}
	if moved.Depth != 0 {
		t.Errorf("moved depth = %d, want 0", moved.Depth)
	}
	if got := f.folders.folders[c.ID].Depth; got != 1 {
		t.Errorf("descendant depth = %d, want 1", got)
	}

	// Both old and new parents get recounted; the new parent is the root
	// (no folder), so only the old parent job is expected.
	if n := f.scheduler.count(jobs.TypeUpdateFolderCounters, a.ID); n == 0 {
		t.Error("expected counter job for the old parent")
	}

	// Move back down two levels.
	if _, err := f.svc.Move(ctx, b.UUID, &services.MoveFolderRequest{OwnerID: 1, ParentID: &a.ID}); err != nil {
		t.Fatalf("Move under a failed: %v", err)
	}
	if got := f.folders.folders[b.ID].Depth; got != 1 {
		t.Errorf("b depth = %d, want 1", got)
	}
	if got := f.folders.folders[c.ID].Depth; got != 2 {
		t.Errorf("c depth = %d, want 2", got)
	}
}

func TestMoveRejectsCycles(t *testing.T) {
	f := newFolderFixture()
	ctx := context.Background()

	a := f.mustCreate(t, 1, "a", nil)
	b := f.mustCreate(t, 1, "b", &a.ID)
	c := f.mustCreate(t, 1, "c", &b.ID)

	_, err := f.svc.Move(ctx, a.UUID, &services.MoveFolderRequest{OwnerID: 1, ParentID: &c.ID})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("move into descendant error = %v, want ErrValidation", err)
	}

	_, err = f.svc.Move(ctx, a.UUID, &services.MoveFolderRequest{OwnerID: 1, ParentID: &a.ID})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("move into self error = %v, want ErrValidation", err)
	}
}

func TestMoveResolvesSlugCollision(t *testing.T) {
	f := newFolderFixture()
	ctx := context.Background()

	a := f.mustCreate(t, 1, "a", nil)
	f.mustCreate(t, 1, "docs", &a.ID)
	loose := f.mustCreate(t, 1, "docs", nil)

	moved, err := f.svc.Move(ctx, loose.UUID, &services.MoveFolderRequest{OwnerID: 1, ParentID: &a.ID})
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if moved.Slug != "docs-2" {
		t.Errorf("moved slug = %q, want %q", moved.Slug, "docs-2")
	}
}

func TestRenameRegeneratesSlugAndPreview(t *testing.T) {
	f := newFolderFixture()
	ctx := context.Background()

	folder := f.mustCreate(t, 1, "Old Name", nil)

	renamed, err := f.svc.Rename(ctx, folder.UUID, &services.RenameFolderRequest{OwnerID: 1, Name: "New Name"})
	if err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if renamed.Slug != "new-name" {
		t.Errorf("renamed slug = %q, want %q", renamed.Slug, "new-name")
	}
	if f.scheduler.count(jobs.TypeGenerateFolderPreview, folder.ID) < 2 {
		t.Error("expected a preview job after rename")
	}

	// Renaming to the same name is a no-op.
	sameBefore := len(f.scheduler.scheduled)
	if _, err := f.svc.Rename(ctx, folder.UUID, &services.RenameFolderRequest{OwnerID: 1, Name: "New Name"}); err != nil {
		t.Fatalf("no-op rename failed: %v", err)
	}
	if len(f.scheduler.scheduled) != sameBefore {
		t.Error("no-op rename scheduled jobs")
	}
}

func TestDeleteSchedulesParentMaintenance(t *testing.T) {
	f := newFolderFixture()
	ctx := context.Background()

	parent := f.mustCreate(t, 1, "parent", nil)
	child := f.mustCreate(t, 1, "child", &parent.ID)

	if err := f.svc.Delete(ctx, 1, child.UUID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if f.scheduler.count(jobs.TypeUpdateFolderCounters, parent.ID) < 2 {
		t.Error("expected counter job for the parent after delete")
	}
	if f.scheduler.count(jobs.TypeGenerateFolderPreview, parent.ID) == 0 {
		t.Error("expected preview job for the parent after delete")
	}

	// The trashed folder is gone from active lookups.
	if _, err := f.svc.Get(ctx, 1, child.UUID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
}

func TestGetBuildsBreadcrumbs(t *testing.T) {
	f := newFolderFixture()
	ctx := context.Background()

	a := f.mustCreate(t, 1, "a", nil)
	b := f.mustCreate(t, 1, "b", &a.ID)
	c := f.mustCreate(t, 1, "c", &b.ID)

	got, err := f.svc.Get(ctx, 1, c.UUID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	want := []string{"a", "b", "c"}
	if len(got.Breadcrumbs) != len(want) {
		t.Fatalf("breadcrumbs = %d entries, want %d", len(got.Breadcrumbs), len(want))
	}
	for i, name := range want {
		if got.Breadcrumbs[i].Name != name {
			t.Errorf("breadcrumb[%d] = %q, want %q", i, got.Breadcrumbs[i].Name, name)
		}
	}
}

// Mutations return the folder's full current state, breadcrumb chain included.
func TestMutationsReturnBreadcrumbs(t *testing.T) {
	f := newFolderFixture()
	ctx := context.Background()

	root := f.mustCreate(t, 1, "root", nil)
	other := f.mustCreate(t, 1, "other", nil)

	created := f.mustCreate(t, 1, "child", &root.ID)
	assertCrumbs(t, "Create", created.Breadcrumbs, []string{"root", "child"})

	renamed, err := f.svc.Rename(ctx, created.UUID, &services.RenameFolderRequest{OwnerID: 1, Name: "renamed"})
	if err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	assertCrumbs(t, "Rename", renamed.Breadcrumbs, []string{"root", "renamed"})

	moved, err := f.svc.Move(ctx, created.UUID, &services.MoveFolderRequest{OwnerID: 1, ParentID: &other.ID})
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	assertCrumbs(t, "Move", moved.Breadcrumbs, []string{"other", "renamed"})

	if err := f.svc.Delete(ctx, 1, created.UUID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	restored, err := f.svc.Restore(ctx, 1, created.UUID)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	assertCrumbs(t, "Restore", restored.Breadcrumbs, []string{"other", "renamed"})
}

func assertCrumbs(t *testing.T, op string, got []models.Breadcrumb, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s breadcrumbs = %d entries, want %d", op, len(got), len(want))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("%s breadcrumb[%d] = %q, want %q", op, i, got[i].Name, name)
		}
	}
}

func TestRecountFolder(t *testing.T) {
	f := newFolderFixture()
	ctx := context.Background()

	parent := f.mustCreate(t, 1, "parent", nil)
	child := f.mustCreate(t, 1, "child", &parent.ID)
	f.mustCreate(t, 1, "grandchild", &child.ID)
	f.assets.addImage(child.ID, "uploads/one.png")
	f.assets.addImage(child.ID, "uploads/two.png")

	if err := f.svc.RecountFolder(ctx, child.ID); err != nil {
		t.Fatalf("RecountFolder failed: %v", err)
	}

	stored := f.folders.folders[child.ID]
	if stored.FilesCount != 2 {
		t.Errorf("files_count = %d, want 2", stored.FilesCount)
	}
	if stored.FoldersCount != 1 {
		t.Errorf("folders_count = %d, want 1", stored.FoldersCount)
	}
	if f.scheduler.count(jobs.TypeUpdateFolderCounters, parent.ID) == 0 {
		t.Error("expected propagation job for the parent")
	}
}

func TestRecountFolderCountsOnlyActiveChildren(t *testing.T) {
	f := newFolderFixture()
	ctx := context.Background()

	parent := f.mustCreate(t, 1, "parent", nil)
	keep := f.mustCreate(t, 1, "keep", &parent.ID)
	gone := f.mustCreate(t, 1, "gone", &parent.ID)
	_ = keep
	if err := f.svc.Delete(ctx, 1, gone.UUID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if err := f.svc.RecountFolder(ctx, parent.ID); err != nil {
		t.Fatalf("RecountFolder failed: %v", err)
	}
	if got := f.folders.folders[parent.ID].FoldersCount; got != 1 {
		t.Errorf("folders_count = %d, want 1", got)
	}
}

func TestRecountMissingFolderIsNoOp(t *testing.T) {
	f := newFolderFixture()

	if err := f.svc.RecountFolder(context.Background(), 424242); err != nil {
		t.Errorf("RecountFolder(missing) = %v, want nil", err)
	}
}

func TestCountersSettleWithInlineJobs(t *testing.T) {
	// End to end with the synchronous queue driver: every mutation's jobs run
	// inline, so the caches are exact after each call.
	folders := newFakeFolderRepo()
	assets := newFakeAssetRepo()
	sync := jobs.NewSyncScheduler()
	svc := NewFolderService(FolderServiceConfig{
		Folders:   folders,
		Assets:    assets,
		Tx:        fakeTx{},
		Scheduler: sync,
		Logger:    testLogger(),
	})
	sync.Bind(jobs.NewDispatcher(svc, noopPreviews{}, testLogger()))
	ctx := context.Background()

	parent, err := svc.Create(ctx, &services.CreateFolderRequest{OwnerID: 1, Name: "parent"})
	if err != nil {
		t.Fatalf("Create parent failed: %v", err)
	}
	for _, name := range []string{"one", "two", "three"} {
		if _, err := svc.Create(ctx, &services.CreateFolderRequest{OwnerID: 1, Name: name, ParentID: &parent.ID}); err != nil {
			t.Fatalf("Create %q failed: %v", name, err)
		}
	}

	if got := folders.folders[parent.ID].FoldersCount; got != 3 {
		t.Errorf("folders_count = %d, want 3", got)
	}
}

// noopPreviews satisfies the dispatcher when a test only exercises counters.
type noopPreviews struct{}

func (noopPreviews) Regenerate(context.Context, int64) error { return nil }
