package jobs

import (
	"context"
	"fmt"
	"log/slog"
)

// FolderMaintainer is the counter-reconciliation job body.
type FolderMaintainer interface {
	RecountFolder(ctx context.Context, folderID int64) error
}

// PreviewMaintainer is the preview-regeneration job body.
type PreviewMaintainer interface {
	Regenerate(ctx context.Context, folderID int64) error
}

// Dispatcher routes jobs to their handlers.
type Dispatcher struct {
	folders  FolderMaintainer
	previews PreviewMaintainer
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher over the maintenance services.
func NewDispatcher(folders FolderMaintainer, previews PreviewMaintainer, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		folders:  folders,
		previews: previews,
		logger:   logger,
	}
}

// Run executes one job.
func (d *Dispatcher) Run(ctx context.Context, job Job) error {
	switch job.Type {
	case TypeUpdateFolderCounters:
		return d.folders.RecountFolder(ctx, job.FolderID)
	case TypeGenerateFolderPreview:
		return d.previews.Regenerate(ctx, job.FolderID)
	default:
		return fmt.Errorf("unknown job type %q", job.Type)
	}
}
