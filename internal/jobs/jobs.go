// Package jobs carries the asynchronous folder-consistency work: counter
// reconciliation and preview regeneration. Jobs are identified by folder ID
// only; handlers re-query fresh state instead of trusting payload data, so a
// job scheduled twice in quick succession settles to the correct value.
package jobs

import "context"

// Type names a background job kind.
type Type string

const (
	// TypeUpdateFolderCounters recomputes a folder's direct file/subfolder
	// counts and propagates to the parent.
	TypeUpdateFolderCounters Type = "library:update-folder-counters"

	// TypeGenerateFolderPreview reselects a folder's preview assets and
	// ensures their thumbnails exist.
	TypeGenerateFolderPreview Type = "library:generate-folder-preview"
)

// Job is the queue payload. Deliberately minimal: counts and selections are
// never carried in the payload to avoid lost updates from stale state.
type Job struct {
	Type     Type  `json:"type"`
	FolderID int64 `json:"folder_id"`
}

// UpdateFolderCounters builds a counter reconciliation job.
func UpdateFolderCounters(folderID int64) Job {
	return Job{Type: TypeUpdateFolderCounters, FolderID: folderID}
}

// GenerateFolderPreview builds a preview regeneration job.
func GenerateFolderPreview(folderID int64) Job {
	return Job{Type: TypeGenerateFolderPreview, FolderID: folderID}
}

// Scheduler enqueues jobs fire-and-forget. The queue provides at-least-once
// delivery; handlers are idempotent.
type Scheduler interface {
	Schedule(ctx context.Context, job Job) error
}

// Runner executes a single job.
type Runner interface {
	Run(ctx context.Context, job Job) error
}
