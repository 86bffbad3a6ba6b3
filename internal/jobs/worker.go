package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Worker consumes jobs from the redis queue and runs them one at a time.
type Worker struct {
	client *redis.Client
	key    string
	runner Runner
	logger *slog.Logger
}

// NewWorker creates a worker over the given queue key.
func NewWorker(client *redis.Client, key string, runner Runner, logger *slog.Logger) *Worker {
	return &Worker{
		client: client,
		key:    key,
		runner: runner,
		logger: logger,
	}
}

// Run blocks consuming jobs until the context is canceled. Job failures are
// logged and never stop the loop; the original caller is long gone by the
// time a job runs.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("worker started", "queue", w.key)

	for {
		result, err := w.client.BRPop(ctx, 5*time.Second, w.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // queue empty, poll again
			}
			if ctx.Err() != nil {
				w.logger.Info("worker stopping")
				return nil
			}
			w.logger.Error("queue read failed", "error", err)
			time.Sleep(time.Second)
			continue
		}

		// BRPop returns [key, value].
		if len(result) != 2 {
			continue
		}

		var job Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			w.logger.Error("malformed job payload", "payload", result[1], "error", err)
			continue
		}

		start := time.Now()
		if err := w.runner.Run(ctx, job); err != nil {
			w.logger.Error("job failed",
				"type", job.Type,
				"folder_id", job.FolderID,
				"error", err,
			)
			continue
		}

		w.logger.Debug("job done",
			"type", job.Type,
			"folder_id", job.FolderID,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
