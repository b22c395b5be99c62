package scenario

import (
	"context"
	"log/slog"

	"github.com/alignpool/alignpool/runner/internal/fswatch"
)

// Watch calls onChange whenever a definition file in dir is created,
// modified, removed or renamed. It runs until ctx is cancelled.
func Watch(ctx context.Context, dir string, onChange func()) error {
	slog.Info("scenario: watching directory", "dir", dir)
	return fswatch.Watch(ctx, dir, fswatch.Options{Match: IsDefinitionFile}, onChange)
}
