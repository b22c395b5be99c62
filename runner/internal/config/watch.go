package config

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/alignpool/alignpool/runner/internal/fswatch"
)

// Watch monitors path for changes and calls onChange with the newly loaded
// Config each time the file is rewritten. It runs until ctx is cancelled.
//
// The parent directory is watched so that editors that save by renaming a
// temp file over path are still seen. If a reload fails (e.g. invalid YAML)
// the error is logged and the previous config remains active.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	base := filepath.Base(path)
	slog.Info("config: watching for changes", "path", path)

	return fswatch.Watch(ctx, filepath.Dir(path), fswatch.Options{
		Match: func(name string) bool { return name == base },
	}, func() {
		cfg, err := Load(path)
		if err != nil {
			slog.Error("config: reload failed, keeping previous config",
				"path", path, "err", err)
			return
		}
		slog.Info("config: reloaded", "path", path)
		onChange(cfg)
	})
}
