// Package fswatch wraps fsnotify for the config file and scenario directory
// watchers. It watches a directory rather than individual files so that
// atomic-save editors (write to temp file, rename over the original) keep
// producing events, and it coalesces bursts of events into one callback.
package fswatch

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Debounce defaults.
const (
	// DefaultDebounce is how long Watch waits for a burst of events to settle.
	DefaultDebounce = 200 * time.Millisecond

	// DefaultMaxWait bounds how long a continuous burst can postpone onChange.
	DefaultMaxWait = time.Second
)

// Options configures Watch.
type Options struct {
	// Match reports whether an event for the base name should trigger
	// onChange. A nil Match accepts every name.
	Match func(name string) bool

	// Debounce coalesces events that arrive within this window.
	// Zero means DefaultDebounce.
	Debounce time.Duration

	// MaxWait caps the delay between the first event of a burst and
	// onChange, so a writer saving more often than Debounce still triggers
	// reloads. Zero means DefaultMaxWait.
	MaxWait time.Duration
}

// Watch monitors dir and calls onChange after matching create, write, remove
// or rename events. It runs until ctx is cancelled and returns nil then.
// onChange runs on the Watch goroutine, so a slow callback delays the next
// one rather than overlapping it.
func Watch(ctx context.Context, dir string, opts Options, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	maxWait := opts.MaxWait
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}

	// pending is nil while no burst is in progress.
	var (
		timer      *time.Timer
		pending    <-chan time.Time
		burstStart time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	const relevant = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&relevant == 0 {
				continue
			}
			if opts.Match != nil && !opts.Match(filepath.Base(event.Name)) {
				continue
			}
			slog.Debug("fswatch: event", "dir", dir, "name", event.Name, "op", event.Op.String())
			if pending == nil {
				burstStart = time.Now()
			}
			delay := debounce
			if left := maxWait - time.Since(burstStart); left < delay {
				delay = max(left, 0)
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(delay)
			pending = timer.C

		case <-pending:
			pending = nil
			onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("fswatch: watcher error", "dir", dir, "err", err)
		}
	}
}
