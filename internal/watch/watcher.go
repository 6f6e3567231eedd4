// Package watch reloads the week collection when its backing file is changed
// by something other than this process.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/weekboard/internal/checksum"
	"github.com/starford/weekboard/internal/kv"
	"github.com/starford/weekboard/internal/weeks"
)

// DefaultDebounce is how long the watcher waits after the last file event
// before comparing checksums.
const DefaultDebounce = 200 * time.Millisecond

// ReloadCallback is called after the repository has been reloaded from disk.
type ReloadCallback func(sum string)

// Watch starts an fsnotify watcher on the store directory and reloads repo
// whenever the file holding its key changes to content that differs from what
// the repository last read or wrote. It blocks until ctx is cancelled.
//
// The directory is watched rather than the file itself because atomic writes
// replace the file through a rename, which drops a per-file watch.
func Watch(ctx context.Context, store *kv.FS, repo *weeks.Repository, logger *slog.Logger, debounce time.Duration, cb ReloadCallback) error {
	target, err := store.Path(repo.Key())
	if err != nil {
		return err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: new watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(store.Root()); err != nil {
		return fmt.Errorf("watch: add %s: %w", store.Root(), err)
	}

	logger.Info("watcher: started", slog.String("file", target))

	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			timer = nil
			timerCh = nil
			reload(ctx, target, repo, logger, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("watcher: event", slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reload compares the file on disk with the repository's persisted checksum
// and reloads when they differ. Writes made by the repository itself match
// and are ignored.
func reload(ctx context.Context, target string, repo *weeks.Repository, logger *slog.Logger, cb ReloadCallback) {
	data, err := os.ReadFile(target)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("watcher: read failed", slog.String("error", err.Error()))
		}
		return
	}
	sum := checksum.Sum(data)
	if sum == repo.PersistedChecksum() {
		return
	}
	repo.Load(ctx)
	logger.Info("watcher: reloaded from disk", slog.String("checksum", sum))
	if cb != nil {
		cb(sum)
	}
}
