package recents

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// watch runs an fsnotify watcher on dir until ctx is cancelled, calling
// trigger for every create, write, remove or rename of a file whose name
// matches pattern. The directory itself is watched non-recursively.
func watch(ctx context.Context, w *fsnotify.Watcher, dir, pattern string, logger *slog.Logger, trigger func()) {
	defer w.Close()

	logger.Info("watcher: started", slog.String("root", dir), slog.String("pattern", pattern))

	const relevant = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename
	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Op&relevant == 0 {
				continue
			}
			if ok, _ := filepath.Match(pattern, filepath.Base(ev.Name)); !ok {
				continue
			}
			logger.Debug("watcher: change", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			trigger()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return
			}
			// Overflow means events were lost; a rescan picks them up.
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
			trigger()
		}
	}
}

// newWatcher creates an fsnotify watcher already registered on dir.
func newWatcher(dir string) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, err
	}
	return w, nil
}
