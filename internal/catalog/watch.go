package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads l whenever its catalog file changes, until ctx is done.
// The parent directory is watched so editors that replace the file by
// rename are picked up. onReload, if non-nil, receives the result of each
// reload attempt; a failed reload keeps the previous catalog.
func Watch(ctx context.Context, l *Local, onReload func(error)) error {
	if l.Path() == "" {
		return fmt.Errorf("watch: catalog has no backing file")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	target, err := filepath.Abs(l.Path())
	if err != nil {
		return fmt.Errorf("resolve catalog path: %w", err)
	}
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	slog.Debug("watching catalog", "path", target)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}

			err := l.Reload()
			if err != nil {
				slog.Warn("catalog reload failed", "path", target, "error", err)
			}
			if onReload != nil {
				onReload(err)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("catalog watcher error", "error", err)
		}
	}
}
