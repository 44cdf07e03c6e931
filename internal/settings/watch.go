package settings

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/loykin/prnotify/internal/common"
)

// watchDebounce coalesces the bursts of events editors produce on save.
const watchDebounce = 200 * time.Millisecond

// WatchFile imports the YAML settings file at path whenever it is written,
// created or renamed, until ctx is done. fn, when set, receives the result
// of every import. The directory is watched so atomic replaces are seen.
func (s *Service) WatchFile(ctx context.Context, path string, fn func(error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return err
	}

	logger := common.GetLogger().WithComponent("settings-watch")
	logger.Info("watching settings file", "path", path)

	go func() {
		defer func() { _ = w.Close() }()
		var timer *time.Timer
		var timerCh <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != base {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(watchDebounce)
				} else {
					timer.Reset(watchDebounce)
				}
				timerCh = timer.C
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("watch error", "error", err)
			case <-timerCh:
				timerCh = nil
				err := s.ImportFile(ctx, path)
				if err != nil {
					logger.Error("failed to reload settings file", "path", path, "error", err)
				} else {
					s.cache.Invalidate()
					logger.Info("settings file reloaded", "path", path)
				}
				if fn != nil {
					fn(err)
				}
			}
		}
	}()
	return nil
}
