package server

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/phrasetag/phrasetag/internal/config"
)

const reloadDebounce = 250 * time.Millisecond

// Loader produces a fresh, validated config for a reload.
type Loader func() (*config.Config, error)

// Watch reloads the engine whenever the config file or one of its phrase
// files changes. Directories are watched rather than files so that editors
// that replace files by rename are seen. Changes go through Reload, so
// server.listen and the logging section still need a restart. Watch
// returns when ctx is done.
func (s *Server) Watch(ctx context.Context, files []string, load Loader) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	watched := map[string]bool{}
	dirs := map[string]bool{}
	track := func(files []string) {
		for _, f := range files {
			abs, err := filepath.Abs(f)
			if err != nil {
				continue
			}
			watched[abs] = true
			dir := filepath.Dir(abs)
			if dirs[dir] {
				continue
			}
			if err := watcher.Add(dir); err != nil {
				s.logger.Warn("watch failed", "dir", dir, "error", err)
				continue
			}
			dirs[dir] = true
		}
	}
	track(files)

	timer := time.NewTimer(reloadDebounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !watched[filepath.Clean(ev.Name)] {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				timer.Reset(reloadDebounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watcher error", "error", err)
		case <-timer.C:
			cfg, err := load()
			if err != nil {
				s.metrics.ObserveReload(err)
				s.logger.Error("reload failed, keeping current phrase sets", "error", err)
				continue
			}
			if err := s.Reload(cfg); err != nil {
				s.logger.Error("reload failed, keeping current phrase sets", "error", err)
				continue
			}
			track(cfg.Files())
		}
	}
}
