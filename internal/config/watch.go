package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/vanpelt/agentdeck/internal/logger"
	"github.com/vanpelt/agentdeck/internal/recovery"
)

// reloadDebounce coalesces the burst of events editors produce on save.
const reloadDebounce = 200 * time.Millisecond

// Watch reloads the config file at path whenever it changes and passes the
// new value to onChange. The parent directory is watched so atomic
// rename-over saves are seen. Watching stops when ctx is done.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	name := filepath.Base(path)
	reload := make(chan struct{}, 1)

	recovery.SafeGo("config-watcher", func() {
		defer watcher.Close()

		var timer *time.Timer
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != name {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(reloadDebounce, func() {
					select {
					case reload <- struct{}{}:
					default:
					}
				})

			case <-reload:
				cfg, err := Load(path)
				if err != nil {
					logger.Warnf("⚠️ Ignoring config change: %v", err)
					continue
				}
				logger.Infof("🔄 Reloaded %s", path)
				onChange(cfg)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warnf("⚠️ Config watcher error: %v", err)

			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			}
		}
	})
	return nil
}

// FilePath returns the config file location for an explicit path or the
// default under DataDir.
func FilePath(path string) string {
	if path != "" {
		return path
	}
	return filepath.Join(DefaultDataDir(), configFileName)
}
