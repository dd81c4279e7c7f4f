package config

import (
	"context"
	"hash/fnv"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"notifyd/pkg/logx"
)

// Watch re-parses the config file whenever it changes and calls onChange with
// the new config. It blocks until ctx is cancelled.
//
// The directory is watched rather than the file itself so atomic-rename
// editors (vim, sed -i) do not silently detach the watch. Events are
// debounced, and unchanged content (same hash) is not republished. A config
// that fails to parse is logged and skipped; the previous config stays
// active.
func Watch(ctx context.Context, path string, log logx.Logger, onChange func(*Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return err
	}

	base := filepath.Base(path)
	lastHash := hashFile(path)

	var debounce *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Editors emit bursts of events; collapse them.
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(200*time.Millisecond, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("config watcher error", logx.Err(err))

		case <-fire:
			h := hashFile(path)
			if h == lastHash {
				continue
			}
			cfg, err := Parse(path)
			if err != nil {
				log.Error("config reload rejected", logx.Err(err))
				continue
			}
			lastHash = h
			log.Info("config reloaded", logx.String("path", path))
			onChange(cfg)
		}
	}
}

func hashFile(path string) uint64 {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}
