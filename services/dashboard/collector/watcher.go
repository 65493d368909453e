// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package collector

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// ConfigWatcher hot-reloads the collector config file.
//
// # Description
//
// Watches the config file's directory (editors and config management tools
// replace files via rename, which a file-level watch would lose) and
// reloads the collector when the file is written or recreated. A rewrite
// that fails to parse keeps the last good config and logs the error; the
// collector never runs without targets because someone saved a broken
// YAML file.
//
// # Thread Safety
//
// Safe for concurrent use. Start should only be called once.
type ConfigWatcher struct {
	path      string
	collector *Collector
	watcher   *fsnotify.Watcher
}

// NewConfigWatcher creates a watcher for the given config path.
//
// # Inputs
//
//   - path: Collector config file path.
//   - collector: Collector to reload on change.
//
// # Outputs
//
//   - *ConfigWatcher: Ready-to-start watcher.
//   - error: Non-nil if the fsnotify watcher cannot be created or the
//     config's directory cannot be watched.
func NewConfigWatcher(path string, collector *Collector) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	return &ConfigWatcher{
		path:      path,
		collector: collector,
		watcher:   watcher,
	}, nil
}

// Start begins watching for config changes.
//
// # Description
//
// Blocks until the context is cancelled. Should be run in a goroutine.
func (w *ConfigWatcher) Start(ctx context.Context) {
	defer w.watcher.Close()

	slog.Info("Watching collector config", "path", w.path)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Config watcher error", "error", err)
		}
	}
}

// reload re-parses the config file and applies it, keeping the previous
// config on any failure.
func (w *ConfigWatcher) reload() {
	cfg, err := LoadConfig(w.path)
	if err != nil {
		slog.Error("Collector config rewrite is invalid, keeping previous config",
			"path", w.path, "error", err)
		return
	}

	if err := w.collector.Reload(cfg); err != nil {
		slog.Error("Collector rejected reloaded config, keeping previous config",
			"path", w.path, "error", err)
	}
}
