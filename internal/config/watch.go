// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the bursts of write events editors produce when
// saving a file.
const watchDebounce = 250 * time.Millisecond

// Watch reloads the configuration file whenever it changes and publishes the
// result through SetGlobal and the optional onChange callback. It returns a
// stop function. A missing config file simply means no events arrive until
// it is created.
func Watch(path string, logger *slog.Logger, onChange func(*Config)) (func(), error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory, not the file: editors replace files on save,
	// which drops a direct file watch.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	done := make(chan struct{})

	go func() {
		var pending <-chan time.Time
		for {
			select {
			case <-done:
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Name != path {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				pending = time.After(watchDebounce)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config watch error", slog.String("error", err.Error()))
			case <-pending:
				pending = nil
				cfg, err := LoadFrom(path)
				if err != nil {
					logger.Warn("config reload failed",
						slog.String("path", path),
						slog.String("error", err.Error()))
					continue
				}
				SetGlobal(cfg)
				logger.Info("config reloaded", slog.String("path", path))
				if onChange != nil {
					onChange(cfg)
				}
			}
		}
	}()

	return func() {
		close(done)
		watcher.Close()
	}, nil
}
