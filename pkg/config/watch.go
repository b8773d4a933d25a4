package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watch reloads the configuration whenever the file at path is written or
// replaced and hands the result to onChange. It blocks until ctx is done.
//
// The parent directory is watched rather than the file itself so that
// editors and config management tools that swap the file in by rename are
// still picked up.
func Watch(ctx context.Context, path string, onChange func(*GhostConfig)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	log := logrus.WithField("config_file", path)
	log.Info("Watching configuration file for changes")

	target := filepath.Clean(path)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cfg, err := LoadFile(path)
			if err != nil {
				log.WithError(err).Warn("Ignoring unreadable configuration change")
				continue
			}
			if err := cfg.Validate(); err != nil {
				log.WithError(err).Warn("Ignoring invalid configuration change")
				continue
			}

			configMu.Lock()
			globalConfig = cfg
			configMu.Unlock()

			log.Info("Configuration reloaded")
			onChange(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("Watcher error")
		case <-ctx.Done():
			return nil
		}
	}
}
