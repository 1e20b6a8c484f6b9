package config

import (
	"path/filepath"
	"time"

	"talentlens/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// PromptWatcher hot-reloads prompt template files when they change on
// disk, so prompt tuning does not require a restart. Watching is
// directory-based because many editors replace files atomically
// (rename), which drops inode-level watches.
type PromptWatcher struct {
	watcher  *fsnotify.Watcher
	paths    map[string]bool // absolute paths being watched
	debounce time.Duration
	logger   *errors.Logger
	done     chan struct{}
}

// NewPromptWatcher starts watching the configured prompt files. Returns
// nil without error when no prompt files are configured.
func NewPromptWatcher(cfg *Config, logger *errors.Logger) (*PromptWatcher, error) {
	paths := cfg.promptFilePaths()
	if len(paths) == 0 {
		return nil, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.NewInternalError("PROMPT_WATCHER_FAILED",
			"Failed to create prompt file watcher", err)
	}

	pw := &PromptWatcher{
		watcher:  watcher,
		paths:    make(map[string]bool, len(paths)),
		debounce: time.Second,
		logger:   logger,
		done:     make(chan struct{}),
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		pw.paths[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return nil, errors.NewInternalError("PROMPT_WATCHER_FAILED",
				"Failed to watch prompt directory: "+dir, err)
		}
	}

	go pw.run()

	logger.Info("Prompt file watcher started",
		"files", len(pw.paths),
		"directories", len(dirs))
	return pw, nil
}

// run processes filesystem events, debouncing bursts of writes per file.
func (pw *PromptWatcher) run() {
	pending := make(map[string]bool)
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case event, ok := <-pw.watcher.Events:
			if !ok {
				return
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				abs = event.Name
			}
			if !pw.paths[abs] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending[abs] = true
			if timer == nil {
				timer = time.NewTimer(pw.debounce)
				timerC = timer.C
			} else {
				timer.Reset(pw.debounce)
			}

		case <-timerC:
			for path := range pending {
				if err := loadPromptFile(path); err != nil {
					pw.logger.LogError(err, "Failed to reload prompt file", "path", path)
					continue
				}
				pw.logger.Info("Prompt file reloaded", "path", path)
			}
			pending = make(map[string]bool)
			timer = nil
			timerC = nil

		case err, ok := <-pw.watcher.Errors:
			if !ok {
				return
			}
			pw.logger.Warn("Prompt watcher error", "error", err)

		case <-pw.done:
			return
		}
	}
}

// Stop shuts the watcher down.
func (pw *PromptWatcher) Stop() {
	if pw == nil {
		return
	}
	close(pw.done)
	_ = pw.watcher.Close()
}
