package counter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/mviflow/internal/logging"
)

// ScriptWatcher reloads a LuaStepper whenever its script file is written.
type ScriptWatcher struct {
	stepper *LuaStepper
	path    string
	watcher *fsnotify.Watcher
	logger  *logging.Logger

	reloads  atomic.Int64
	failures atomic.Int64
}

// WatchStepScript starts watching path for stepper. The parent directory
// is watched so editors that replace the file by rename are still seen.
// Call Run to process changes.
func WatchStepScript(stepper *LuaStepper, path string, logger *logging.Logger) (*ScriptWatcher, error) {
	if logger == nil {
		logger = logging.NullLogger
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating script watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(absPath), err)
	}

	return &ScriptWatcher{
		stepper: stepper,
		path:    absPath,
		watcher: fsw,
		logger:  logger.WithComponent("step-script"),
	}, nil
}

// Run processes file events until ctx is done, then closes the watcher.
func (w *ScriptWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				w.reload()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error: %v", err)
		}
	}
}

// Reloads returns the number of successful reloads.
func (w *ScriptWatcher) Reloads() int64 {
	return w.reloads.Load()
}

// Failures returns the number of changes that could not be loaded.
func (w *ScriptWatcher) Failures() int64 {
	return w.failures.Load()
}

func (w *ScriptWatcher) reload() {
	src, err := os.ReadFile(w.path)
	if err == nil {
		err = w.stepper.Reload(string(src))
	}
	if err != nil {
		w.failures.Add(1)
		w.logger.Warn("keeping previous step script: %v", err)
		return
	}
	w.reloads.Add(1)
	w.logger.Info("reloaded %s", w.path)
}
