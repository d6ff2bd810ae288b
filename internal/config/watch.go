package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// envSettleDelay coalesces the burst of events editors produce on save.
const envSettleDelay = 250 * time.Millisecond

// EnvWatcher re-reads a .env file whenever it changes on disk.
type EnvWatcher struct {
	path     string
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
	onChange func(map[string]string)

	mu    sync.Mutex
	timer *time.Timer
	wg    sync.WaitGroup
}

// WatchEnvFile starts watching path and calls onChange with the parsed file after
// each settled change. The file is watched through its parent directory so
// editors that replace the file on save keep working. Watching stops when ctx ends.
func WatchEnvFile(ctx context.Context, path string, logger *slog.Logger, onChange func(map[string]string)) (*EnvWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve env file: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	w := &EnvWatcher{
		path:     abs,
		logger:   logger,
		watcher:  watcher,
		onChange: onChange,
	}

	w.wg.Add(1)
	go w.run(ctx)

	return w, nil
}

// Close stops the watcher and waits for its goroutine.
func (w *EnvWatcher) Close() error {
	err := w.watcher.Close()
	w.wg.Wait()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	return err
}

func (w *EnvWatcher) run(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.schedule()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("env file watcher error", "path", w.path, "error", err)
		}
	}
}

func (w *EnvWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(envSettleDelay, w.reload)
}

func (w *EnvWatcher) reload() {
	values, err := parseEnvFile(w.path)
	if err != nil {
		w.logger.Warn("failed to re-read env file", "path", w.path, "error", err)
		return
	}
	w.logger.Debug("env file changed", "path", w.path, "keys", len(values))
	w.onChange(values)
}
