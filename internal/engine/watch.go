package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow batches bursts of filesystem events into one rescan.
const debounceWindow = 100 * time.Millisecond

// Watch runs an initial scan, then rescans whenever a source file changes,
// reporting each outcome through onScan. It blocks until ctx is cancelled
// or the watcher fails.
func (e *Engine) Watch(ctx context.Context, opts ScanOptions, onScan func(*ScanResult, error)) error {
	onScan(e.Scan(ctx, opts))

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watchDir(watcher, e.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", e.dir, err)
	}

	e.logger.Info("watching for changes", "dir", e.dir)

	// Scans triggered by the debounce timer run on their own goroutine.
	var scanMu sync.Mutex
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			// New subdirectories need their own watch.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watchDir(watcher, event.Name)
				}
			}

			if !strings.HasSuffix(event.Name, ".cs") {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceWindow, func() {
				scanMu.Lock()
				defer scanMu.Unlock()
				e.logger.Debug("change detected", "path", filepath.Base(event.Name))
				onScan(e.Scan(ctx, opts))
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			e.logger.Warn("watcher error", "error", err)
		}
	}
}

// watchDir recursively adds a directory tree to the watcher, skipping
// hidden directories.
func watchDir(watcher *fsnotify.Watcher, dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && path != dir {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
}
