// SPDX-License-Identifier: Apache-2.0

package watch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"mdmend/internal/repair"
)

// debounceWindow coalesces editor write bursts into one repair.
const debounceWindow = 300 * time.Millisecond

// Handler is invoked with the path of a changed document after debouncing.
type Handler func(path string)

// Run watches dir and invokes handler for every settled change to a
// repairable document. Returns when ctx is done.
func Run(ctx context.Context, dir string, log *zap.SugaredLogger, handler Handler) error {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("error watching %s: %w", dir, err)
	}

	var mu sync.Mutex
	pending := make(map[string]*time.Timer)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !repairable(event.Name) {
				continue
			}
			log.Debugw("document changed", "path", event.Name, "op", event.Op.String())

			mu.Lock()
			if timer, exists := pending[event.Name]; exists {
				timer.Stop()
			}
			name := event.Name
			pending[name] = time.AfterFunc(debounceWindow, func() {
				mu.Lock()
				delete(pending, name)
				mu.Unlock()
				handler(name)
			})
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warnw("watch error", "error", err)
		}
	}
}

// repairable filters out backups and our own output so a repair never
// triggers another repair.
func repairable(path string) bool {
	return strings.HasSuffix(path, ".md") &&
		!strings.HasSuffix(path, repair.OutputSuffix) &&
		!strings.HasSuffix(path, repair.BackupSuffix)
}
