package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/oa-archive/oat/internal/storage"
)

// watchDebounce coalesces bursts of filesystem events into one rescan.
const watchDebounce = 2 * time.Second

// Watch runs an initial scan, then rescans whenever the watched root
// changes, until ctx is cancelled. onPass is called after every
// completed pass with its result.
//
// Only the root itself is watched; a pass re-reads every publication
// folder anyway, so per-subdirectory watches would add nothing but
// descriptor pressure.
func Watch(ctx context.Context, store storage.Store, opts Options, onPass func(*ScanResult)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(opts.Root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", opts.Root, err)
	}

	runPass := func() error {
		result, err := Scan(ctx, store, opts, time.Now())
		if err != nil {
			return err
		}
		if onPass != nil {
			onPass(result)
		}
		return nil
	}

	if err := runPass(); err != nil {
		return err
	}

	var debounce *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case _, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if debounce == nil {
				debounce = time.NewTimer(watchDebounce)
			} else {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(watchDebounce)
			}
			fire = debounce.C

		case <-fire:
			fire = nil
			if err := runPass(); err != nil {
				return err
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch error: %w", err)
		}
	}
}
