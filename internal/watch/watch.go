// Package watch reports changes to file-backed sheets.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce coalesces the burst of events produced by one atomic
// rename or append.
const DefaultDebounce = 100 * time.Millisecond

// Mapper turns a changed path into the sheet it holds. Paths that map to
// nothing are ignored.
type Mapper func(path string) (sheet string, ok bool)

// Options configures Run.
type Options struct {
	Debounce time.Duration
	Logger   *zap.Logger
}

// Run watches dir until ctx is done, calling onChange once per sheet after
// its files settle. onChange is never called concurrently.
func Run(ctx context.Context, dir string, mapper Mapper, onChange func(sheet string), opts Options) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	var (
		mu      sync.Mutex
		pending = map[string]bool{}
		timer   *time.Timer
		fire    = make(chan struct{}, 1)
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}
			sheet, ok := mapper(filepath.Clean(ev.Name))
			if !ok {
				continue
			}
			log.Debug("sheet file event", zap.String("sheet", sheet), zap.String("op", ev.Op.String()))
			mu.Lock()
			pending[sheet] = true
			if timer == nil {
				timer = time.AfterFunc(opts.Debounce, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(opts.Debounce)
			}
			mu.Unlock()
		case <-fire:
			mu.Lock()
			sheets := make([]string, 0, len(pending))
			for s := range pending {
				sheets = append(sheets, s)
			}
			pending = map[string]bool{}
			mu.Unlock()
			for _, s := range sheets {
				onChange(s)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("fsnotify error", zap.Error(err))
		}
	}
}
