package batch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/joseph-ayodele/expense-tracker/constants"
)

type WatchConfig struct {
	Root       string
	Extensions []string // DefaultExtensions when empty
	SkipHidden bool
	Debounce   time.Duration // per file: emitted once no event arrived for this long
}

// Watch reports receipt files created or rewritten under cfg.Root, including files in
// directories created after the watch started. Both channels close when ctx is done.
func Watch(ctx context.Context, cfg WatchConfig, logger *zap.Logger) (<-chan string, <-chan error, error) {
	if cfg.Root == "" {
		return nil, nil, errors.New("root path is required")
	}
	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	allowed := map[string]struct{}{}
	for _, e := range exts {
		allowed[constants.NormalizeExt(e)] = struct{}{}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}
	if err := addTree(w, cfg.Root, cfg.SkipHidden); err != nil {
		_ = w.Close()
		return nil, nil, err
	}

	paths := make(chan string, 64)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer close(paths)
		defer func() { _ = w.Close() }()

		// one timer per path; gen discards firings superseded by a later event
		type quiet struct {
			path string
			gen  uint64
		}
		type debounce struct {
			timer *time.Timer
			gen   uint64
		}
		pending := map[string]*debounce{}
		ready := make(chan quiet)
		defer func() {
			for _, d := range pending {
				d.timer.Stop()
			}
		}()

		emit := func(p string) bool {
			select {
			case paths <- p:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if cfg.SkipHidden && isHidden(ev.Name) {
					continue
				}
				if ev.Has(fsnotify.Create) {
					if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
						if err := addTree(w, ev.Name, cfg.SkipHidden); err != nil {
							logger.Warn("batch.watch.add_dir_failed", zap.String("path", ev.Name), zap.Error(err))
						}
						continue
					}
				}
				if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
					continue
				}
				if _, ok := allowed[constants.NormalizeExt(filepath.Ext(ev.Name))]; !ok {
					continue
				}
				if cfg.Debounce <= 0 {
					if !emit(ev.Name) {
						return
					}
					continue
				}
				d, ok := pending[ev.Name]
				if !ok {
					d = &debounce{}
					pending[ev.Name] = d
				} else {
					d.timer.Stop()
				}
				d.gen++
				q := quiet{path: ev.Name, gen: d.gen}
				d.timer = time.AfterFunc(cfg.Debounce, func() {
					select {
					case ready <- q:
					case <-ctx.Done():
					}
				})

			case q := <-ready:
				d, ok := pending[q.path]
				if !ok || d.gen != q.gen {
					continue
				}
				delete(pending, q.path)
				if !emit(q.path) {
					return
				}

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("batch.watch.error", zap.Error(err))
				select {
				case errs <- err:
				default:
				}
			}
		}
	}()

	return paths, errs, nil
}

func addTree(w *fsnotify.Watcher, root string, skipHidden bool) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() {
			return nil
		}
		if skipHidden && path != root && isHidden(path) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
