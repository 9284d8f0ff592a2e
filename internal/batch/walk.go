package batch

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/expense-tracker/constants"
)

// DefaultExtensions are the receipt file types picked up when no filter is given.
var DefaultExtensions = []string{"pdf", "jpg", "jpeg", "png", "webp"}

type DirStats struct {
	Scanned uint32
	Matched uint32
	Failed  uint32
}

// WalkError records a path the walker could not read.
type WalkError struct {
	Path string
	Err  error
}

// CollectFiles walks root and returns the files whose extension is in includeExts
// (DefaultExtensions when empty). Hidden files and directories are skipped when
// skipHidden is set. Unreadable entries are reported and the walk continues.
func CollectFiles(root string, includeExts []string, skipHidden bool) ([]string, []WalkError, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, nil, DirStats{}, errors.New("root path is required")
	}

	if len(includeExts) == 0 {
		includeExts = DefaultExtensions
	}
	exts := map[string]struct{}{}
	for _, e := range includeExts {
		e = constants.NormalizeExt(e)
		if e != "" {
			exts[e] = struct{}{}
		}
	}

	var (
		files  []string
		failed []WalkError
		stats  DirStats
	)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			failed = append(failed, WalkError{Path: path, Err: walkErr})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := exts[constants.NormalizeExt(filepath.Ext(path))]; !ok {
			return nil
		}
		stats.Matched++
		files = append(files, path)
		return nil
	})
	if err != nil {
		return files, failed, stats, err
	}
	return files, failed, stats, nil
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
