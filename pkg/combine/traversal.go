// File: pkg/combine/traversal.go
package combine

import (
	"os"
	"path/filepath"

	"gptloader/pkg/ignore"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// CollectFiles walks root and returns the paths of every regular file whose path relative
// to root is not ignored, in walk order. Paths listed in exclude are skipped. Entries that
// cannot be read are logged and skipped; a missing root yields no files.
func CollectFiles(fs afero.Fs, root string, gi *ignore.List, exclude []string, logger *zap.Logger) ([]string, error) {
	var files []string
	logger.Debug("Starting file collection", zap.String("root", root))

	excluded := make(map[string]bool, len(exclude))
	for _, path := range exclude {
		if path == "" {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			excluded[abs] = true
		}
	}

	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			logger.Warn("Error accessing path during traversal", zap.String("path", path), zap.Error(err))
			return nil
		}

		// A root that is itself a file has nothing under it.
		if info.IsDir() || path == root || !isRegular(fs, path, info) {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			logger.Warn("Unable to determine relative path", zap.String("path", path), zap.Error(err))
			return nil
		}

		if gi.MatchesPath(relPath) {
			logger.Debug("Skipping ignored file", zap.String("relPath", relPath))
			return nil
		}

		if abs, err := filepath.Abs(path); err == nil && excluded[abs] {
			logger.Debug("Skipping excluded file", zap.String("path", path))
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		logger.Error("Error during file traversal", zap.Error(err))
		return files, err
	}

	logger.Debug("Completed file collection", zap.Int("files", len(files)))
	return files, nil
}

// isRegular reports whether a walked entry is a regular file, following symlinks.
func isRegular(fs afero.Fs, path string, info os.FileInfo) bool {
	if info.Mode()&os.ModeSymlink != 0 {
		target, err := fs.Stat(path)
		if err != nil {
			return false
		}
		return target.Mode().IsRegular()
	}
	return info.Mode().IsRegular()
}
