// Package archive resolves the directory a run scans. A zip input is extracted into a
// clean directory; anything else is scanned in place.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gptloader/pkg/errors"
	"gptloader/pkg/logging"

	"github.com/gofrs/flock"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// IsZip reports whether path is a regular file that can be read as a zip archive.
func IsZip(fs afero.Fs, path string) bool {
	f, err := fs.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return false
	}

	_, err = zip.NewReader(f, info.Size())
	return err == nil || errors.Is(err, zip.ErrInsecurePath)
}

// Resolve returns the scan root for input. A zip input is extracted into extractDir,
// which is removed and recreated first so nothing from a previous run survives. When
// extractDir is empty a fresh temporary directory is created for this run. Any other
// input is returned unchanged, whether or not it exists.
func Resolve(fs afero.Fs, input, extractDir string, logger *zap.Logger) (string, error) {
	logger = logging.OrNop(logger)

	if !IsZip(fs, input) {
		logger.Debug("Input is not a zip archive, scanning in place", zap.String("input", input))
		return input, nil
	}

	if extractDir == "" {
		dir, err := afero.TempDir(fs, "", "gptloader-")
		if err != nil {
			logger.Error("Failed to create temporary extraction directory", zap.Error(err))
			return "", errors.WithStackTraceAndPrefix(err, "failed to create extraction directory")
		}
		extractDir = dir
	}

	unlock, err := lockDir(fs, extractDir, logger)
	if err != nil {
		return "", err
	}
	defer unlock()

	if err := fs.RemoveAll(extractDir); err != nil {
		logger.Error("Failed to clear extraction directory", zap.String("dir", extractDir), zap.Error(err))
		return "", errors.WithStackTraceAndPrefix(err, "failed to clear extraction directory %s", extractDir)
	}

	if err := Unzip(fs, extractDir, input, logger); err != nil {
		return "", err
	}

	logger.Info("Extracted archive", zap.String("archive", input), zap.String("dir", extractDir))
	return extractDir, nil
}

// Unzip extracts the zip archive src into dst on the given filesystem.
func Unzip(fs afero.Fs, dst, src string, logger *zap.Logger) error {
	logger = logging.OrNop(logger)

	f, err := fs.Open(src)
	if err != nil {
		return errors.WithStackTraceAndPrefix(err, "failed to open zip archive %q", src)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return errors.WithStackTraceAndPrefix(err, "failed to stat zip archive %q", src)
	}

	// Insecure entry names are rejected per entry by sanitizeZipPath.
	zipReader, err := zip.NewReader(f, info.Size())
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return errors.WithStackTraceAndPrefix(err, "failed to read zip archive %q", src)
	}

	if err := fs.MkdirAll(dst, os.ModePerm); err != nil {
		return errors.WithStackTraceAndPrefix(err, "failed to create directory %q", dst)
	}

	for _, zipFile := range zipReader.File {
		if err := extractZipFile(fs, dst, zipFile, logger); err != nil {
			return errors.WithStackTraceAndPrefix(err, "failed to extract file %q", zipFile.Name)
		}
	}

	logger.Debug("Unzipped archive", zap.String("src", src), zap.Int("entries", len(zipReader.File)))
	return nil
}

// sanitizeZipPath rejects entries that would land outside dst.
func sanitizeZipPath(dst, name string) (string, error) {
	for _, part := range strings.FieldsFunc(name, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return "", fmt.Errorf("illegal file path in zip: %s", name)
		}
	}

	destPath := filepath.Join(dst, filepath.Clean(filepath.FromSlash(name)))

	if !strings.HasPrefix(destPath, filepath.Clean(dst)+string(os.PathSeparator)) {
		return "", fmt.Errorf("illegal destination path in zip: %s", destPath)
	}

	return destPath, nil
}

func extractZipFile(fs afero.Fs, dst string, zipFile *zip.File, logger *zap.Logger) error {
	destPath, err := sanitizeZipPath(dst, zipFile.Name)
	if err != nil {
		return err
	}

	if zipFile.FileInfo().IsDir() {
		return fs.MkdirAll(destPath, os.ModePerm)
	}

	if err := fs.MkdirAll(filepath.Dir(destPath), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directory %q: %w", filepath.Dir(destPath), err)
	}

	rc, err := zipFile.Open()
	if err != nil {
		return fmt.Errorf("failed to open file %q: %w", zipFile.Name, err)
	}
	defer rc.Close()

	// Symlink entries are written as regular files holding the link target.
	mode := zipFile.Mode().Perm() | 0600
	outFile, err := fs.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("failed to create file %q: %w", destPath, err)
	}

	if _, err := io.Copy(outFile, rc); err != nil {
		outFile.Close()
		return fmt.Errorf("failed to copy file %q: %w", zipFile.Name, err)
	}

	if err := outFile.Close(); err != nil {
		return fmt.Errorf("failed to close file %q: %w", destPath, err)
	}

	logger.Debug("Extracted file", zap.String("path", destPath))
	return nil
}

// lockDir takes an exclusive lock next to an on-disk extraction directory. In-memory
// filesystems are not shared between processes and need no lock.
func lockDir(fs afero.Fs, dir string, logger *zap.Logger) (func(), error) {
	if _, ok := fs.(*afero.OsFs); !ok {
		return func() {}, nil
	}

	lockPath := filepath.Clean(dir) + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), os.ModePerm); err != nil {
		return nil, errors.WithStackTraceAndPrefix(err, "failed to create directory for %s", lockPath)
	}

	lock := flock.New(lockPath)
	if err := lock.Lock(); err != nil {
		logger.Error("Failed to lock extraction directory", zap.String("lock", lockPath), zap.Error(err))
		return nil, errors.WithStackTraceAndPrefix(err, "failed to acquire lock %s", lockPath)
	}
	logger.Debug("Locked extraction directory", zap.String("lock", lockPath))

	return func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("Failed to release extraction lock", zap.String("lock", lockPath), zap.Error(err))
		}
	}, nil
}
