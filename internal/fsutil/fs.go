// Package fsutil provides small filesystem helpers used by config loading,
// adapted from the teacher's internal/utils/fs.go.
package fsutil

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// FileExists reports whether path exists and is statable.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// EnsureDir creates dirPath (and any missing parents) if it doesn't exist.
func EnsureDir(dirPath string) error {
	return os.MkdirAll(dirPath, 0755)
}

// GetAbsolutePath returns the absolute form of path, or "unknown" if path
// is empty.
func GetAbsolutePath(path string) string {
	if path == "" {
		return "unknown"
	}
	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
	}
	return path
}

// GetExecutableDir returns the directory containing the running binary.
// Used as a config-search fallback when no explicit or working-directory
// config file is found.
func GetExecutableDir() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(execPath), nil
}

// CheckDirStatus reports whether dirPath exists (creating it if missing)
// and whether it is writable.
func CheckDirStatus(dirPath string) (exists, writable bool, err error) {
	if _, statErr := os.Stat(dirPath); statErr == nil {
		return true, testWriteAccess(dirPath), nil
	}
	if mkErr := os.MkdirAll(dirPath, 0755); mkErr != nil {
		log.Warnf("Cannot create directory %s: %v", dirPath, mkErr)
		return false, false, mkErr
	}
	return true, testWriteAccess(dirPath), nil
}

func testWriteAccess(dirPath string) bool {
	testFile := filepath.Join(dirPath, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		return false
	}
	file.Close()
	os.Remove(testFile)
	return true
}
