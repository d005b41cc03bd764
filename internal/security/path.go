package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidateStoragePath rejects paths with traversal components. Absolute
// paths are allowed here: the database file and staging directory are
// operator-configured locations, not user input.
func ValidateStoragePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if strings.ContainsRune(path, '\x00') {
		return fmt.Errorf("path contains NUL byte")
	}

	clean := filepath.Clean(path)
	for _, part := range strings.Split(clean, string(filepath.Separator)) {
		if part == ".." {
			return fmt.Errorf("path contains directory traversal: %s", path)
		}
	}
	return nil
}

// ValidateWithinDir ensures path resolves inside baseDir. Used for staging
// artifacts whose names derive from remote input.
func ValidateWithinDir(path, baseDir string) error {
	cleanPath := filepath.Clean(path)
	cleanBase := filepath.Clean(baseDir)

	if cleanPath != cleanBase && !strings.HasPrefix(cleanPath, cleanBase+string(filepath.Separator)) {
		return fmt.Errorf("path escapes base directory: %s", path)
	}
	return nil
}
