// Package util provides shared utility functions.
package util

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// FindBinary resolves an executable by name.
// Search order:
//  1. name itself, when it contains a path separator
//  2. ./name (current directory, useful for development)
//  3. name on PATH (via exec.LookPath)
//
// Each candidate is verified to exist and be executable before being
// returned.
func FindBinary(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("binary name is required")
	}

	if strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator) {
		if isExecutable(name) {
			return name, nil
		}
		return "", fmt.Errorf("binary %s not found or not executable", name)
	}

	localPath := "./" + name
	if isExecutable(localPath) {
		return localPath, nil
	}

	// LookPath already verifies executability
	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("binary %s not found", name)
}

// isExecutable checks if a file exists and is executable by the current user.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	// any of owner/group/other
	return info.Mode()&0o111 != 0
}
