package storage

import (
	"fmt"
	"path/filepath"
)

// ExtractDir is the workspace subdirectory a package is unpacked into.
const ExtractDir = "unzipped"

// Workspace is the scratch directory a single theme is fetched and unpacked
// into. It is wiped between themes.
type Workspace struct {
	root *Sandbox
	dir  string
}

// NewWorkspace returns a workspace at dir below root. Nothing is created
// until Reset is called.
func NewWorkspace(root *Sandbox, dir string) *Workspace {
	return &Workspace{root: root, dir: dir}
}

// Reset removes any previous content and recreates the workspace with an
// empty extraction directory.
func (w *Workspace) Reset() error {
	if err := w.root.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("clearing workspace: %w", err)
	}
	if err := w.root.MkdirAll(filepath.Join(w.dir, ExtractDir)); err != nil {
		return fmt.Errorf("creating workspace: %w", err)
	}
	return nil
}

// Remove deletes the workspace.
func (w *Workspace) Remove() error {
	return w.root.RemoveAll(w.dir)
}

// Dir returns the absolute path of the workspace.
func (w *Workspace) Dir() (string, error) {
	return w.root.ResolvePath(w.dir)
}

// ExtractPath returns the absolute path packages are unpacked into.
func (w *Workspace) ExtractPath() (string, error) {
	return w.root.ResolvePath(filepath.Join(w.dir, ExtractDir))
}
