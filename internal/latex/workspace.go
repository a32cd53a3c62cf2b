package latex

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Workspace is a per-run scratch directory. Acquire creates it fresh;
// Release removes it and is safe to call more than once. Run identifiers
// are unique, so workspaces of concurrent runs never collide.
type Workspace struct {
	dir  string
	once sync.Once
}

// AcquireWorkspace creates a dedicated directory for one compilation run
// under root (os.TempDir when root is empty).
func AcquireWorkspace(root, id string) (*Workspace, error) {
	if root == "" {
		root = os.TempDir()
	}
	dir := filepath.Join(root, "resumegen-"+id)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create workspace %q: %w", dir, err)
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// Path returns the absolute path of a file inside the workspace.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// Release removes the workspace and everything in it. Idempotent; callers
// defer it on every exit path.
func (w *Workspace) Release() {
	w.once.Do(func() {
		_ = os.RemoveAll(w.dir)
	})
}
