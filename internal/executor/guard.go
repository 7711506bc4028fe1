package executor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathGuard confines file operations to a base directory.
type PathGuard struct {
	BaseDir string
}

// NewPathGuard constructs a guard rooted at baseDir (defaults to the current
// working directory).
func NewPathGuard(baseDir string) (*PathGuard, error) {
	if baseDir == "" {
		var err error
		baseDir, err = os.Getwd()
		if err != nil {
			return nil, err
		}
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, err
	}
	return &PathGuard{BaseDir: absBase}, nil
}

// Resolve validates p and returns an absolute path inside BaseDir. Absolute
// inputs and paths that traverse outside the base fail with ErrOutOfBounds.
func (g *PathGuard) Resolve(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("path is required")
	}
	clean := filepath.Clean(p)
	if filepath.IsAbs(clean) {
		return "", fmt.Errorf("%q: absolute paths are not allowed: %w", p, ErrOutOfBounds)
	}
	abs := filepath.Clean(filepath.Join(g.BaseDir, clean))

	if abs != g.BaseDir && !strings.HasPrefix(abs, g.BaseDir+string(os.PathSeparator)) {
		return "", fmt.Errorf("%q: %w", p, ErrOutOfBounds)
	}
	return abs, nil
}
