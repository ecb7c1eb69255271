// Package filestore provides a FileStore over a local directory.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Local keeps files below a root directory. Paths are slash separated and
// cannot escape the root.
type Local struct {
	root string
}

// NewLocal creates the root directory if needed.
func NewLocal(root string) (*Local, error) {
	if root == "" {
		return nil, fmt.Errorf("root must be provided to create a local store")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store root %s: %w", root, err)
	}
	return &Local{root: root}, nil
}

// Root returns the directory the store writes into.
func (l *Local) Root() string { return l.root }

func (l *Local) resolve(p string) string {
	clean := filepath.FromSlash(strings.TrimPrefix(filepath.ToSlash(filepath.Clean("/"+p)), "/"))
	return filepath.Join(l.root, clean)
}

func (l *Local) Exists(_ context.Context, p string) (bool, error) {
	info, err := os.Stat(l.resolve(p))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", p, err)
	}
	return !info.IsDir(), nil
}

func (l *Local) ReadFile(_ context.Context, p string) ([]byte, error) {
	data, err := os.ReadFile(l.resolve(p))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p, err)
	}
	return data, nil
}

// WriteFile writes through a temp file and a rename so readers never see a
// partial document.
func (l *Local) WriteFile(_ context.Context, p string, data []byte) error {
	dest := l.resolve(p)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", p, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".write-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", p, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", p, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to finalize %s: %w", p, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", p, err)
	}
	return nil
}

func (l *Local) RemoveAll(_ context.Context, p string) error {
	target := l.resolve(p)
	if target == filepath.Clean(l.root) {
		return fmt.Errorf("refusing to remove the store root")
	}
	if err := os.RemoveAll(target); err != nil {
		return fmt.Errorf("failed to remove %s: %w", p, err)
	}
	return nil
}
