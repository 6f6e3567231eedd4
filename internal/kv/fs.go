package kv

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const fileExt = ".json"

// FS implements Store with one file per key under a root directory.
type FS struct {
	root string // absolute path to the store directory
}

// NewFS creates a new FS store rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("kv: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("kv: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("kv: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute store directory.
func (f *FS) Root() string {
	return f.root
}

// Path returns the absolute file path that holds key.
func (f *FS) Path(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("kv: empty key")
	}
	if strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return "", fmt.Errorf("kv: invalid key: %s", key)
	}
	abs := filepath.Join(f.root, key+fileExt)
	// Ensure the resolved path is still under root.
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("kv: key escapes store root: %s", key)
	}
	return abs, nil
}

// Get reads the file for key.
func (f *FS) Get(_ context.Context, key string) (string, bool, error) {
	abs, err := f.Path(key)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("kv: read %s: %w", key, err)
	}
	return string(data), true, nil
}

// Set atomically writes value: tmp file → fsync → rename.
func (f *FS) Set(_ context.Context, key, value string) error {
	abs, err := f.Path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.root, ".weekboard-tmp-*")
	if err != nil {
		return fmt.Errorf("kv: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.WriteString(value); err != nil {
		return fmt.Errorf("kv: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("kv: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("kv: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("kv: rename: %w", err)
	}
	success = true
	return nil
}
