// Package store persists materialized artifacts (notebooks, requirements
// files, run results) on the local filesystem under a single root directory.
package store

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	p2n "github.com/PIP-Team-3/pip-final-project-sub000"
	"github.com/PIP-Team-3/pip-final-project-sub000/internal/logging"
)

// FileStore is a filesystem-backed ArtifactStore. Paths are slash-separated
// keys relative to the root; traversal outside the root is rejected.
type FileStore struct {
	root string
}

var _ p2n.ArtifactStore = (*FileStore)(nil)

// NewFileStore creates the root directory if needed and returns a store
// rooted there.
func NewFileStore(root string) (*FileStore, error) {
	if root == "" {
		return nil, p2n.NewConfigurationError("artifact store root is required", nil)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, p2n.NewError(p2n.ErrCodeStore, "initialization", "creating artifact root", err)
	}
	return &FileStore{root: root}, nil
}

// resolve maps a store key onto a filesystem path inside the root.
func (s *FileStore) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", errbuilder.GenericErr("artifact path escapes store root", nil)
	}
	return filepath.Join(s.root, clean), nil
}

// Put writes an artifact, creating parent directories as needed.
func (s *FileStore) Put(ctx context.Context, path string, data []byte) error {
	if err := errbuilder.WrapIfContextDone(ctx, nil); err != nil {
		return err
	}
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return errbuilder.GenericErr("creating artifact directory", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return errbuilder.GenericErr("writing artifact", err)
	}
	logging.New("store").Debug("artifact written", "path", path, "bytes", len(data))
	return nil
}

// Get reads an artifact back; a missing file is a not-found error.
func (s *FileStore) Get(ctx context.Context, path string) ([]byte, error) {
	if err := errbuilder.WrapIfContextDone(ctx, nil); err != nil {
		return nil, err
	}
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errbuilder.NotFoundErr(errbuilder.GenericErr("artifact not found", err))
		}
		return nil, errbuilder.GenericErr("reading artifact", err)
	}
	return data, nil
}

// List returns the keys under a prefix, sorted, slash-separated.
func (s *FileStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := errbuilder.WrapIfContextDone(ctx, nil); err != nil {
		return nil, err
	}
	var keys []string
	err := filepath.Walk(s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, errbuilder.GenericErr("listing artifacts", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Delete removes an artifact; deleting a missing key is a not-found error.
func (s *FileStore) Delete(ctx context.Context, path string) error {
	if err := errbuilder.WrapIfContextDone(ctx, nil); err != nil {
		return err
	}
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if os.IsNotExist(err) {
			return errbuilder.NotFoundErr(errbuilder.GenericErr("artifact not found", err))
		}
		return errbuilder.GenericErr("deleting artifact", err)
	}
	return nil
}
