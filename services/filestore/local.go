package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStore keeps blobs on disk at <root>/<kind>/<name>.
type LocalStore struct {
	root  string
	kinds map[string]bool
}

// NewLocalStore creates the directory for every kind under root.
func NewLocalStore(root string, kinds ...string) (*LocalStore, error) {
	s := &LocalStore{root: root, kinds: make(map[string]bool, len(kinds))}
	for _, kind := range kinds {
		if err := os.MkdirAll(filepath.Join(root, kind), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload directory: %w", err)
		}
		s.kinds[kind] = true
	}
	return s, nil
}

func (s *LocalStore) path(kind, name string) (string, error) {
	if !s.kinds[kind] {
		return "", ErrUnknownKind
	}
	if err := checkName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.root, kind, name), nil
}

// Put writes to a temp file in the target directory and renames it into place,
// so readers never observe a partial file.
func (s *LocalStore) Put(ctx context.Context, kind, name string, r io.Reader, size int64, contentType string) error {
	dst, err := s.path(kind, name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("failed to store file: %w", err)
	}
	return nil
}

func (s *LocalStore) Open(ctx context.Context, kind, name string) (io.ReadCloser, error) {
	p, err := s.path(kind, name)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

func (s *LocalStore) Delete(ctx context.Context, kind, name string) error {
	p, err := s.path(kind, name)
	if err != nil {
		return err
	}

	err = os.Remove(p)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

// List returns regular files of a kind, skipping in-flight temp files.
func (s *LocalStore) List(ctx context.Context, kind string) ([]ObjectInfo, error) {
	if !s.kinds[kind] {
		return nil, ErrUnknownKind
	}

	entries, err := os.ReadDir(filepath.Join(s.root, kind))
	if err != nil {
		return nil, err
	}

	var out []ObjectInfo
	for _, e := range entries {
		if !e.Type().IsRegular() || e.Name()[0] == '.' {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, ObjectInfo{Name: e.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	return out, nil
}
