// Package filestore stores uploaded documents under collision-free names and
// keeps one directory policy for every kind of upload.
package filestore

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"
)

var (
	ErrNotFound    = errors.New("file not found")
	ErrInvalidName = errors.New("invalid file name")
	ErrUnknownKind = errors.New("unknown file kind")
)

// ObjectInfo describes a stored blob.
type ObjectInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Store is a blob backend addressed by (kind, stored name).
type Store interface {
	Put(ctx context.Context, kind, name string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, kind, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, kind, name string) error
	List(ctx context.Context, kind string) ([]ObjectInfo, error)
}

// checkName rejects names that could address anything outside the kind's directory.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") ||
		filepath.Base(name) != name {
		return ErrInvalidName
	}
	return nil
}
