package filestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/d-valsamis/student-portal/model"
	"github.com/d-valsamis/student-portal/utils/apperror"
	"github.com/d-valsamis/student-portal/utils/pdfvalidation"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// Kinds lists every upload kind; each maps to one directory or key prefix.
var Kinds = []string{model.OwnerAssignment, model.OwnerClass, model.OwnerSubmission, model.OwnerNote}

// DefaultPolicies holds the per-kind upload limits.
var DefaultPolicies = map[string]pdfvalidation.PDFLimits{
	model.OwnerAssignment: pdfvalidation.AssignmentLimits,
	model.OwnerClass:      pdfvalidation.ClassLimits,
	model.OwnerNote:       pdfvalidation.NoteLimits,
	model.OwnerSubmission: pdfvalidation.SubmissionLimits,
}

// Service validates uploads and stores them in the backend.
type Service struct {
	backend  Store
	policies map[string]pdfvalidation.PDFLimits
	now      func() time.Time
}

// NewService creates a file store service with DefaultPolicies
func NewService(backend Store) *Service {
	return &Service{
		backend:  backend,
		policies: DefaultPolicies,
		now:      time.Now,
	}
}

// Policy returns the limits for a kind.
func (s *Service) Policy(kind string) (pdfvalidation.PDFLimits, bool) {
	p, ok := s.policies[kind]
	return p, ok
}

// Store validates the upload against the kind's policy and writes it under a
// generated name. The returned record is not yet persisted; its OwnerID is unset.
// Nothing is written when validation fails.
func (s *Service) Store(ctx context.Context, kind string, file *multipart.FileHeader) (*model.StoredFile, error) {
	limits, ok := s.Policy(kind)
	if !ok {
		return nil, apperror.Internal(fmt.Errorf("%w: %s", ErrUnknownKind, kind))
	}

	result, err := pdfvalidation.ValidatePDFFile(file, limits)
	if err != nil {
		return nil, err
	}

	storedName := s.generateName(file.Filename)
	if err := s.backend.Put(ctx, kind, storedName, bytes.NewReader(result.Content), result.FileSize, result.ContentType); err != nil {
		return nil, apperror.Internal(fmt.Errorf("store %s upload: %w", kind, err))
	}

	return &model.StoredFile{
		OwnerType:    kind,
		OriginalName: OriginalName(file.Filename),
		StoredName:   storedName,
		ContentType:  result.ContentType,
		Size:         result.FileSize,
		PageCount:    result.PageCount,
	}, nil
}

// Retrieve opens a stored blob. A missing blob is a NotFound error.
// The reader outlives ctx: responses stream it after the handler returns and
// the request deadline has been released. Callers must close it.
func (s *Service) Retrieve(ctx context.Context, kind, storedName string) (io.ReadCloser, error) {
	r, err := s.backend.Open(context.WithoutCancel(ctx), kind, storedName)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidName) {
			return nil, apperror.Wrap(apperror.KindNotFound, "File not found", err)
		}
		return nil, apperror.Internal(fmt.Errorf("open %s/%s: %w", kind, storedName, err))
	}
	return r, nil
}

// Remove deletes a stored blob. Removing a missing blob is not an error.
func (s *Service) Remove(ctx context.Context, kind, storedName string) error {
	err := s.backend.Delete(ctx, kind, storedName)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// Discard removes blobs best-effort, logging failures. It is used to undo
// uploads whose database write failed and to drop replaced files after commit.
func (s *Service) Discard(ctx context.Context, files ...*model.StoredFile) {
	for _, f := range files {
		if f == nil {
			continue
		}
		if err := s.Remove(context.WithoutCancel(ctx), f.OwnerType, f.StoredName); err != nil {
			log.Warnf("failed to remove %s/%s: %v", f.OwnerType, f.StoredName, err)
		}
	}
}

// List returns the blobs of a kind.
func (s *Service) List(ctx context.Context, kind string) ([]ObjectInfo, error) {
	return s.backend.List(ctx, kind)
}

// generateName returns <unix-millis>-<uuid><ext>.
func (s *Service) generateName(original string) string {
	return fmt.Sprintf("%d-%s%s", s.now().UnixMilli(), uuid.New().String(), SanitizeExt(original))
}

// SanitizeExt returns the lower-cased extension restricted to [a-z0-9], or "".
func SanitizeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

// OriginalName strips any client path and control characters from an upload name.
func OriginalName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || r == '"' {
			return -1
		}
		return r
	}, name)
	for len(name) > 255 {
		_, size := utf8.DecodeLastRuneInString(name)
		name = name[:len(name)-size]
	}
	if name == "" || name == "." || name == "/" {
		return "file"
	}
	return name
}
