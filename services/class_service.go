package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/d-valsamis/student-portal/database"
	"github.com/d-valsamis/student-portal/model"
	"github.com/d-valsamis/student-portal/services/filestore"
	"github.com/d-valsamis/student-portal/utils/apperror"
	"github.com/d-valsamis/student-portal/utils/validation"
	"gorm.io/gorm"
)

const (
	classNotFound = "Class not found"
	fileNotFound  = "File not found"

	// MaxClassFiles is the most files one class upload request may carry.
	MaxClassFiles = 10
)

// ClassService handles classes, their material and notes
type ClassService struct {
	db    *gorm.DB
	files *filestore.Service
}

// NewClassService creates a new class service
func NewClassService(db *gorm.DB, files *filestore.Service) *ClassService {
	return &ClassService{db: db, files: files}
}

// ClassRequest represents the request body for creating or replacing a class
type ClassRequest struct {
	Code        string `json:"code" validate:"required,min=1,max=50"`
	Name        string `json:"name" validate:"required,min=1,max=255"`
	SubjectID   uint   `json:"subject_id" validate:"required,gt=0"`
	OpeningDate string `json:"opening_date" validate:"omitempty,isodate"`
	ClosingDate string `json:"closing_date" validate:"omitempty,isodate"`
}

func (r ClassRequest) apply(c *model.Class) error {
	opening, err := parseOptionalDate("opening_date", r.OpeningDate)
	if err != nil {
		return err
	}
	closing, err := parseOptionalDate("closing_date", r.ClosingDate)
	if err != nil {
		return err
	}
	if err := checkDateWindow(opening, closing); err != nil {
		return err
	}

	c.Code = validation.SanitizeString(r.Code)
	c.Name = validation.SanitizeString(r.Name)
	c.SubjectID = r.SubjectID
	c.OpeningDate = opening
	c.ClosingDate = closing
	return nil
}

// requireRef turns a dangling reference into a validation error on field.
func requireRef(ctx context.Context, db *gorm.DB, m interface{}, id uint, field, message string) error {
	err := mustExist(ctx, db, m, id, message)
	if apperror.Is(err, apperror.KindNotFound) {
		return apperror.ValidationFields("Validation failed", map[string]string{field: message})
	}
	return err
}

// List returns classes with subject and files, optionally for one subject.
func (s *ClassService) List(ctx context.Context, subjectID uint) ([]model.Class, error) {
	q := s.db.WithContext(ctx).Preload("Subject").Preload("Files")
	if subjectID != 0 {
		q = q.Where("subject_id = ?", subjectID)
	}

	var classes []model.Class
	if err := q.Order("opening_date ASC NULLS LAST, id ASC").Find(&classes).Error; err != nil {
		return nil, database.MapError(err, "")
	}
	return classes, nil
}

// Get returns one class with subject and files.
func (s *ClassService) Get(ctx context.Context, id uint) (*model.Class, error) {
	var class model.Class
	if err := s.db.WithContext(ctx).Preload("Subject").Preload("Files").First(&class, id).Error; err != nil {
		return nil, database.MapError(err, classNotFound)
	}
	return &class, nil
}

// Create stores a new class under an existing subject.
func (s *ClassService) Create(ctx context.Context, req ClassRequest) (*model.Class, error) {
	var class model.Class
	if err := req.apply(&class); err != nil {
		return nil, err
	}
	if err := requireRef(ctx, s.db, &model.Subject{}, req.SubjectID, "subject_id", subjectNotFound); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(&class).Error; err != nil {
		return nil, database.MapError(err, "")
	}
	return s.Get(ctx, class.ID)
}

// Update replaces the class's fields.
func (s *ClassService) Update(ctx context.Context, id uint, req ClassRequest) (*model.Class, error) {
	var class model.Class
	if err := s.db.WithContext(ctx).First(&class, id).Error; err != nil {
		return nil, database.MapError(err, classNotFound)
	}
	if err := req.apply(&class); err != nil {
		return nil, err
	}
	if err := requireRef(ctx, s.db, &model.Subject{}, req.SubjectID, "subject_id", subjectNotFound); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Omit("Subject", "Files").Save(&class).Error; err != nil {
		return nil, database.MapError(err, classNotFound)
	}
	return s.Get(ctx, id)
}

// Delete removes the class with its notes, attendance and files.
func (s *ClassService) Delete(ctx context.Context, id uint) error {
	var removed []model.StoredFile

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&model.Class{}, id).Error; err != nil {
			return err
		}
		files, err := deleteClasses(tx, []uint{id})
		removed = files
		return err
	})
	if err != nil {
		return database.MapError(err, classNotFound)
	}

	s.files.Discard(ctx, filePtrs(removed)...)
	return nil
}

// AddFiles stores up to MaxClassFiles PDFs for the class. Either all files
// are recorded or none are, and no blob outlives a failed request.
func (s *ClassService) AddFiles(ctx context.Context, id uint, uploads []*multipart.FileHeader) ([]model.StoredFile, error) {
	if len(uploads) == 0 {
		return nil, apperror.Validation("No files uploaded")
	}
	if len(uploads) > MaxClassFiles {
		return nil, apperror.Validation(fmt.Sprintf("At most %d files can be uploaded at once", MaxClassFiles))
	}
	if err := mustExist(ctx, s.db, &model.Class{}, id, classNotFound); err != nil {
		return nil, err
	}

	stored := make([]model.StoredFile, 0, len(uploads))
	for _, fh := range uploads {
		f, err := s.files.Store(ctx, model.OwnerClass, fh)
		if err != nil {
			s.files.Discard(ctx, filePtrs(stored)...)
			return nil, err
		}
		f.OwnerID = id
		stored = append(stored, *f)
	}

	if err := s.db.WithContext(ctx).Create(&stored).Error; err != nil {
		s.files.Discard(ctx, filePtrs(stored)...)
		return nil, database.MapError(err, "")
	}
	return stored, nil
}

// Files lists the class's file records.
func (s *ClassService) Files(ctx context.Context, id uint) ([]model.StoredFile, error) {
	if err := mustExist(ctx, s.db, &model.Class{}, id, classNotFound); err != nil {
		return nil, err
	}

	var files []model.StoredFile
	err := s.db.WithContext(ctx).
		Where("owner_type = ? AND owner_id = ?", model.OwnerClass, id).
		Order("id ASC").
		Find(&files).Error
	if err != nil {
		return nil, database.MapError(err, "")
	}
	return files, nil
}

// FindFile looks a class file up by stored name, falling back to the newest
// file with that original name.
func (s *ClassService) FindFile(ctx context.Context, id uint, filename string) (*model.StoredFile, error) {
	return findOwnedFile(ctx, s.db, model.OwnerClass, id, filename)
}

// Open returns the content of a stored file.
func (s *ClassService) Open(ctx context.Context, f *model.StoredFile) (io.ReadCloser, error) {
	return s.files.Retrieve(ctx, f.OwnerType, f.StoredName)
}

// DeleteFile removes one file of the class.
func (s *ClassService) DeleteFile(ctx context.Context, id, fileID uint) error {
	var f model.StoredFile
	err := s.db.WithContext(ctx).
		Where("id = ? AND owner_type = ? AND owner_id = ?", fileID, model.OwnerClass, id).
		First(&f).Error
	if err != nil {
		return database.MapError(err, fileNotFound)
	}

	if err := s.db.WithContext(ctx).Delete(&f).Error; err != nil {
		return database.MapError(err, fileNotFound)
	}
	s.files.Discard(ctx, &f)
	return nil
}

// Notes returns the class's notes with their PDFs.
func (s *ClassService) Notes(ctx context.Context, id uint) ([]model.Note, error) {
	if err := mustExist(ctx, s.db, &model.Class{}, id, classNotFound); err != nil {
		return nil, err
	}

	var notes []model.Note
	if err := s.db.WithContext(ctx).Preload("PDF").Where("class_id = ?", id).Order("created_at ASC").Find(&notes).Error; err != nil {
		return nil, database.MapError(err, "")
	}
	return notes, nil
}

func findOwnedFile(ctx context.Context, db *gorm.DB, ownerType string, ownerID uint, filename string) (*model.StoredFile, error) {
	var matches []model.StoredFile
	err := db.WithContext(ctx).
		Where("owner_type = ? AND owner_id = ?", ownerType, ownerID).
		Where("stored_name = ? OR original_name = ?", filename, filename).
		Order("id DESC").
		Find(&matches).Error
	if err != nil {
		return nil, database.MapError(err, fileNotFound)
	}
	if len(matches) == 0 {
		return nil, apperror.NotFound(fileNotFound)
	}

	for i := range matches {
		if matches[i].StoredName == filename {
			return &matches[i], nil
		}
	}
	return &matches[0], nil
}
