package services

import (
	"context"
	"io"
	"mime/multipart"

	"github.com/d-valsamis/student-portal/database"
	"github.com/d-valsamis/student-portal/model"
	"github.com/d-valsamis/student-portal/services/filestore"
	"github.com/d-valsamis/student-portal/utils/apperror"
	"github.com/d-valsamis/student-portal/utils/validation"
	"gorm.io/gorm"
)

const noteNotFound = "Note not found"

// NoteService handles class notes
type NoteService struct {
	db    *gorm.DB
	files *filestore.Service
}

// NewNoteService creates a new note service
func NewNoteService(db *gorm.DB, files *filestore.Service) *NoteService {
	return &NoteService{db: db, files: files}
}

// NoteRequest holds the form fields of a note upload
type NoteRequest struct {
	ClassID uint   `form:"class_id" validate:"required,gt=0"`
	Title   string `form:"title" validate:"required,min=1,max=255"`
	Content string `form:"content" validate:"omitempty,max=20000"`
}

// Create stores a note with an optional PDF. The blob is removed if the note
// cannot be saved.
func (s *NoteService) Create(ctx context.Context, req NoteRequest, upload *multipart.FileHeader) (*model.Note, error) {
	if err := requireRef(ctx, s.db, &model.Class{}, req.ClassID, "class_id", classNotFound); err != nil {
		return nil, err
	}

	var stored *model.StoredFile
	if upload != nil {
		var err error
		if stored, err = s.files.Store(ctx, model.OwnerNote, upload); err != nil {
			return nil, err
		}
	}

	note := model.Note{
		ClassID: req.ClassID,
		Title:   validation.SanitizeString(req.Title),
		Content: validation.SanitizeString(req.Content),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&note).Error; err != nil {
			return err
		}
		if stored == nil {
			return nil
		}
		stored.OwnerID = note.ID
		return tx.Create(stored).Error
	})
	if err != nil {
		s.files.Discard(ctx, stored)
		return nil, database.MapError(err, "")
	}

	note.PDF = stored
	return &note, nil
}

// Get returns a note with its PDF.
func (s *NoteService) Get(ctx context.Context, id uint) (*model.Note, error) {
	var note model.Note
	if err := s.db.WithContext(ctx).Preload("PDF").First(&note, id).Error; err != nil {
		return nil, database.MapError(err, noteNotFound)
	}
	return &note, nil
}

// OpenPDF returns the note's PDF record and content.
func (s *NoteService) OpenPDF(ctx context.Context, id uint) (*model.StoredFile, io.ReadCloser, error) {
	note, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if note.PDF == nil {
		return nil, nil, apperror.NotFound("Note has no file")
	}

	r, err := s.files.Retrieve(ctx, note.PDF.OwnerType, note.PDF.StoredName)
	if err != nil {
		return nil, nil, err
	}
	return note.PDF, r, nil
}

// Delete removes a note and its PDF.
func (s *NoteService) Delete(ctx context.Context, id uint) error {
	var removed []model.StoredFile

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var note model.Note
		if err := tx.First(&note, id).Error; err != nil {
			return err
		}
		var err error
		if removed, err = purgeFiles(tx, model.OwnerNote, []uint{id}); err != nil {
			return err
		}
		return tx.Delete(&note).Error
	})
	if err != nil {
		return database.MapError(err, noteNotFound)
	}

	s.files.Discard(ctx, filePtrs(removed)...)
	return nil
}
