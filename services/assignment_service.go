package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/d-valsamis/student-portal/database"
	"github.com/d-valsamis/student-portal/model"
	"github.com/d-valsamis/student-portal/services/filestore"
	"github.com/d-valsamis/student-portal/utils/apperror"
	"github.com/d-valsamis/student-portal/utils/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const assignmentNotFound = "Assignment not found"

// AssignmentService handles assignments and their PDFs
type AssignmentService struct {
	db    *gorm.DB
	files *filestore.Service
}

// NewAssignmentService creates a new assignment service
func NewAssignmentService(db *gorm.DB, files *filestore.Service) *AssignmentService {
	return &AssignmentService{db: db, files: files}
}

// AssignmentRequest represents the request body for creating or replacing an assignment
type AssignmentRequest struct {
	SubjectID   uint   `json:"subject_id" validate:"required,gt=0"`
	Title       string `json:"title" validate:"required,min=1,max=255"`
	Description string `json:"description" validate:"omitempty,max=10000"`
	DueDate     string `json:"due_date" validate:"required,isodate"`
}

func (r AssignmentRequest) apply(a *model.Assignment) error {
	due, err := validation.ParseDate("due_date", r.DueDate)
	if err != nil {
		return err
	}
	a.SubjectID = r.SubjectID
	a.Title = validation.SanitizeString(r.Title)
	a.Description = validation.SanitizeString(r.Description)
	a.DueDate = due
	return nil
}

// List returns assignments by due date, optionally for one subject.
func (s *AssignmentService) List(ctx context.Context, subjectID uint) ([]model.Assignment, error) {
	q := s.db.WithContext(ctx).Preload("Subject").Preload("PDF")
	if subjectID != 0 {
		q = q.Where("subject_id = ?", subjectID)
	}

	var assignments []model.Assignment
	if err := q.Order("due_date ASC, id ASC").Find(&assignments).Error; err != nil {
		return nil, database.MapError(err, "")
	}
	return assignments, nil
}

// Get returns one assignment with subject and PDF.
func (s *AssignmentService) Get(ctx context.Context, id uint) (*model.Assignment, error) {
	var assignment model.Assignment
	if err := s.db.WithContext(ctx).Preload("Subject").Preload("PDF").First(&assignment, id).Error; err != nil {
		return nil, database.MapError(err, assignmentNotFound)
	}
	return &assignment, nil
}

// Create stores a new assignment under an existing subject.
func (s *AssignmentService) Create(ctx context.Context, req AssignmentRequest) (*model.Assignment, error) {
	var assignment model.Assignment
	if err := req.apply(&assignment); err != nil {
		return nil, err
	}
	if err := requireRef(ctx, s.db, &model.Subject{}, req.SubjectID, "subject_id", subjectNotFound); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(&assignment).Error; err != nil {
		return nil, database.MapError(err, "")
	}
	return s.Get(ctx, assignment.ID)
}

// Update replaces the assignment's fields.
func (s *AssignmentService) Update(ctx context.Context, id uint, req AssignmentRequest) (*model.Assignment, error) {
	var assignment model.Assignment
	if err := s.db.WithContext(ctx).First(&assignment, id).Error; err != nil {
		return nil, database.MapError(err, assignmentNotFound)
	}
	if err := req.apply(&assignment); err != nil {
		return nil, err
	}
	if err := requireRef(ctx, s.db, &model.Subject{}, req.SubjectID, "subject_id", subjectNotFound); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Omit("Subject", "PDF").Save(&assignment).Error; err != nil {
		return nil, database.MapError(err, assignmentNotFound)
	}
	return s.Get(ctx, id)
}

// Delete removes an assignment. Existing submissions or grades make it a
// Conflict unless cascade is set.
func (s *AssignmentService) Delete(ctx context.Context, id uint, cascade bool) error {
	var removed []model.StoredFile

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&model.Assignment{}, id).Error; err != nil {
			return err
		}

		if !cascade {
			var submissions, grades int64
			if err := tx.Model(&model.Submission{}).Where("assignment_id = ?", id).Count(&submissions).Error; err != nil {
				return err
			}
			if err := tx.Model(&model.Grade{}).Where("assignment_id = ?", id).Count(&grades).Error; err != nil {
				return err
			}
			if submissions > 0 || grades > 0 {
				return apperror.Conflict(fmt.Sprintf(
					"Assignment has %d submissions and %d grades; delete with cascade=true to remove them",
					submissions, grades))
			}
		}

		files, err := deleteAssignments(tx, []uint{id})
		removed = files
		return err
	})
	if err != nil {
		return database.MapError(err, assignmentNotFound)
	}

	s.files.Discard(ctx, filePtrs(removed)...)
	return nil
}

// ReplacePDF stores a new assignment PDF. The previous one is removed once
// the new record is committed; on failure the new blob is removed instead.
func (s *AssignmentService) ReplacePDF(ctx context.Context, id uint, upload *multipart.FileHeader) (*model.StoredFile, error) {
	if err := mustExist(ctx, s.db, &model.Assignment{}, id, assignmentNotFound); err != nil {
		return nil, err
	}

	stored, err := s.files.Store(ctx, model.OwnerAssignment, upload)
	if err != nil {
		return nil, err
	}
	stored.OwnerID = id

	var previous []model.StoredFile
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Concurrent replacements queue on the assignment row.
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&model.Assignment{}, id).Error; err != nil {
			return err
		}
		var err error
		if previous, err = purgeFiles(tx, model.OwnerAssignment, []uint{id}); err != nil {
			return err
		}
		return tx.Create(stored).Error
	})
	if err != nil {
		s.files.Discard(ctx, stored)
		return nil, database.MapError(err, assignmentNotFound)
	}

	s.files.Discard(ctx, filePtrs(previous)...)
	return stored, nil
}

// FindFile looks up the assignment's PDF by stored or original name.
func (s *AssignmentService) FindFile(ctx context.Context, id uint, filename string) (*model.StoredFile, error) {
	return findOwnedFile(ctx, s.db, model.OwnerAssignment, id, filename)
}

// Open returns the content of a stored file.
func (s *AssignmentService) Open(ctx context.Context, f *model.StoredFile) (io.ReadCloser, error) {
	return s.files.Retrieve(ctx, f.OwnerType, f.StoredName)
}

// AssignmentSubmission is one row of an assignment's submission list.
type AssignmentSubmission struct {
	ID              uint      `json:"id"`
	StudentID       uint      `json:"student_id"`
	StudentName     string    `json:"student_name"`
	StudentUsername string    `json:"student_username"`
	SubmittedAt     time.Time `json:"submitted_at"`
	Status          string    `json:"status"`
	OriginalName    *string   `json:"original_name"`
	StoredName      *string   `json:"stored_name"`
}

// Submissions lists the submissions for an assignment with student names.
func (s *AssignmentService) Submissions(ctx context.Context, id uint) ([]AssignmentSubmission, error) {
	if err := mustExist(ctx, s.db, &model.Assignment{}, id, assignmentNotFound); err != nil {
		return nil, err
	}

	var rows []AssignmentSubmission
	err := s.db.WithContext(ctx).Table("submissions sub").
		Select("sub.id, sub.student_id, st.name AS student_name, st.username AS student_username, "+
			"sub.submitted_at, sub.status, f.original_name, f.stored_name").
		Joins("JOIN students st ON st.id = sub.student_id").
		Joins("LEFT JOIN stored_files f ON f.owner_type = ? AND f.owner_id = sub.id", model.OwnerSubmission).
		Where("sub.assignment_id = ?", id).
		Order("st.name ASC, sub.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, database.MapError(err, "")
	}
	return rows, nil
}
