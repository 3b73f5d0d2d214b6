package services

import (
	"context"
	"io"
	"mime/multipart"
	"time"

	"github.com/d-valsamis/student-portal/database"
	"github.com/d-valsamis/student-portal/model"
	"github.com/d-valsamis/student-portal/services/filestore"
	"github.com/d-valsamis/student-portal/utils/apperror"
	"github.com/d-valsamis/student-portal/utils/auth"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const submissionNotFound = "Submission not found"

// Caller is the authenticated identity a request acts as.
type Caller struct {
	ID   uint
	Role string
}

// IsAdmin reports whether the caller has the admin role.
func (c Caller) IsAdmin() bool {
	return c.Role == auth.RoleAdmin
}

// owns reports whether a student caller is studentID, or the caller is an admin.
func (c Caller) owns(studentID uint) bool {
	return c.IsAdmin() || c.ID == studentID
}

// SubmissionService handles student submissions
type SubmissionService struct {
	db    *gorm.DB
	files *filestore.Service
	now   func() time.Time
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(db *gorm.DB, files *filestore.Service) *SubmissionService {
	return &SubmissionService{db: db, files: files, now: time.Now}
}

// SubmitRequest holds the non-file fields of a submission upload.
type SubmitRequest struct {
	AssignmentID uint `form:"assignment_id" validate:"required,gt=0"`
	StudentID    uint `form:"student_id" validate:"required,gt=0"`
}

// SubmissionDetails is a submission with its assignment, student and file.
type SubmissionDetails struct {
	ID              uint              `json:"id"`
	AssignmentID    uint              `json:"assignment_id"`
	AssignmentTitle string            `json:"assignment_title"`
	StudentID       uint              `json:"student_id"`
	StudentName     string            `json:"student_name"`
	SubmittedAt     time.Time         `json:"submitted_at"`
	Status          string            `json:"status"`
	File            *model.StoredFile `json:"file,omitempty"`
	DownloadName    string            `json:"download_name"`
}

// Submit records the student's upload for an assignment. Resubmitting
// replaces the previous file: it is removed only after the new row commits,
// and the new blob is removed if the database write fails.
func (s *SubmissionService) Submit(ctx context.Context, caller Caller, req SubmitRequest, upload *multipart.FileHeader) (*SubmissionDetails, error) {
	if !caller.owns(req.StudentID) {
		return nil, apperror.Forbidden("Students can only submit their own work")
	}

	var assignment model.Assignment
	if err := s.db.WithContext(ctx).First(&assignment, req.AssignmentID).Error; err != nil {
		return nil, database.MapError(err, assignmentNotFound)
	}
	if err := mustExist(ctx, s.db, &model.Student{}, req.StudentID, studentNotFound); err != nil {
		return nil, err
	}

	var enrolled int64
	err := s.db.WithContext(ctx).Model(&model.Enrollment{}).
		Where("student_id = ? AND subject_id = ?", req.StudentID, assignment.SubjectID).
		Count(&enrolled).Error
	if err != nil {
		return nil, database.MapError(err, "")
	}
	if enrolled == 0 {
		return nil, apperror.Forbidden("Student is not enrolled in this assignment's subject")
	}

	stored, err := s.files.Store(ctx, model.OwnerSubmission, upload)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var previous []model.StoredFile
	var submission model.Submission

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		submission = model.Submission{
			AssignmentID: req.AssignmentID,
			StudentID:    req.StudentID,
			SubmittedAt:  now,
			Status:       model.SubmissionSubmitted,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "assignment_id"}, {Name: "student_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"submitted_at": now,
				"status":       model.SubmissionSubmitted,
				"updated_at":   now,
			}),
		}).Create(&submission).Error
		if err != nil {
			return err
		}

		// Re-read: the id of an updated row is not reliably returned. The lock
		// serializes resubmissions of the same row.
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("assignment_id = ? AND student_id = ?", req.AssignmentID, req.StudentID).
			First(&submission).Error
		if err != nil {
			return err
		}

		if previous, err = purgeFiles(tx, model.OwnerSubmission, []uint{submission.ID}); err != nil {
			return err
		}

		stored.OwnerID = submission.ID
		return tx.Create(stored).Error
	})
	if err != nil {
		s.files.Discard(ctx, stored)
		return nil, database.MapError(err, "")
	}

	s.files.Discard(ctx, filePtrs(previous)...)
	return s.Get(ctx, caller, submission.ID)
}

// Get returns the submission if the caller owns it or is an admin.
func (s *SubmissionService) Get(ctx context.Context, caller Caller, id uint) (*SubmissionDetails, error) {
	var submission model.Submission
	err := s.db.WithContext(ctx).
		Preload("Assignment").Preload("Student").Preload("File").
		First(&submission, id).Error
	if err != nil {
		return nil, database.MapError(err, submissionNotFound)
	}
	if !caller.owns(submission.StudentID) {
		return nil, apperror.Forbidden("Access denied")
	}

	details := &SubmissionDetails{
		ID:           submission.ID,
		AssignmentID: submission.AssignmentID,
		StudentID:    submission.StudentID,
		SubmittedAt:  submission.SubmittedAt,
		Status:       submission.Status,
		File:         submission.File,
	}
	if submission.Assignment != nil {
		details.AssignmentTitle = submission.Assignment.Title
	}
	if submission.Student != nil {
		details.StudentName = submission.Student.Name
	}
	details.DownloadName = SanitizeDownloadName(details.StudentName, details.AssignmentTitle, submission.SubmittedAt)
	return details, nil
}

// FindFile returns the submission and its file matched by stored or original name.
func (s *SubmissionService) FindFile(ctx context.Context, caller Caller, id uint, filename string) (*SubmissionDetails, *model.StoredFile, error) {
	details, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, nil, err
	}

	f, err := findOwnedFile(ctx, s.db, model.OwnerSubmission, id, filename)
	if err != nil {
		return nil, nil, err
	}
	return details, f, nil
}

// Open returns the content of a stored file.
func (s *SubmissionService) Open(ctx context.Context, f *model.StoredFile) (io.ReadCloser, error) {
	return s.files.Retrieve(ctx, f.OwnerType, f.StoredName)
}
