package services

import (
	"context"

	"github.com/d-valsamis/student-portal/database"
	"github.com/d-valsamis/student-portal/model"
	"gorm.io/gorm"
)

const enrollmentNotFound = "Enrollment not found"

// EnrollmentService manages student enrollments in subjects
type EnrollmentService struct {
	db *gorm.DB
}

// NewEnrollmentService creates a new enrollment service
func NewEnrollmentService(db *gorm.DB) *EnrollmentService {
	return &EnrollmentService{db: db}
}

// EnrollmentRequest represents the request body for enrolling a student
type EnrollmentRequest struct {
	StudentID uint `json:"student_id" validate:"required,gt=0"`
	SubjectID uint `json:"subject_id" validate:"required,gt=0"`
}

// List returns enrollments with student and subject, optionally for one subject.
func (s *EnrollmentService) List(ctx context.Context, subjectID uint) ([]model.Enrollment, error) {
	q := s.db.WithContext(ctx).Preload("Student").Preload("Subject")
	if subjectID != 0 {
		q = q.Where("subject_id = ?", subjectID)
	}

	var enrollments []model.Enrollment
	if err := q.Order("enrolled_at ASC, id ASC").Find(&enrollments).Error; err != nil {
		return nil, database.MapError(err, "")
	}
	return enrollments, nil
}

// Create enrolls a student. Enrolling twice is a Conflict.
func (s *EnrollmentService) Create(ctx context.Context, req EnrollmentRequest) (*model.Enrollment, error) {
	if err := requireRef(ctx, s.db, &model.Student{}, req.StudentID, "student_id", studentNotFound); err != nil {
		return nil, err
	}
	if err := requireRef(ctx, s.db, &model.Subject{}, req.SubjectID, "subject_id", subjectNotFound); err != nil {
		return nil, err
	}

	enrollment := model.Enrollment{StudentID: req.StudentID, SubjectID: req.SubjectID}
	if err := s.db.WithContext(ctx).Create(&enrollment).Error; err != nil {
		return nil, database.MapError(err, "")
	}
	return &enrollment, nil
}

// Delete removes an enrollment.
func (s *EnrollmentService) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&model.Enrollment{}, id)
	if result.Error != nil {
		return database.MapError(result.Error, enrollmentNotFound)
	}
	if result.RowsAffected == 0 {
		return database.MapError(gorm.ErrRecordNotFound, enrollmentNotFound)
	}
	return nil
}
