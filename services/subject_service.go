package services

import (
	"context"
	"fmt"

	"github.com/d-valsamis/student-portal/database"
	"github.com/d-valsamis/student-portal/model"
	"github.com/d-valsamis/student-portal/services/filestore"
	"github.com/d-valsamis/student-portal/utils/apperror"
	"github.com/d-valsamis/student-portal/utils/validation"
	"gorm.io/gorm"
)

const subjectNotFound = "Subject not found"

// SubjectService handles subjects and their dependents
type SubjectService struct {
	db    *gorm.DB
	files *filestore.Service
}

// NewSubjectService creates a new subject service
func NewSubjectService(db *gorm.DB, files *filestore.Service) *SubjectService {
	return &SubjectService{db: db, files: files}
}

// SubjectRequest represents the request body for creating or replacing a subject
type SubjectRequest struct {
	Name             string `json:"name" validate:"required,min=1,max=255"`
	Professor        string `json:"professor" validate:"omitempty,max=255"`
	TeacherEmail     string `json:"teacher_email" validate:"omitempty,email,max=255"`
	TeacherTelephone string `json:"teacher_telephone" validate:"omitempty,max=50"`
	Description      string `json:"description" validate:"omitempty,max=5000"`
}

func (r SubjectRequest) apply(s *model.Subject) {
	s.Name = validation.SanitizeString(r.Name)
	s.Professor = validation.SanitizeString(r.Professor)
	s.TeacherEmail = validation.SanitizeString(r.TeacherEmail)
	s.TeacherTelephone = validation.SanitizeString(r.TeacherTelephone)
	s.Description = validation.SanitizeString(r.Description)
}

// List returns all subjects by name.
func (s *SubjectService) List(ctx context.Context) ([]model.Subject, error) {
	var subjects []model.Subject
	if err := s.db.WithContext(ctx).Order("name ASC, id ASC").Find(&subjects).Error; err != nil {
		return nil, database.MapError(err, "")
	}
	return subjects, nil
}

// Get returns one subject.
func (s *SubjectService) Get(ctx context.Context, id uint) (*model.Subject, error) {
	var subject model.Subject
	if err := s.db.WithContext(ctx).First(&subject, id).Error; err != nil {
		return nil, database.MapError(err, subjectNotFound)
	}
	return &subject, nil
}

// Create stores a new subject.
func (s *SubjectService) Create(ctx context.Context, req SubjectRequest) (*model.Subject, error) {
	var subject model.Subject
	req.apply(&subject)
	if err := s.db.WithContext(ctx).Create(&subject).Error; err != nil {
		return nil, database.MapError(err, "")
	}
	return &subject, nil
}

// Update replaces the subject's fields.
func (s *SubjectService) Update(ctx context.Context, id uint, req SubjectRequest) (*model.Subject, error) {
	subject, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	req.apply(subject)
	if err := s.db.WithContext(ctx).Save(subject).Error; err != nil {
		return nil, database.MapError(err, subjectNotFound)
	}
	return subject, nil
}

// Classes returns the subject's classes with their files.
func (s *SubjectService) Classes(ctx context.Context, id uint) ([]model.Class, error) {
	if err := mustExist(ctx, s.db, &model.Subject{}, id, subjectNotFound); err != nil {
		return nil, err
	}

	var classes []model.Class
	err := s.db.WithContext(ctx).Preload("Files").
		Where("subject_id = ?", id).
		Order("opening_date ASC NULLS LAST, id ASC").
		Find(&classes).Error
	if err != nil {
		return nil, database.MapError(err, "")
	}
	return classes, nil
}

// SubjectDependents counts the rows that block a plain delete.
type SubjectDependents struct {
	Classes     int64 `json:"classes"`
	Assignments int64 `json:"assignments"`
	Enrollments int64 `json:"enrollments"`
}

func (d SubjectDependents) empty() bool {
	return d.Classes == 0 && d.Assignments == 0 && d.Enrollments == 0
}

// Delete removes a subject. With dependents it is a Conflict unless cascade
// is set, in which case classes, assignments, enrollments and every file
// under them go in the same transaction.
func (s *SubjectService) Delete(ctx context.Context, id uint, cascade bool) error {
	var removed []model.StoredFile

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var subject model.Subject
		if err := tx.First(&subject, id).Error; err != nil {
			return err
		}

		var deps SubjectDependents
		if err := tx.Model(&model.Class{}).Where("subject_id = ?", id).Count(&deps.Classes).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Assignment{}).Where("subject_id = ?", id).Count(&deps.Assignments).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Enrollment{}).Where("subject_id = ?", id).Count(&deps.Enrollments).Error; err != nil {
			return err
		}

		if !deps.empty() && !cascade {
			return apperror.Conflict(fmt.Sprintf(
				"Subject has %d classes, %d assignments and %d enrollments; delete with cascade=true to remove them",
				deps.Classes, deps.Assignments, deps.Enrollments))
		}

		var classIDs, assignmentIDs []uint
		if err := tx.Model(&model.Class{}).Where("subject_id = ?", id).Pluck("id", &classIDs).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Assignment{}).Where("subject_id = ?", id).Pluck("id", &assignmentIDs).Error; err != nil {
			return err
		}

		files, err := deleteClasses(tx, classIDs)
		if err != nil {
			return err
		}
		removed = append(removed, files...)

		files, err = deleteAssignments(tx, assignmentIDs)
		if err != nil {
			return err
		}
		removed = append(removed, files...)

		if err := tx.Where("subject_id = ?", id).Delete(&model.Enrollment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&subject).Error
	})
	if err != nil {
		return database.MapError(err, subjectNotFound)
	}

	s.files.Discard(ctx, filePtrs(removed)...)
	return nil
}
