package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/d-valsamis/student-portal/database"
	"github.com/d-valsamis/student-portal/model"
	"github.com/d-valsamis/student-portal/services/filestore"
	"github.com/d-valsamis/student-portal/utils/apperror"
	"github.com/d-valsamis/student-portal/utils/auth"
	"github.com/d-valsamis/student-portal/utils/validation"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const studentNotFound = "Student not found"

// StudentService manages student accounts and the per-student views.
type StudentService struct {
	db    *gorm.DB
	files *filestore.Service
	now   func() time.Time
}

// NewStudentService creates a new student service
func NewStudentService(db *gorm.DB, files *filestore.Service) *StudentService {
	return &StudentService{db: db, files: files, now: time.Now}
}

// CreateStudentRequest represents the request body for creating a student
type CreateStudentRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=255"`
	Username string `json:"username" validate:"required,min=3,max=100,username"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

// UpdateStudentRequest represents the request body for updating a student.
// Absent fields are left unchanged.
type UpdateStudentRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=255"`
	Username *string `json:"username" validate:"omitempty,min=3,max=100,username"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Password *string `json:"password" validate:"omitempty,min=6,max=128"`
}

// List returns all students ordered by name.
func (s *StudentService) List(ctx context.Context) ([]model.Student, error) {
	var students []model.Student
	if err := s.db.WithContext(ctx).Order("name ASC, id ASC").Find(&students).Error; err != nil {
		return nil, database.MapError(err, "")
	}
	return students, nil
}

// Get returns one student.
func (s *StudentService) Get(ctx context.Context, id uint) (*model.Student, error) {
	var student model.Student
	if err := s.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return nil, database.MapError(err, studentNotFound)
	}
	return &student, nil
}

// Create stores a new student with a hashed password. A taken username or
// email is a Conflict.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*model.Student, error) {
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("hash password: %w", err))
	}

	student := model.Student{
		Name:     validation.SanitizeString(req.Name),
		Username: strings.TrimSpace(req.Username),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: hash,
	}
	if err := s.db.WithContext(ctx).Create(&student).Error; err != nil {
		return nil, database.MapError(err, "")
	}
	return &student, nil
}

// Update applies the present fields of req.
func (s *StudentService) Update(ctx context.Context, id uint, req UpdateStudentRequest) (*model.Student, error) {
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = validation.SanitizeString(*req.Name)
	}
	if req.Username != nil {
		updates["username"] = strings.TrimSpace(*req.Username)
	}
	if req.Email != nil {
		updates["email"] = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, apperror.Internal(fmt.Errorf("hash password: %w", err))
		}
		updates["password"] = hash
	}
	if len(updates) == 0 {
		return student, nil
	}

	if err := s.db.WithContext(ctx).Model(student).Updates(updates).Error; err != nil {
		return nil, database.MapError(err, studentNotFound)
	}
	return s.Get(ctx, id)
}

// Delete removes the student with their enrollments, submissions and their
// files, grades and attendance, all in one transaction. Blobs are removed after commit.
func (s *StudentService) Delete(ctx context.Context, id uint) error {
	var files []model.StoredFile

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var student model.Student
		if err := tx.First(&student, id).Error; err != nil {
			return err
		}

		var submissionIDs []uint
		if err := tx.Model(&model.Submission{}).Where("student_id = ?", id).Pluck("id", &submissionIDs).Error; err != nil {
			return err
		}
		if len(submissionIDs) > 0 {
			if err := tx.Where("owner_type = ? AND owner_id IN ?", model.OwnerSubmission, submissionIDs).Find(&files).Error; err != nil {
				return err
			}
			if err := tx.Where("owner_type = ? AND owner_id IN ?", model.OwnerSubmission, submissionIDs).Delete(&model.StoredFile{}).Error; err != nil {
				return err
			}
		}

		for _, m := range []interface{}{&model.Grade{}, &model.Submission{}, &model.Attendance{}, &model.Enrollment{}} {
			if err := tx.Where("student_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&student).Error
	})
	if err != nil {
		return database.MapError(err, studentNotFound)
	}

	s.files.Discard(ctx, filePtrs(files)...)
	return nil
}

// Subjects returns the subjects the student is enrolled in.
func (s *StudentService) Subjects(ctx context.Context, id uint) ([]model.Subject, error) {
	if err := mustExist(ctx, s.db, &model.Student{}, id, studentNotFound); err != nil {
		return nil, err
	}

	var subjects []model.Subject
	err := s.db.WithContext(ctx).
		Joins("JOIN enrollments e ON e.subject_id = subjects.id").
		Where("e.student_id = ?", id).
		Order("subjects.name ASC").
		Find(&subjects).Error
	if err != nil {
		return nil, database.MapError(err, "")
	}
	return subjects, nil
}

// StudentClass is a class of an enrolled subject.
type StudentClass struct {
	ID          uint            `json:"id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	SubjectID   uint            `json:"subject_id"`
	SubjectName string          `json:"subject_name"`
	OpeningDate *datatypes.Date `json:"opening_date"`
	ClosingDate *datatypes.Date `json:"closing_date"`
}

// Classes returns the classes of every subject the student is enrolled in.
func (s *StudentService) Classes(ctx context.Context, id uint) ([]StudentClass, error) {
	if err := mustExist(ctx, s.db, &model.Student{}, id, studentNotFound); err != nil {
		return nil, err
	}

	var rows []StudentClass
	err := s.db.WithContext(ctx).Table("classes c").
		Select("c.id, c.code, c.name, c.subject_id, s.name AS subject_name, c.opening_date, c.closing_date").
		Joins("JOIN enrollments e ON e.subject_id = c.subject_id AND e.student_id = ?", id).
		Joins("JOIN subjects s ON s.id = c.subject_id").
		Order("c.opening_date ASC NULLS LAST, c.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, database.MapError(err, "")
	}
	return rows, nil
}

// StudentAssignment is an assignment with the student's submission and grade.
type StudentAssignment struct {
	ID            uint       `json:"id"`
	SubjectID     uint       `json:"subject_id"`
	SubjectName   string     `json:"subject_name"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	DueDate       time.Time  `json:"due_date"`
	SubmissionID  *uint      `json:"submission_id"`
	SubmittedAt   *time.Time `json:"submitted_at"`
	Score         *float64   `json:"score"`
	LetterGrade   *string    `json:"letter_grade"`
	DisplayStatus string     `json:"display_status" gorm:"-"`
}

// Assignments returns the assignments of the enrolled subjects, optionally
// filtered to one subject, ordered by due date.
func (s *StudentService) Assignments(ctx context.Context, id, subjectID uint) ([]StudentAssignment, error) {
	if err := mustExist(ctx, s.db, &model.Student{}, id, studentNotFound); err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).Table("assignments a").
		Select("a.id, a.subject_id, s.name AS subject_name, a.title, a.description, a.due_date, "+
			"sub.id AS submission_id, sub.submitted_at, g.score, g.letter_grade").
		Joins("JOIN enrollments e ON e.subject_id = a.subject_id AND e.student_id = ?", id).
		Joins("JOIN subjects s ON s.id = a.subject_id").
		Joins("LEFT JOIN submissions sub ON sub.assignment_id = a.id AND sub.student_id = ?", id).
		Joins("LEFT JOIN grades g ON g.assignment_id = a.id AND g.student_id = ?", id)
	if subjectID != 0 {
		q = q.Where("a.subject_id = ?", subjectID)
	}

	var rows []StudentAssignment
	if err := q.Order("a.due_date ASC, a.id ASC").Scan(&rows).Error; err != nil {
		return nil, database.MapError(err, "")
	}

	now := s.now()
	for i := range rows {
		rows[i].DisplayStatus = DisplayStatus(rows[i].SubmissionID != nil, rows[i].DueDate, now)
	}
	return rows, nil
}

// StudentGrade is a grade with its assignment and subject.
type StudentGrade struct {
	ID              uint      `json:"id"`
	AssignmentID    uint      `json:"assignment_id"`
	AssignmentTitle string    `json:"assignment_title"`
	SubjectName     string    `json:"subject_name"`
	Score           float64   `json:"score"`
	LetterGrade     string    `json:"letter_grade"`
	Feedback        string    `json:"feedback"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Grades returns the student's grades.
func (s *StudentService) Grades(ctx context.Context, id uint) ([]StudentGrade, error) {
	if err := mustExist(ctx, s.db, &model.Student{}, id, studentNotFound); err != nil {
		return nil, err
	}

	var rows []StudentGrade
	err := s.db.WithContext(ctx).Table("grades g").
		Select("g.id, g.assignment_id, a.title AS assignment_title, s.name AS subject_name, g.score, g.letter_grade, g.feedback, g.updated_at").
		Joins("JOIN assignments a ON a.id = g.assignment_id").
		Joins("JOIN subjects s ON s.id = a.subject_id").
		Where("g.student_id = ?", id).
		Order("a.due_date ASC, g.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, database.MapError(err, "")
	}
	return rows, nil
}

// StudentAttendance is a currently open class with the student's recorded status.
type StudentAttendance struct {
	ClassID     uint            `json:"class_id"`
	ClassCode   string          `json:"class_code"`
	ClassName   string          `json:"class_name"`
	SubjectID   uint            `json:"subject_id"`
	SubjectName string          `json:"subject_name"`
	OpeningDate *datatypes.Date `json:"opening_date"`
	ClosingDate *datatypes.Date `json:"closing_date"`
	Status      string          `json:"status"`
	Notes       string          `json:"notes"`
}

// Attendance lists the classes of enrolled subjects whose window contains
// today. A class without a record counts as present.
func (s *StudentService) Attendance(ctx context.Context, id, subjectID uint) ([]StudentAttendance, error) {
	if err := mustExist(ctx, s.db, &model.Student{}, id, studentNotFound); err != nil {
		return nil, err
	}

	day := today(s.now()).Format(validation.DateLayout)
	q := s.db.WithContext(ctx).Table("classes c").
		Select("c.id AS class_id, c.code AS class_code, c.name AS class_name, c.subject_id, s.name AS subject_name, "+
			"c.opening_date, c.closing_date, COALESCE(att.status, ?) AS status, COALESCE(att.notes, '') AS notes", model.AttendancePresent).
		Joins("JOIN enrollments e ON e.subject_id = c.subject_id AND e.student_id = ?", id).
		Joins("JOIN subjects s ON s.id = c.subject_id").
		Joins("LEFT JOIN attendance att ON att.class_id = c.id AND att.student_id = ?", id).
		Where("c.opening_date <= ? AND c.closing_date >= ?", day, day)
	if subjectID != 0 {
		q = q.Where("c.subject_id = ?", subjectID)
	}

	var rows []StudentAttendance
	if err := q.Order("s.name ASC, c.code ASC").Scan(&rows).Error; err != nil {
		return nil, database.MapError(err, "")
	}
	return rows, nil
}

// Enrollments returns the student's enrollment rows with their subjects.
func (s *StudentService) Enrollments(ctx context.Context, id uint) ([]model.Enrollment, error) {
	if err := mustExist(ctx, s.db, &model.Student{}, id, studentNotFound); err != nil {
		return nil, err
	}

	var enrollments []model.Enrollment
	err := s.db.WithContext(ctx).Preload("Subject").
		Where("student_id = ?", id).
		Order("enrolled_at ASC").
		Find(&enrollments).Error
	if err != nil {
		return nil, database.MapError(err, "")
	}
	return enrollments, nil
}

func filePtrs(files []model.StoredFile) []*model.StoredFile {
	out := make([]*model.StoredFile, len(files))
	for i := range files {
		out[i] = &files[i]
	}
	return out
}
