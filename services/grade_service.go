package services

import (
	"context"
	"strings"
	"time"

	"github.com/d-valsamis/student-portal/database"
	"github.com/d-valsamis/student-portal/model"
	"github.com/d-valsamis/student-portal/utils/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GradeService handles grading
type GradeService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGradeService creates a new grade service
func NewGradeService(db *gorm.DB) *GradeService {
	return &GradeService{db: db, now: time.Now}
}

// GradeRequest represents the request body for grading a student
type GradeRequest struct {
	AssignmentID uint     `json:"assignment_id" validate:"required,gt=0"`
	StudentID    uint     `json:"student_id" validate:"required,gt=0"`
	Score        *float64 `json:"score" validate:"required,gte=0,lte=100"`
	LetterGrade  string   `json:"letter_grade" validate:"omitempty,max=5"`
	Feedback     string   `json:"feedback" validate:"omitempty,max=5000"`
}

// Upsert creates or replaces the grade for (assignment, student) and marks
// the matching submission, if any, as graded.
func (s *GradeService) Upsert(ctx context.Context, req GradeRequest) (*model.Grade, error) {
	if err := mustExist(ctx, s.db, &model.Assignment{}, req.AssignmentID, assignmentNotFound); err != nil {
		return nil, err
	}
	if err := mustExist(ctx, s.db, &model.Student{}, req.StudentID, studentNotFound); err != nil {
		return nil, err
	}

	letter := strings.ToUpper(strings.TrimSpace(req.LetterGrade))
	if letter == "" {
		letter = LetterGrade(*req.Score)
	}
	now := s.now().UTC()

	var grade model.Grade
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		grade = model.Grade{
			AssignmentID: req.AssignmentID,
			StudentID:    req.StudentID,
			Score:        *req.Score,
			LetterGrade:  letter,
			Feedback:     validation.SanitizeString(req.Feedback),
		}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "assignment_id"}, {Name: "student_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"score":        grade.Score,
				"letter_grade": grade.LetterGrade,
				"feedback":     grade.Feedback,
				"updated_at":   now,
			}),
		}).Create(&grade).Error
		if err != nil {
			return err
		}

		err = tx.Model(&model.Submission{}).
			Where("assignment_id = ? AND student_id = ?", req.AssignmentID, req.StudentID).
			Updates(map[string]interface{}{"status": model.SubmissionGraded, "updated_at": now}).Error
		if err != nil {
			return err
		}

		return tx.Where("assignment_id = ? AND student_id = ?", req.AssignmentID, req.StudentID).First(&grade).Error
	})
	if err != nil {
		return nil, database.MapError(err, "")
	}
	return &grade, nil
}

// AssignmentGradeRow is an enrolled student with their grade and submission, if any.
type AssignmentGradeRow struct {
	StudentID        uint       `json:"student_id"`
	StudentName      string     `json:"student_name"`
	StudentUsername  string     `json:"student_username"`
	GradeID          *uint      `json:"grade_id"`
	Score            *float64   `json:"score"`
	LetterGrade      *string    `json:"letter_grade"`
	Feedback         *string    `json:"feedback"`
	SubmissionID     *uint      `json:"submission_id"`
	SubmissionStatus *string    `json:"submission_status"`
	SubmittedAt      *time.Time `json:"submitted_at"`
}

// ListByAssignment returns every student enrolled in the assignment's subject.
func (s *GradeService) ListByAssignment(ctx context.Context, assignmentID uint) ([]AssignmentGradeRow, error) {
	var assignment model.Assignment
	if err := s.db.WithContext(ctx).First(&assignment, assignmentID).Error; err != nil {
		return nil, database.MapError(err, assignmentNotFound)
	}

	var rows []AssignmentGradeRow
	err := s.db.WithContext(ctx).Table("enrollments e").
		Select("st.id AS student_id, st.name AS student_name, st.username AS student_username, "+
			"g.id AS grade_id, g.score, g.letter_grade, g.feedback, "+
			"sub.id AS submission_id, sub.status AS submission_status, sub.submitted_at").
		Joins("JOIN students st ON st.id = e.student_id").
		Joins("LEFT JOIN grades g ON g.student_id = st.id AND g.assignment_id = ?", assignmentID).
		Joins("LEFT JOIN submissions sub ON sub.student_id = st.id AND sub.assignment_id = ?", assignmentID).
		Where("e.subject_id = ?", assignment.SubjectID).
		Order("st.name ASC, st.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, database.MapError(err, "")
	}
	return rows, nil
}
