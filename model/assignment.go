package model

import "time"

// Assignment is work set for every student enrolled in a subject.
type Assignment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SubjectID   uint      `gorm:"not null;index" json:"subject_id"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	DueDate     time.Time `gorm:"not null;index" json:"due_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Subject *Subject    `gorm:"foreignKey:SubjectID;constraint:OnDelete:RESTRICT" json:"subject,omitempty"`
	PDF     *StoredFile `gorm:"polymorphic:Owner;polymorphicValue:assignment" json:"pdf,omitempty"`
}

// TableName specifies the table name for Assignment
func (Assignment) TableName() string {
	return "assignments"
}

const (
	SubmissionSubmitted = "submitted"
	SubmissionGraded    = "graded"
)

// Submission is a student's uploaded work for an assignment.
// There is at most one per (assignment, student).
type Submission struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AssignmentID uint      `gorm:"not null;uniqueIndex:idx_submission_assignment_student" json:"assignment_id"`
	StudentID    uint      `gorm:"not null;uniqueIndex:idx_submission_assignment_student;index" json:"student_id"`
	SubmittedAt  time.Time `gorm:"not null" json:"submitted_at"`
	Status       string    `gorm:"type:varchar(20);not null;default:'submitted'" json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Assignment *Assignment `gorm:"foreignKey:AssignmentID;constraint:OnDelete:RESTRICT" json:"-"`
	Student    *Student    `gorm:"foreignKey:StudentID;constraint:OnDelete:RESTRICT" json:"-"`
	File       *StoredFile `gorm:"polymorphic:Owner;polymorphicValue:submission" json:"file,omitempty"`
}

// TableName specifies the table name for Submission
func (Submission) TableName() string {
	return "submissions"
}

// Grade is the mark for one student on one assignment.
type Grade struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AssignmentID uint      `gorm:"not null;uniqueIndex:idx_grade_assignment_student" json:"assignment_id"`
	StudentID    uint      `gorm:"not null;uniqueIndex:idx_grade_assignment_student;index" json:"student_id"`
	Score        float64   `gorm:"not null;check:chk_grades_score,score >= 0 AND score <= 100" json:"score"`
	LetterGrade  string    `gorm:"type:varchar(5)" json:"letter_grade"`
	Feedback     string    `gorm:"type:text" json:"feedback"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Assignment *Assignment `gorm:"foreignKey:AssignmentID;constraint:OnDelete:RESTRICT" json:"-"`
	Student    *Student    `gorm:"foreignKey:StudentID;constraint:OnDelete:RESTRICT" json:"-"`
}

// TableName specifies the table name for Grade
func (Grade) TableName() string {
	return "grades"
}
