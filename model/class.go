package model

import (
	"time"

	"gorm.io/datatypes"
)

// Class is a dated session of a subject with attached course material.
type Class struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Code        string          `gorm:"type:varchar(50);not null" json:"code"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	SubjectID   uint            `gorm:"not null;index" json:"subject_id"`
	OpeningDate *datatypes.Date `json:"opening_date"`
	ClosingDate *datatypes.Date `json:"closing_date"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Subject *Subject     `gorm:"foreignKey:SubjectID;constraint:OnDelete:RESTRICT" json:"subject,omitempty"`
	Files   []StoredFile `gorm:"polymorphic:Owner;polymorphicValue:class" json:"files,omitempty"`
}

// TableName specifies the table name for Class
func (Class) TableName() string {
	return "classes"
}

// Note is a piece of class material with an optional PDF.
type Note struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ClassID   uint      `gorm:"not null;index" json:"class_id"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Content   string    `gorm:"type:text" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Class *Class      `gorm:"foreignKey:ClassID;constraint:OnDelete:RESTRICT" json:"-"`
	PDF   *StoredFile `gorm:"polymorphic:Owner;polymorphicValue:note" json:"pdf,omitempty"`
}

// TableName specifies the table name for Note
func (Note) TableName() string {
	return "notes"
}

const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
	AttendanceLate    = "late"
	AttendanceExcused = "excused"
)

// Attendance records a student's presence at a class.
type Attendance struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	ClassID   uint            `gorm:"not null;uniqueIndex:idx_attendance_class_student" json:"class_id"`
	StudentID uint            `gorm:"not null;uniqueIndex:idx_attendance_class_student;index" json:"student_id"`
	Status    string          `gorm:"type:varchar(20);not null;default:'present'" json:"status"`
	Date      *datatypes.Date `json:"date"`
	Notes     string          `gorm:"type:text" json:"notes"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`

	Class   *Class   `gorm:"foreignKey:ClassID;constraint:OnDelete:RESTRICT" json:"-"`
	Student *Student `gorm:"foreignKey:StudentID;constraint:OnDelete:RESTRICT" json:"-"`
}

// TableName specifies the table name for Attendance
func (Attendance) TableName() string {
	return "attendance"
}
