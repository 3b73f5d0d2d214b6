package model

import "time"

// Subject is a course taught by a professor, grouping classes and assignments.
type Subject struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Name             string    `gorm:"type:varchar(255);not null" json:"name"`
	Professor        string    `gorm:"type:varchar(255)" json:"professor"`
	TeacherEmail     string    `gorm:"type:varchar(255)" json:"teacher_email"`
	TeacherTelephone string    `gorm:"type:varchar(50)" json:"teacher_telephone"`
	Description      string    `gorm:"type:text" json:"description"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName specifies the table name for Subject
func (Subject) TableName() string {
	return "subjects"
}
