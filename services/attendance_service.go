package services

import (
	"context"
	"time"

	"github.com/d-valsamis/student-portal/database"
	"github.com/d-valsamis/student-portal/model"
	"github.com/d-valsamis/student-portal/utils/validation"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AttendanceService records attendance
type AttendanceService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAttendanceService creates a new attendance service
func NewAttendanceService(db *gorm.DB) *AttendanceService {
	return &AttendanceService{db: db, now: time.Now}
}

// AttendanceRequest represents the request body for recording attendance
type AttendanceRequest struct {
	ClassID   uint   `json:"class_id" validate:"required,gt=0"`
	StudentID uint   `json:"student_id" validate:"required,gt=0"`
	Status    string `json:"status" validate:"required,oneof=present absent late excused"`
	Notes     string `json:"notes" validate:"omitempty,max=2000"`
}

// Upsert creates or replaces the student's attendance at a class.
func (s *AttendanceService) Upsert(ctx context.Context, req AttendanceRequest) (*model.Attendance, error) {
	if err := mustExist(ctx, s.db, &model.Class{}, req.ClassID, classNotFound); err != nil {
		return nil, err
	}
	if err := mustExist(ctx, s.db, &model.Student{}, req.StudentID, studentNotFound); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	day := datatypes.Date(today(now))
	record := model.Attendance{
		ClassID:   req.ClassID,
		StudentID: req.StudentID,
		Status:    req.Status,
		Date:      &day,
		Notes:     validation.SanitizeString(req.Notes),
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "class_id"}, {Name: "student_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"status":     record.Status,
			"notes":      record.Notes,
			"date":       day,
			"updated_at": now,
		}),
	}).Create(&record).Error
	if err != nil {
		return nil, database.MapError(err, "")
	}

	if err := s.db.WithContext(ctx).Where("class_id = ? AND student_id = ?", req.ClassID, req.StudentID).First(&record).Error; err != nil {
		return nil, database.MapError(err, "")
	}
	return &record, nil
}
