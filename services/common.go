package services

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/d-valsamis/student-portal/database"
	"github.com/d-valsamis/student-portal/utils/apperror"
	"github.com/d-valsamis/student-portal/utils/validation"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Display statuses of an assignment from a student's point of view.
const (
	DisplaySubmitted = "submitted"
	DisplayOverdue   = "overdue"
	DisplayPending   = "pending"
)

// mustExist returns a NotFound error unless a row of the model has the id.
func mustExist(ctx context.Context, db *gorm.DB, m interface{}, id uint, notFound string) error {
	var count int64
	if err := db.WithContext(ctx).Model(m).Where("id = ?", id).Count(&count).Error; err != nil {
		return database.MapError(err, notFound)
	}
	if count == 0 {
		return apperror.NotFound(notFound)
	}
	return nil
}

// LetterGrade derives the letter for a 0-100 score.
func LetterGrade(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	}
	return "F"
}

// DisplayStatus is submitted when a submission exists, overdue once the due
// date has passed, and pending otherwise.
func DisplayStatus(submitted bool, due, now time.Time) string {
	switch {
	case submitted:
		return DisplaySubmitted
	case now.After(due):
		return DisplayOverdue
	}
	return DisplayPending
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeDownloadName builds StudentName_AssignmentTitle_YYYY-MM-DD.pdf with
// every character outside [A-Za-z0-9._-] replaced by an underscore.
func SanitizeDownloadName(studentName, assignmentTitle string, submittedAt time.Time) string {
	clean := func(s string) string {
		s = unsafeNameChars.ReplaceAllString(strings.TrimSpace(s), "_")
		s = strings.Trim(s, "_.")
		if s == "" {
			return "unknown"
		}
		return s
	}
	return clean(studentName) + "_" + clean(assignmentTitle) + "_" + submittedAt.Format(validation.DateLayout) + ".pdf"
}

// parseOptionalDate turns "" into nil and anything else into a date.
func parseOptionalDate(field, value string) (*datatypes.Date, error) {
	if value == "" {
		return nil, nil
	}
	t, err := validation.ParseDate(field, value)
	if err != nil {
		return nil, err
	}
	d := datatypes.Date(t)
	return &d, nil
}

// checkDateWindow rejects an opening date after the closing date.
func checkDateWindow(opening, closing *datatypes.Date) error {
	if opening == nil || closing == nil {
		return nil
	}
	if time.Time(*opening).After(time.Time(*closing)) {
		return apperror.ValidationFields("Validation failed", map[string]string{
			"closing_date": "closing_date must not be before opening_date",
		})
	}
	return nil
}

// today is the current UTC date at midnight.
func today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
