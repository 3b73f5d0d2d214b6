package validation

import (
	"time"

	"github.com/d-valsamis/student-portal/utils/apperror"
)

const DateLayout = "2006-01-02"

// ParseDate accepts YYYY-MM-DD or RFC3339. field names the input in the error.
func ParseDate(field, value string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Time{}, apperror.ValidationFields("Validation failed", map[string]string{
		field: field + " must be a date (YYYY-MM-DD)",
	})
}

func isRFC3339(s string) bool {
	_, err := time.Parse(time.RFC3339, s)
	return err == nil
}
