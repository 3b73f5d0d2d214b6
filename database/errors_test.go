package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/d-valsamis/student-portal/utils/apperror"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want apperror.Kind
	}{
		{"record not found", gorm.ErrRecordNotFound, apperror.KindNotFound},
		{"pgx unique", &pgconn.PgError{Code: "23505", ConstraintName: "idx_students_email"}, apperror.KindConflict},
		{"pq unique wrapped", fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), apperror.KindConflict},
		{"pgx foreign key", &pgconn.PgError{Code: "23503"}, apperror.KindValidation},
		{"pq check", &pq.Error{Code: "23514"}, apperror.KindValidation},
		{"pgx other", &pgconn.PgError{Code: "57014"}, apperror.KindInternal},
		{"plain", errors.New("connection refused"), apperror.KindInternal},
		{"already classified", apperror.Forbidden("nope"), apperror.KindForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MapError(tc.err, "Student not found")
			if kind := apperror.KindOf(got); kind != tc.want {
				t.Errorf("MapError() kind = %s, want %s", kind, tc.want)
			}
		})
	}
}

func TestMapErrorMessages(t *testing.T) {
	err := MapError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_students_username"}, "")

	var appErr *apperror.Error
	if !errors.As(err, &appErr) || appErr.Message != "Username or email already exists" {
		t.Errorf("message = %v", err)
	}

	err = MapError(gorm.ErrRecordNotFound, "Subject not found")
	if !errors.As(err, &appErr) || appErr.Message != "Subject not found" {
		t.Errorf("message = %v", err)
	}

	if MapError(nil, "x") != nil {
		t.Error("MapError(nil) should be nil")
	}
}
