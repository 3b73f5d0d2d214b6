package database

import (
	"errors"

	"github.com/d-valsamis/student-portal/utils/apperror"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Postgres SQLSTATE codes the API translates.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgNotNullViolation    = "23502"
)

// sqlState extracts the SQLSTATE from either driver's error type.
func sqlState(err error) (code, constraint string, ok bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint, true
	}
	return "", "", false
}

// MapError classifies a database error. notFound is the message used when the
// record is missing. Already classified errors pass through unchanged.
func MapError(err error, notFound string) error {
	if err == nil {
		return nil
	}

	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.Wrap(apperror.KindNotFound, notFound, err)
	}

	code, constraint, ok := sqlState(err)
	if !ok {
		return apperror.Internal(err)
	}

	switch code {
	case pgUniqueViolation:
		return apperror.Wrap(apperror.KindConflict, conflictMessage(constraint), err)
	case pgForeignKeyViolation:
		return apperror.Wrap(apperror.KindValidation, "Referenced record does not exist", err)
	case pgCheckViolation, pgNotNullViolation:
		return apperror.Wrap(apperror.KindValidation, "Value violates a data constraint", err)
	}
	return apperror.Internal(err)
}

func conflictMessage(constraint string) string {
	switch constraint {
	case "idx_students_username", "idx_students_email":
		return "Username or email already exists"
	case "idx_enrollment_student_subject":
		return "Student is already enrolled in this subject"
	case "idx_admins_username":
		return "Admin username already exists"
	}
	return "Record already exists"
}
