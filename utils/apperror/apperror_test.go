package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("connection reset")

	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("name is required"), KindValidation},
		{"conflict wrapped", fmt.Errorf("create student: %w", Conflict("username taken")), KindConflict},
		{"not found", NotFound("student not found"), KindNotFound},
		{"internal", Internal(cause), KindInternal},
		{"plain error", cause, KindInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.want {
				t.Errorf("KindOf() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestInternalKeepsCauseOutOfMessage(t *testing.T) {
	cause := errors.New(`pq: relation "students" does not exist`)
	err := Internal(cause)

	if err.Message != "Internal server error" {
		t.Errorf("Message = %q, leaked detail", err.Message)
	}
	if !errors.Is(err, cause) {
		t.Error("cause should stay reachable through Unwrap")
	}
}
