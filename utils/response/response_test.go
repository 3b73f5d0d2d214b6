package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/d-valsamis/student-portal/utils/apperror"
	"github.com/gofiber/fiber/v2"
)

func render(t *testing.T, err error) (int, Response) {
	t.Helper()

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return FromError(c, err)
	})

	resp, testErr := app.Test(httptest.NewRequest("GET", "/", nil))
	if testErr != nil {
		t.Fatalf("app.Test: %v", testErr)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	var out Response
	if jsonErr := json.Unmarshal(body, &out); jsonErr != nil {
		t.Fatalf("decode %q: %v", body, jsonErr)
	}
	return resp.StatusCode, out
}

func TestFromErrorStatuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{apperror.Validation("score must be between 0 and 100"), 400, "VALIDATION_ERROR"},
		{apperror.Unauthorized("Invalid credentials"), 401, "UNAUTHORIZED"},
		{apperror.Forbidden("Access denied"), 403, "FORBIDDEN"},
		{apperror.NotFound("Student not found"), 404, "NOT_FOUND"},
		{fmt.Errorf("create: %w", apperror.Conflict("Username or email already exists")), 409, "CONFLICT"},
		{errors.New("boom"), 500, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		status, out := render(t, tc.err)
		if status != tc.status {
			t.Errorf("%v: status = %d, want %d", tc.err, status, tc.status)
		}
		if out.Success || out.Error == nil || out.Error.Code != tc.code {
			t.Errorf("%v: envelope = %+v, want code %s", tc.err, out, tc.code)
		}
	}
}

func TestFromErrorHidesInternalDetail(t *testing.T) {
	_, out := render(t, apperror.Internal(errors.New(`pq: duplicate key value violates unique constraint "students_email_key"`)))

	if strings.Contains(out.Error.Message, "pq:") || out.Error.Details != nil {
		t.Errorf("internal detail leaked to client: %+v", out.Error)
	}
}

func TestErrorHandlerWrapsFiberErrors(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/big", func(c *fiber.Ctx) error {
		return fiber.ErrRequestEntityTooLarge
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/big", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", resp.StatusCode)
	}

	var out Response
	json.NewDecoder(resp.Body).Decode(&out)
	if out.Error == nil || out.Error.Code != "REQUEST_ENTITY_TOO_LARGE" {
		t.Errorf("envelope = %+v", out.Error)
	}
}

func TestCalculatePagination(t *testing.T) {
	meta := CalculatePagination(2, 10, 35)
	if meta.TotalPages != 4 || meta.CurrentPage != 2 {
		t.Errorf("meta = %+v", meta)
	}

	meta = CalculatePagination(0, 500, 1)
	if meta.CurrentPage != 1 || meta.PerPage != 100 {
		t.Errorf("clamped meta = %+v", meta)
	}
}
