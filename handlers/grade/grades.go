package grade

import (
	"github.com/d-valsamis/student-portal/handlers"
	"github.com/d-valsamis/student-portal/services"
	"github.com/d-valsamis/student-portal/utils/response"
	"github.com/d-valsamis/student-portal/utils/validation"
	"github.com/gofiber/fiber/v2"
)

// GradeHandler handles grading
type GradeHandler struct {
	validator    *validation.Validator
	gradeService *services.GradeService
}

// NewGradeHandler creates a new grade handler
func NewGradeHandler(gradeService *services.GradeService) *GradeHandler {
	return &GradeHandler{
		validator:    validation.NewValidator(),
		gradeService: gradeService,
	}
}

// ListGrades handles GET /api/grades?assignment_id=
func (h *GradeHandler) ListGrades(c *fiber.Ctx) error {
	assignmentID, err := handlers.QueryID(c, "assignment_id", "assignmentId")
	if err != nil {
		return response.FromError(c, err)
	}
	if assignmentID == 0 {
		return response.ValidationError(c, map[string]string{"assignment_id": "assignment_id is required"})
	}

	rows, err := h.gradeService.ListByAssignment(c.UserContext(), assignmentID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, rows)
}

// UpsertGrade handles POST /api/grades
func (h *GradeHandler) UpsertGrade(c *fiber.Ctx) error {
	var req services.GradeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.Check(req); err != nil {
		return response.FromError(c, err)
	}

	grade, err := h.gradeService.Upsert(c.UserContext(), req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Grade saved successfully", grade)
}
