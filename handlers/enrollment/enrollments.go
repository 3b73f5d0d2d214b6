package enrollment

import (
	"github.com/d-valsamis/student-portal/handlers"
	"github.com/d-valsamis/student-portal/services"
	"github.com/d-valsamis/student-portal/utils/response"
	"github.com/d-valsamis/student-portal/utils/validation"
	"github.com/gofiber/fiber/v2"
)

// EnrollmentHandler handles enrollments
type EnrollmentHandler struct {
	validator         *validation.Validator
	enrollmentService *services.EnrollmentService
}

// NewEnrollmentHandler creates a new enrollment handler
func NewEnrollmentHandler(enrollmentService *services.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{
		validator:         validation.NewValidator(),
		enrollmentService: enrollmentService,
	}
}

// ListEnrollments handles GET /api/enrollments[?subject_id=]
func (h *EnrollmentHandler) ListEnrollments(c *fiber.Ctx) error {
	subjectID, err := handlers.QueryID(c, "subject_id", "subjectId")
	if err != nil {
		return response.FromError(c, err)
	}

	enrollments, err := h.enrollmentService.List(c.UserContext(), subjectID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, enrollments)
}

// CreateEnrollment handles POST /api/enrollments
func (h *EnrollmentHandler) CreateEnrollment(c *fiber.Ctx) error {
	var req services.EnrollmentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.Check(req); err != nil {
		return response.FromError(c, err)
	}

	enrollment, err := h.enrollmentService.Create(c.UserContext(), req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, enrollment)
}

// DeleteEnrollment handles DELETE /api/enrollments/:id
func (h *EnrollmentHandler) DeleteEnrollment(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	if err := h.enrollmentService.Delete(c.UserContext(), id); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Enrollment deleted successfully", nil)
}
