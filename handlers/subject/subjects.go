package subject

import (
	"github.com/d-valsamis/student-portal/handlers"
	"github.com/d-valsamis/student-portal/services"
	"github.com/d-valsamis/student-portal/utils/response"
	"github.com/d-valsamis/student-portal/utils/validation"
	"github.com/gofiber/fiber/v2"
)

// SubjectHandler handles subject-related requests
type SubjectHandler struct {
	validator      *validation.Validator
	subjectService *services.SubjectService
}

// NewSubjectHandler creates a new subject handler
func NewSubjectHandler(subjectService *services.SubjectService) *SubjectHandler {
	return &SubjectHandler{
		validator:      validation.NewValidator(),
		subjectService: subjectService,
	}
}

// ListSubjects handles GET /api/subjects
func (h *SubjectHandler) ListSubjects(c *fiber.Ctx) error {
	subjects, err := h.subjectService.List(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, subjects)
}

// GetSubject handles GET /api/subjects/:id
func (h *SubjectHandler) GetSubject(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	subject, err := h.subjectService.Get(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, subject)
}

// CreateSubject handles POST /api/subjects
func (h *SubjectHandler) CreateSubject(c *fiber.Ctx) error {
	var req services.SubjectRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.Check(req); err != nil {
		return response.FromError(c, err)
	}

	subject, err := h.subjectService.Create(c.UserContext(), req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, subject)
}

// UpdateSubject handles PUT /api/subjects/:id
func (h *SubjectHandler) UpdateSubject(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	var req services.SubjectRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.Check(req); err != nil {
		return response.FromError(c, err)
	}

	subject, err := h.subjectService.Update(c.UserContext(), id, req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Subject updated successfully", subject)
}

// DeleteSubject handles DELETE /api/subjects/:id[?cascade=true]
func (h *SubjectHandler) DeleteSubject(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	if err := h.subjectService.Delete(c.UserContext(), id, c.QueryBool("cascade")); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Subject deleted successfully", nil)
}

// ListClasses handles GET /api/subjects/:id/classes
func (h *SubjectHandler) ListClasses(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	classes, err := h.subjectService.Classes(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, classes)
}
