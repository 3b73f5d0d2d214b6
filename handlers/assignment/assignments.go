package assignment

import (
	"github.com/d-valsamis/student-portal/handlers"
	"github.com/d-valsamis/student-portal/services"
	"github.com/d-valsamis/student-portal/utils/response"
	"github.com/d-valsamis/student-portal/utils/validation"
	"github.com/gofiber/fiber/v2"
)

// AssignmentHandler handles assignments and their PDFs
type AssignmentHandler struct {
	validator         *validation.Validator
	assignmentService *services.AssignmentService
}

// NewAssignmentHandler creates a new assignment handler
func NewAssignmentHandler(assignmentService *services.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{
		validator:         validation.NewValidator(),
		assignmentService: assignmentService,
	}
}

// ListAssignments handles GET /api/assignments[?subjectId=]
func (h *AssignmentHandler) ListAssignments(c *fiber.Ctx) error {
	subjectID, err := handlers.QueryID(c, "subjectId", "subject_id")
	if err != nil {
		return response.FromError(c, err)
	}

	assignments, err := h.assignmentService.List(c.UserContext(), subjectID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, assignments)
}

// GetAssignment handles GET /api/assignments/:id
func (h *AssignmentHandler) GetAssignment(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	assignment, err := h.assignmentService.Get(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, assignment)
}

// CreateAssignment handles POST /api/assignments
func (h *AssignmentHandler) CreateAssignment(c *fiber.Ctx) error {
	var req services.AssignmentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.Check(req); err != nil {
		return response.FromError(c, err)
	}

	assignment, err := h.assignmentService.Create(c.UserContext(), req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, assignment)
}

// UpdateAssignment handles PUT /api/assignments/:id
func (h *AssignmentHandler) UpdateAssignment(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	var req services.AssignmentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.Check(req); err != nil {
		return response.FromError(c, err)
	}

	assignment, err := h.assignmentService.Update(c.UserContext(), id, req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Assignment updated successfully", assignment)
}

// DeleteAssignment handles DELETE /api/assignments/:id[?cascade=true]
func (h *AssignmentHandler) DeleteAssignment(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	if err := h.assignmentService.Delete(c.UserContext(), id, c.QueryBool("cascade")); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Assignment deleted successfully", nil)
}

// UploadPDF handles POST /api/assignments/:id/pdf (multipart field "pdf")
func (h *AssignmentHandler) UploadPDF(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	upload, err := c.FormFile("pdf")
	if err != nil {
		return response.BadRequest(c, "No PDF file uploaded")
	}

	file, err := h.assignmentService.ReplacePDF(c.UserContext(), id, upload)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, file)
}

// DownloadFile handles GET /api/assignments/:id/files/:filename
func (h *AssignmentHandler) DownloadFile(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	ctx := c.UserContext()
	file, err := h.assignmentService.FindFile(ctx, id, c.Params("filename"))
	if err != nil {
		return response.FromError(c, err)
	}

	r, err := h.assignmentService.Open(ctx, file)
	if err != nil {
		return response.FromError(c, err)
	}
	return handlers.SendFile(c, file, r, file.OriginalName)
}

// ListSubmissions handles GET /api/assignments/:id/submissions
func (h *AssignmentHandler) ListSubmissions(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	submissions, err := h.assignmentService.Submissions(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, submissions)
}
