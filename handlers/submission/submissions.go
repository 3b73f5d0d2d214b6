package submission

import (
	"github.com/d-valsamis/student-portal/handlers"
	"github.com/d-valsamis/student-portal/services"
	"github.com/d-valsamis/student-portal/utils/response"
	"github.com/d-valsamis/student-portal/utils/validation"
	"github.com/gofiber/fiber/v2"
)

// SubmissionHandler handles student submissions
type SubmissionHandler struct {
	validator         *validation.Validator
	submissionService *services.SubmissionService
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(submissionService *services.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{
		validator:         validation.NewValidator(),
		submissionService: submissionService,
	}
}

// Submit handles POST /api/submissions (multipart assignment_id, student_id, file)
func (h *SubmissionHandler) Submit(c *fiber.Ctx) error {
	var req services.SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid form data")
	}
	if err := h.validator.Check(req); err != nil {
		return response.FromError(c, err)
	}

	upload, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "No file uploaded")
	}

	details, err := h.submissionService.Submit(c.UserContext(), handlers.CurrentCaller(c), req, upload)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, details)
}

// GetSubmission handles GET /api/submissions/:id
func (h *SubmissionHandler) GetSubmission(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	details, err := h.submissionService.Get(c.UserContext(), handlers.CurrentCaller(c), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, details)
}

// DownloadFile handles GET /api/submissions/:id/files/:filename.
// The file is named after the student, assignment and submission date.
func (h *SubmissionHandler) DownloadFile(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	ctx := c.UserContext()
	details, file, err := h.submissionService.FindFile(ctx, handlers.CurrentCaller(c), id, c.Params("filename"))
	if err != nil {
		return response.FromError(c, err)
	}

	r, err := h.submissionService.Open(ctx, file)
	if err != nil {
		return response.FromError(c, err)
	}
	return handlers.SendFile(c, file, r, details.DownloadName)
}
