package class

import (
	"github.com/d-valsamis/student-portal/handlers"
	"github.com/d-valsamis/student-portal/services"
	"github.com/d-valsamis/student-portal/utils/response"
	"github.com/d-valsamis/student-portal/utils/validation"
	"github.com/gofiber/fiber/v2"
)

// ClassHandler handles classes, class files and class notes
type ClassHandler struct {
	validator    *validation.Validator
	classService *services.ClassService
}

// NewClassHandler creates a new class handler
func NewClassHandler(classService *services.ClassService) *ClassHandler {
	return &ClassHandler{
		validator:    validation.NewValidator(),
		classService: classService,
	}
}

// ListClasses handles GET /api/classes[?subjectId=]
func (h *ClassHandler) ListClasses(c *fiber.Ctx) error {
	subjectID, err := handlers.QueryID(c, "subjectId", "subject_id")
	if err != nil {
		return response.FromError(c, err)
	}

	classes, err := h.classService.List(c.UserContext(), subjectID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, classes)
}

// GetClass handles GET /api/classes/:id
func (h *ClassHandler) GetClass(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	class, err := h.classService.Get(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, class)
}

// CreateClass handles POST /api/classes
func (h *ClassHandler) CreateClass(c *fiber.Ctx) error {
	var req services.ClassRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.Check(req); err != nil {
		return response.FromError(c, err)
	}

	class, err := h.classService.Create(c.UserContext(), req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, class)
}

// UpdateClass handles PUT /api/classes/:id
func (h *ClassHandler) UpdateClass(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	var req services.ClassRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.Check(req); err != nil {
		return response.FromError(c, err)
	}

	class, err := h.classService.Update(c.UserContext(), id, req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Class updated successfully", class)
}

// DeleteClass handles DELETE /api/classes/:id
func (h *ClassHandler) DeleteClass(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	if err := h.classService.Delete(c.UserContext(), id); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Class deleted successfully", nil)
}

// UploadFiles handles POST /api/classes/:id/files (multipart field "files")
func (h *ClassHandler) UploadFiles(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	form, err := c.MultipartForm()
	if err != nil {
		return response.BadRequest(c, "Expected multipart form data")
	}

	files, err := h.classService.AddFiles(c.UserContext(), id, form.File["files"])
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, files)
}

// ListFiles handles GET /api/classes/:id/files
func (h *ClassHandler) ListFiles(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	files, err := h.classService.Files(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, files)
}

// DownloadFile handles GET /api/classes/:id/files/:filename
func (h *ClassHandler) DownloadFile(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	ctx := c.UserContext()
	file, err := h.classService.FindFile(ctx, id, c.Params("filename"))
	if err != nil {
		return response.FromError(c, err)
	}

	r, err := h.classService.Open(ctx, file)
	if err != nil {
		return response.FromError(c, err)
	}
	return handlers.SendFile(c, file, r, file.OriginalName)
}

// DeleteFile handles DELETE /api/classes/:id/files/:fileId
func (h *ClassHandler) DeleteFile(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	fileID, err := handlers.ParamID(c, "fileId")
	if err != nil {
		return response.FromError(c, err)
	}

	if err := h.classService.DeleteFile(c.UserContext(), id, fileID); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "File deleted successfully", nil)
}

// ListNotes handles GET /api/classes/:id/notes
func (h *ClassHandler) ListNotes(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	notes, err := h.classService.Notes(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, notes)
}
