package note

import (
	"mime/multipart"

	"github.com/d-valsamis/student-portal/handlers"
	"github.com/d-valsamis/student-portal/services"
	"github.com/d-valsamis/student-portal/utils/response"
	"github.com/d-valsamis/student-portal/utils/validation"
	"github.com/gofiber/fiber/v2"
)

// NoteHandler handles class notes
type NoteHandler struct {
	validator   *validation.Validator
	noteService *services.NoteService
}

// NewNoteHandler creates a new note handler
func NewNoteHandler(noteService *services.NoteService) *NoteHandler {
	return &NoteHandler{
		validator:   validation.NewValidator(),
		noteService: noteService,
	}
}

// CreateNote handles POST /api/notes (multipart class_id, title, content, optional pdf)
func (h *NoteHandler) CreateNote(c *fiber.Ctx) error {
	var req services.NoteRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid form data")
	}
	if err := h.validator.Check(req); err != nil {
		return response.FromError(c, err)
	}

	var upload *multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil {
		if files := form.File["pdf"]; len(files) > 0 {
			upload = files[0]
		}
	}

	note, err := h.noteService.Create(c.UserContext(), req, upload)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, note)
}

// DownloadPDF handles GET /api/notes/:id/file
func (h *NoteHandler) DownloadPDF(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	file, r, err := h.noteService.OpenPDF(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return handlers.SendFile(c, file, r, file.OriginalName)
}

// DeleteNote handles DELETE /api/notes/:id
func (h *NoteHandler) DeleteNote(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	if err := h.noteService.Delete(c.UserContext(), id); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Note deleted successfully", nil)
}
