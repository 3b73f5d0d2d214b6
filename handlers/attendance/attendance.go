package attendance

import (
	"github.com/d-valsamis/student-portal/services"
	"github.com/d-valsamis/student-portal/utils/response"
	"github.com/d-valsamis/student-portal/utils/validation"
	"github.com/gofiber/fiber/v2"
)

// AttendanceHandler handles attendance records
type AttendanceHandler struct {
	validator         *validation.Validator
	attendanceService *services.AttendanceService
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(attendanceService *services.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{
		validator:         validation.NewValidator(),
		attendanceService: attendanceService,
	}
}

// RecordAttendance handles POST /api/attendance
func (h *AttendanceHandler) RecordAttendance(c *fiber.Ctx) error {
	var req services.AttendanceRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.Check(req); err != nil {
		return response.FromError(c, err)
	}

	record, err := h.attendanceService.Upsert(c.UserContext(), req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Attendance recorded", record)
}
