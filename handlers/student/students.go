package student

import (
	"github.com/d-valsamis/student-portal/handlers"
	"github.com/d-valsamis/student-portal/services"
	"github.com/d-valsamis/student-portal/utils/response"
	"github.com/d-valsamis/student-portal/utils/validation"
	"github.com/gofiber/fiber/v2"
)

// StudentHandler handles student accounts and per-student views
type StudentHandler struct {
	validator      *validation.Validator
	studentService *services.StudentService
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(studentService *services.StudentService) *StudentHandler {
	return &StudentHandler{
		validator:      validation.NewValidator(),
		studentService: studentService,
	}
}

// ListStudents handles GET /api/students
func (h *StudentHandler) ListStudents(c *fiber.Ctx) error {
	students, err := h.studentService.List(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, students)
}

// GetStudent handles GET /api/students/:id
func (h *StudentHandler) GetStudent(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	student, err := h.studentService.Get(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, student)
}

// CreateStudent handles POST /api/students
func (h *StudentHandler) CreateStudent(c *fiber.Ctx) error {
	var req services.CreateStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.Check(req); err != nil {
		return response.FromError(c, err)
	}

	student, err := h.studentService.Create(c.UserContext(), req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, fiber.Map{"studentId": student.ID})
}

// UpdateStudent handles PUT /api/students/:id
func (h *StudentHandler) UpdateStudent(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	var req services.UpdateStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.Check(req); err != nil {
		return response.FromError(c, err)
	}

	student, err := h.studentService.Update(c.UserContext(), id, req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Student updated successfully", student)
}

// DeleteStudent handles DELETE /api/students/:id
func (h *StudentHandler) DeleteStudent(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	if err := h.studentService.Delete(c.UserContext(), id); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Student deleted successfully", nil)
}

// ListSubjects handles GET /api/students/:id/subjects
func (h *StudentHandler) ListSubjects(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	subjects, err := h.studentService.Subjects(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, subjects)
}

// ListClasses handles GET /api/students/:id/classes
func (h *StudentHandler) ListClasses(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	classes, err := h.studentService.Classes(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, classes)
}

// ListAssignments handles GET /api/students/:id/assignments[?subjectId=]
func (h *StudentHandler) ListAssignments(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	subjectID, err := handlers.QueryID(c, "subjectId", "subject_id")
	if err != nil {
		return response.FromError(c, err)
	}

	assignments, err := h.studentService.Assignments(c.UserContext(), id, subjectID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, assignments)
}

// ListGrades handles GET /api/students/:id/grades
func (h *StudentHandler) ListGrades(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	grades, err := h.studentService.Grades(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, grades)
}

// ListAttendance handles GET /api/students/:id/attendance[?subjectId=]
func (h *StudentHandler) ListAttendance(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	subjectID, err := handlers.QueryID(c, "subjectId", "subject_id")
	if err != nil {
		return response.FromError(c, err)
	}

	attendance, err := h.studentService.Attendance(c.UserContext(), id, subjectID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, attendance)
}

// ListEnrollments handles GET /api/students/:id/enrollments
func (h *StudentHandler) ListEnrollments(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	enrollments, err := h.studentService.Enrollments(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, enrollments)
}
