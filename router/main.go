package router

import (
	"github.com/d-valsamis/student-portal/database"
	"github.com/d-valsamis/student-portal/handlers"
	admin_handlers "github.com/d-valsamis/student-portal/handlers/admin"
	assignment_handlers "github.com/d-valsamis/student-portal/handlers/assignment"
	attendance_handlers "github.com/d-valsamis/student-portal/handlers/attendance"
	auth_handlers "github.com/d-valsamis/student-portal/handlers/auth"
	class_handlers "github.com/d-valsamis/student-portal/handlers/class"
	enrollment_handlers "github.com/d-valsamis/student-portal/handlers/enrollment"
	grade_handlers "github.com/d-valsamis/student-portal/handlers/grade"
	note_handlers "github.com/d-valsamis/student-portal/handlers/note"
	student_handlers "github.com/d-valsamis/student-portal/handlers/student"
	subject_handlers "github.com/d-valsamis/student-portal/handlers/subject"
	submission_handlers "github.com/d-valsamis/student-portal/handlers/submission"
	"github.com/d-valsamis/student-portal/services"
	"github.com/d-valsamis/student-portal/services/filestore"
	"github.com/d-valsamis/student-portal/utils"
	"github.com/d-valsamis/student-portal/utils/auth"
	"github.com/d-valsamis/student-portal/utils/middleware"
	"github.com/d-valsamis/student-portal/web"
	"github.com/gofiber/fiber/v2"
)

// Dependencies are the shared components the routes are built from.
// BruteForce may be nil, in which case login lockout is off.
type Dependencies struct {
	Store      database.Storage
	JWTManager *auth.JWTManager
	Files      *filestore.Service
	BruteForce *middleware.BruteForceProtection
}

func SetupRoutes(app *fiber.App, deps Dependencies) {
	db := deps.Store.GetDB()
	store := deps.Store

	blacklist := auth.NewBlacklistService(db)
	authMiddleware := middleware.NewAuthMiddleware(deps.JWTManager, blacklist)

	authHandler := auth_handlers.NewAuthHandler(services.NewAuthService(db, deps.JWTManager, blacklist), deps.BruteForce)
	studentHandler := student_handlers.NewStudentHandler(services.NewStudentService(db, deps.Files))
	subjectHandler := subject_handlers.NewSubjectHandler(services.NewSubjectService(db, deps.Files))
	classHandler := class_handlers.NewClassHandler(services.NewClassService(db, deps.Files))
	assignmentHandler := assignment_handlers.NewAssignmentHandler(services.NewAssignmentService(db, deps.Files))
	submissionHandler := submission_handlers.NewSubmissionHandler(services.NewSubmissionService(db, deps.Files))
	gradeHandler := grade_handlers.NewGradeHandler(services.NewGradeService(db))
	attendanceHandler := attendance_handlers.NewAttendanceHandler(services.NewAttendanceService(db))
	enrollmentHandler := enrollment_handlers.NewEnrollmentHandler(services.NewEnrollmentService(db))
	noteHandler := note_handlers.NewNoteHandler(services.NewNoteService(db, deps.Files))

	requireAdmin := authMiddleware.RequireAdmin()
	required := authMiddleware.Required()
	selfOrAdmin := authMiddleware.RequireSelfOrAdmin("id")
	audit := func(resource string) fiber.Handler {
		return middleware.AdminAuditLog(db, resource)
	}

	// Health check endpoint (public)
	app.Get("/ping", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, store))

	// HTML pages
	web.RegisterPages(app)

	api := app.Group("/api")

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.Post("/login", deps.BruteForce.CheckLocked(auth_handlers.ScopeStudentLogin), authHandler.StudentLogin)
	authGroup.Post("/logout", required, authHandler.Logout)
	authGroup.Get("/me", required, authHandler.Me)

	// Admin routes
	adminGroup := api.Group("/admin")
	adminGroup.Post("/login", deps.BruteForce.CheckLocked(auth_handlers.ScopeAdminLogin), authHandler.AdminLogin)
	adminGroup.Post("/logout", requireAdmin, authHandler.Logout)
	adminGroup.Get("/audit-logs", requireAdmin, utils.MakeHTTPHandleFunc(admin_handlers.ListAuditLogs, store))
	adminGroup.Get("/audit-logs/:id", requireAdmin, utils.MakeHTTPHandleFunc(admin_handlers.GetAuditLog, store))

	// Students
	students := api.Group("/students")
	students.Get("/", requireAdmin, studentHandler.ListStudents)
	students.Post("/", requireAdmin, audit("students"), studentHandler.CreateStudent)
	students.Get("/:id", required, selfOrAdmin, studentHandler.GetStudent)
	students.Put("/:id", requireAdmin, audit("students"), studentHandler.UpdateStudent)
	students.Delete("/:id", requireAdmin, audit("students"), studentHandler.DeleteStudent)
	students.Get("/:id/subjects", required, selfOrAdmin, studentHandler.ListSubjects)
	students.Get("/:id/classes", required, selfOrAdmin, studentHandler.ListClasses)
	students.Get("/:id/assignments", required, selfOrAdmin, studentHandler.ListAssignments)
	students.Get("/:id/grades", required, selfOrAdmin, studentHandler.ListGrades)
	students.Get("/:id/attendance", required, selfOrAdmin, studentHandler.ListAttendance)
	students.Get("/:id/enrollments", required, selfOrAdmin, studentHandler.ListEnrollments)

	// Subjects
	subjects := api.Group("/subjects")
	subjects.Get("/", required, subjectHandler.ListSubjects)
	subjects.Get("/:id", required, subjectHandler.GetSubject)
	subjects.Get("/:id/classes", required, subjectHandler.ListClasses)
	subjects.Post("/", requireAdmin, audit("subjects"), subjectHandler.CreateSubject)
	subjects.Put("/:id", requireAdmin, audit("subjects"), subjectHandler.UpdateSubject)
	subjects.Delete("/:id", requireAdmin, audit("subjects"), subjectHandler.DeleteSubject)

	// Classes
	classes := api.Group("/classes")
	classes.Get("/", required, classHandler.ListClasses)
	classes.Get("/:id", required, classHandler.GetClass)
	classes.Post("/", requireAdmin, audit("classes"), classHandler.CreateClass)
	classes.Put("/:id", requireAdmin, audit("classes"), classHandler.UpdateClass)
	classes.Delete("/:id", requireAdmin, audit("classes"), classHandler.DeleteClass)
	classes.Post("/:id/files", requireAdmin, audit("class_files"), classHandler.UploadFiles)
	classes.Get("/:id/files", required, classHandler.ListFiles)
	classes.Get("/:id/files/:filename", required, classHandler.DownloadFile)
	classes.Delete("/:id/files/:fileId", requireAdmin, audit("class_files"), classHandler.DeleteFile)
	classes.Get("/:id/notes", required, classHandler.ListNotes)

	// Assignments
	assignments := api.Group("/assignments")
	assignments.Get("/", required, assignmentHandler.ListAssignments)
	assignments.Get("/:id", required, assignmentHandler.GetAssignment)
	assignments.Post("/", requireAdmin, audit("assignments"), assignmentHandler.CreateAssignment)
	assignments.Put("/:id", requireAdmin, audit("assignments"), assignmentHandler.UpdateAssignment)
	assignments.Delete("/:id", requireAdmin, audit("assignments"), assignmentHandler.DeleteAssignment)
	assignments.Post("/:id/pdf", requireAdmin, audit("assignment_files"), assignmentHandler.UploadPDF)
	assignments.Get("/:id/files/:filename", required, assignmentHandler.DownloadFile)
	assignments.Get("/:id/submissions", requireAdmin, assignmentHandler.ListSubmissions)

	// Submissions
	submissions := api.Group("/submissions", required)
	submissions.Post("/", submissionHandler.Submit)
	submissions.Get("/:id", submissionHandler.GetSubmission)
	submissions.Get("/:id/files/:filename", submissionHandler.DownloadFile)

	// Grades
	api.Get("/grades", requireAdmin, gradeHandler.ListGrades)
	api.Post("/grades", requireAdmin, audit("grades"), gradeHandler.UpsertGrade)

	// Attendance
	api.Post("/attendance", requireAdmin, audit("attendance"), attendanceHandler.RecordAttendance)

	// Enrollments
	enrollments := api.Group("/enrollments", requireAdmin)
	enrollments.Get("/", enrollmentHandler.ListEnrollments)
	enrollments.Post("/", audit("enrollments"), enrollmentHandler.CreateEnrollment)
	enrollments.Delete("/:id", audit("enrollments"), enrollmentHandler.DeleteEnrollment)

	// Notes
	notes := api.Group("/notes")
	notes.Post("/", requireAdmin, audit("notes"), noteHandler.CreateNote)
	notes.Get("/:id/file", required, noteHandler.DownloadPDF)
	notes.Delete("/:id", requireAdmin, audit("notes"), noteHandler.DeleteNote)
}
