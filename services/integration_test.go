package services

import (
	"context"
	"mime/multipart"
	"testing"
	"time"

	"github.com/d-valsamis/student-portal/database/dbtest"
	"github.com/d-valsamis/student-portal/model"
	"github.com/d-valsamis/student-portal/services/filestore"
	"github.com/d-valsamis/student-portal/utils/apperror"
	"github.com/d-valsamis/student-portal/utils/auth"
	"github.com/d-valsamis/student-portal/utils/pdfvalidation/pdftest"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	store *filestore.LocalStore
	files *filestore.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	store, err := filestore.NewLocalStore(t.TempDir(), filestore.Kinds...)
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{db: db, store: store, files: filestore.NewService(store)}
}

func (f *fixture) student(t *testing.T, username string) *model.Student {
	t.Helper()
	s := &model.Student{Username: username, Email: username + "@example.com", Name: "Student " + username, Password: "x"}
	if err := f.db.Create(s).Error; err != nil {
		t.Fatal(err)
	}
	return s
}

func (f *fixture) subjectWithAssignment(t *testing.T, due time.Time) (*model.Subject, *model.Assignment) {
	t.Helper()
	subject := &model.Subject{Name: "Physics"}
	if err := f.db.Create(subject).Error; err != nil {
		t.Fatal(err)
	}
	assignment := &model.Assignment{SubjectID: subject.ID, Title: "Lab 1", DueDate: due}
	if err := f.db.Create(assignment).Error; err != nil {
		t.Fatal(err)
	}
	return subject, assignment
}

func (f *fixture) enroll(t *testing.T, studentID, subjectID uint) {
	t.Helper()
	if err := f.db.Create(&model.Enrollment{StudentID: studentID, SubjectID: subjectID}).Error; err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) blobs(t *testing.T, kind string) int {
	t.Helper()
	objects, err := f.store.List(context.Background(), kind)
	if err != nil {
		t.Fatal(err)
	}
	return len(objects)
}

func pdfUpload(t *testing.T, name string) *multipart.FileHeader {
	t.Helper()
	fh, err := pdftest.FileHeader(pdftest.Part{Field: "file", Filename: name, ContentType: "application/pdf", Content: pdftest.Minimal(1)})
	if err != nil {
		t.Fatal(err)
	}
	return fh
}

func TestCreateStudentDuplicateConflict(t *testing.T) {
	f := newFixture(t)
	svc := NewStudentService(f.db, f.files)
	ctx := context.Background()

	req := CreateStudentRequest{Name: "Ann", Username: "ann", Email: "ann@example.com", Password: "secret"}
	created, err := svc.Create(ctx, req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Password == "secret" || !auth.IsBcryptHash(created.Password) {
		t.Error("password stored without hashing")
	}

	req.Email = "other@example.com"
	if _, err := svc.Create(ctx, req); !apperror.Is(err, apperror.KindConflict) {
		t.Errorf("duplicate username: err = %v, want conflict", err)
	}
}

func TestGradeUpsertKeepsOneRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	grades := NewGradeService(f.db)

	student := f.student(t, "gina")
	subject, assignment := f.subjectWithAssignment(t, time.Now().Add(24*time.Hour))
	f.enroll(t, student.ID, subject.ID)

	subs := NewSubmissionService(f.db, f.files)
	if _, err := subs.Submit(ctx, Caller{ID: student.ID, Role: auth.RoleStudent},
		SubmitRequest{AssignmentID: assignment.ID, StudentID: student.ID}, pdfUpload(t, "work.pdf")); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	first, second := 72.0, 91.0
	if _, err := grades.Upsert(ctx, GradeRequest{AssignmentID: assignment.ID, StudentID: student.ID, Score: &first}); err != nil {
		t.Fatalf("first Upsert: %v", err)
	}
	g, err := grades.Upsert(ctx, GradeRequest{AssignmentID: assignment.ID, StudentID: student.ID, Score: &second, Feedback: "Great"})
	if err != nil {
		t.Fatalf("second Upsert: %v", err)
	}
	if g.Score != 91 || g.LetterGrade != "A" || g.Feedback != "Great" {
		t.Errorf("grade = %+v", g)
	}

	var count int64
	f.db.Model(&model.Grade{}).Where("assignment_id = ? AND student_id = ?", assignment.ID, student.ID).Count(&count)
	if count != 1 {
		t.Errorf("grade rows = %d, want 1", count)
	}

	var submission model.Submission
	f.db.Where("assignment_id = ? AND student_id = ?", assignment.ID, student.ID).First(&submission)
	if submission.Status != model.SubmissionGraded {
		t.Errorf("submission status = %q, want graded", submission.Status)
	}

	rows, err := grades.ListByAssignment(ctx, assignment.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Score == nil || *rows[0].Score != 91 {
		t.Errorf("ListByAssignment = %+v", rows)
	}
}

func TestSubmitAccessAndReplace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	subs := NewSubmissionService(f.db, f.files)

	owner := f.student(t, "owen")
	other := f.student(t, "olga")
	subject, assignment := f.subjectWithAssignment(t, time.Now().Add(time.Hour))
	req := SubmitRequest{AssignmentID: assignment.ID, StudentID: owner.ID}

	if _, err := subs.Submit(ctx, Caller{ID: owner.ID, Role: auth.RoleStudent}, req, pdfUpload(t, "a.pdf")); !apperror.Is(err, apperror.KindForbidden) {
		t.Errorf("not enrolled: err = %v, want forbidden", err)
	}

	f.enroll(t, owner.ID, subject.ID)

	if _, err := subs.Submit(ctx, Caller{ID: other.ID, Role: auth.RoleStudent}, req, pdfUpload(t, "a.pdf")); !apperror.Is(err, apperror.KindForbidden) {
		t.Errorf("other student: err = %v, want forbidden", err)
	}

	first, err := subs.Submit(ctx, Caller{ID: owner.ID, Role: auth.RoleStudent}, req, pdfUpload(t, "draft.pdf"))
	if err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	second, err := subs.Submit(ctx, Caller{ID: owner.ID, Role: auth.RoleStudent}, req, pdfUpload(t, "final.pdf"))
	if err != nil {
		t.Fatalf("second Submit: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("resubmission created a new row: %d != %d", first.ID, second.ID)
	}
	if second.File == nil || second.File.OriginalName != "final.pdf" {
		t.Errorf("file = %+v", second.File)
	}
	if n := f.blobs(t, model.OwnerSubmission); n != 1 {
		t.Errorf("submission blobs = %d, want 1", n)
	}

	if _, err := subs.Get(ctx, Caller{ID: other.ID, Role: auth.RoleStudent}, second.ID); !apperror.Is(err, apperror.KindForbidden) {
		t.Errorf("other student Get: err = %v", err)
	}
	if _, err := subs.Get(ctx, Caller{ID: 1, Role: auth.RoleAdmin}, second.ID); err != nil {
		t.Errorf("admin Get: %v", err)
	}
}

func TestSubjectDeleteConflictAndCascade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	subjects := NewSubjectService(f.db, f.files)
	classes := NewClassService(f.db, f.files)

	subject, _ := f.subjectWithAssignment(t, time.Now())
	class, err := classes.Create(ctx, ClassRequest{Code: "PHY1", Name: "Optics", SubjectID: subject.ID})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := classes.AddFiles(ctx, class.ID, []*multipart.FileHeader{pdfUpload(t, "slides.pdf")}); err != nil {
		t.Fatal(err)
	}

	if err := subjects.Delete(ctx, subject.ID, false); !apperror.Is(err, apperror.KindConflict) {
		t.Fatalf("plain delete: err = %v, want conflict", err)
	}
	if err := subjects.Delete(ctx, subject.ID, true); err != nil {
		t.Fatalf("cascade delete: %v", err)
	}

	if _, err := subjects.Get(ctx, subject.ID); !apperror.Is(err, apperror.KindNotFound) {
		t.Errorf("subject still present: %v", err)
	}
	var remaining int64
	f.db.Model(&model.StoredFile{}).Count(&remaining)
	if remaining != 0 || f.blobs(t, model.OwnerClass) != 0 {
		t.Errorf("files left behind: rows=%d blobs=%d", remaining, f.blobs(t, model.OwnerClass))
	}
}

func TestStudentViews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	students := NewStudentService(f.db, f.files)

	student := f.student(t, "vera")
	subject, overdue := f.subjectWithAssignment(t, time.Now().Add(-48*time.Hour))
	upcoming := &model.Assignment{SubjectID: subject.ID, Title: "Lab 2", DueDate: time.Now().Add(48 * time.Hour)}
	f.db.Create(upcoming)
	f.enroll(t, student.ID, subject.ID)

	open := datatypes.Date(time.Now().AddDate(0, 0, -1))
	closeDate := datatypes.Date(time.Now().AddDate(0, 0, 1))
	f.db.Create(&model.Class{Code: "PHY2", Name: "Lab", SubjectID: subject.ID, OpeningDate: &open, ClosingDate: &closeDate})

	rows, err := students.Assignments(ctx, student.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].ID != overdue.ID || rows[0].DisplayStatus != DisplayOverdue || rows[1].DisplayStatus != DisplayPending {
		t.Errorf("assignments = %+v", rows)
	}

	attendance, err := students.Attendance(ctx, student.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(attendance) != 1 || attendance[0].Status != model.AttendancePresent {
		t.Errorf("attendance = %+v", attendance)
	}

	if _, err := students.Grades(ctx, 9999); !apperror.Is(err, apperror.KindNotFound) {
		t.Errorf("unknown student: err = %v", err)
	}

	if err := students.Delete(ctx, student.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	var enrollments int64
	f.db.Model(&model.Enrollment{}).Where("student_id = ?", student.ID).Count(&enrollments)
	if enrollments != 0 {
		t.Errorf("enrollments left = %d", enrollments)
	}
}
