package services

import (
	"context"
	"errors"
	"mime/multipart"
	"sync"
	"testing"
	"time"

	"github.com/d-valsamis/student-portal/model"
	"github.com/d-valsamis/student-portal/utils/apperror"
	"github.com/d-valsamis/student-portal/utils/auth"
	"gorm.io/gorm"
)

// failFileInserts makes every INSERT into stored_files fail on f.db.
func (f *fixture) failFileInserts(t *testing.T) {
	t.Helper()
	err := f.db.Callback().Create().Before("gorm:create").Register("test:fail_stored_files", func(tx *gorm.DB) {
		if tx.Statement.Schema != nil && tx.Statement.Schema.Table == "stored_files" {
			tx.AddError(errors.New("insert into stored_files failed"))
		}
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestUploadRollbackRemovesBlob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	student := f.student(t, "rita")
	subject, assignment := f.subjectWithAssignment(t, time.Now().Add(time.Hour))
	f.enroll(t, student.ID, subject.ID)
	class := &model.Class{Code: "PHY1", Name: "Lecture", SubjectID: subject.ID}
	if err := f.db.Create(class).Error; err != nil {
		t.Fatal(err)
	}

	f.failFileInserts(t)

	cases := []struct {
		name   string
		kind   string
		upload func() error
	}{
		{"submission", model.OwnerSubmission, func() error {
			req := SubmitRequest{AssignmentID: assignment.ID, StudentID: student.ID}
			_, err := NewSubmissionService(f.db, f.files).Submit(ctx, Caller{ID: student.ID, Role: auth.RoleStudent}, req, pdfUpload(t, "lab.pdf"))
			return err
		}},
		{"class files", model.OwnerClass, func() error {
			uploads := []*multipart.FileHeader{pdfUpload(t, "slides.pdf"), pdfUpload(t, "notes.pdf")}
			_, err := NewClassService(f.db, f.files).AddFiles(ctx, class.ID, uploads)
			return err
		}},
		{"assignment pdf", model.OwnerAssignment, func() error {
			_, err := NewAssignmentService(f.db, f.files).ReplacePDF(ctx, assignment.ID, pdfUpload(t, "brief.pdf"))
			return err
		}},
		{"note", model.OwnerNote, func() error {
			req := NoteRequest{ClassID: class.ID, Title: "Week 1"}
			_, err := NewNoteService(f.db, f.files).Create(ctx, req, pdfUpload(t, "week1.pdf"))
			return err
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.upload(); err == nil {
				t.Fatal("upload succeeded with failing stored_files insert")
			}
			if n := f.blobs(t, tc.kind); n != 0 {
				t.Errorf("%s blobs = %d, want 0 after rollback", tc.kind, n)
			}
		})
	}

	var notes int64
	f.db.Model(&model.Note{}).Count(&notes)
	if notes != 0 {
		t.Errorf("notes = %d, want the note rolled back with its file", notes)
	}
}

func TestConcurrentReplacePDFKeepsOneFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	assignments := NewAssignmentService(f.db, f.files)
	_, assignment := f.subjectWithAssignment(t, time.Now().Add(time.Hour))

	const writers = 4
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		upload := pdfUpload(t, "brief.pdf")
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := assignments.ReplacePDF(ctx, assignment.ID, upload)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("ReplacePDF: %v", err)
		}
	}

	var rows int64
	f.db.Model(&model.StoredFile{}).
		Where("owner_type = ? AND owner_id = ?", model.OwnerAssignment, assignment.ID).
		Count(&rows)
	if rows != 1 {
		t.Errorf("stored_files rows = %d, want 1", rows)
	}
	if n := f.blobs(t, model.OwnerAssignment); n != 1 {
		t.Errorf("assignment blobs = %d, want 1", n)
	}
}

func TestLoginUnknownUserStillComparesHash(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewAuthService(f.db, auth.NewJWTManager(auth.JWTConfig{Secret: "test-secret"}), auth.NewBlacklistService(f.db))

	var hashes []string
	orig := verifyPassword
	verifyPassword = func(hash, password string) error {
		hashes = append(hashes, hash)
		return orig(hash, password)
	}
	t.Cleanup(func() { verifyPassword = orig })

	req := LoginRequest{Username: "nobody", Password: "secret123"}
	if _, err := svc.StudentLogin(ctx, req); !apperror.Is(err, apperror.KindUnauthorized) {
		t.Errorf("StudentLogin: err = %v, want unauthorized", err)
	}
	if _, err := svc.AdminLogin(ctx, req); !apperror.Is(err, apperror.KindUnauthorized) {
		t.Errorf("AdminLogin: err = %v, want unauthorized", err)
	}

	if len(hashes) != 2 {
		t.Fatalf("password comparisons = %d, want 2", len(hashes))
	}
	for _, h := range hashes {
		if h != missingUserHash() {
			t.Errorf("compared against %q, want the placeholder hash", h)
		}
	}
}
