package filestore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"

	"github.com/d-valsamis/student-portal/model"
	"github.com/d-valsamis/student-portal/utils/apperror"
	"github.com/d-valsamis/student-portal/utils/pdfvalidation/pdftest"
)

func newTestService(t *testing.T) (*Service, *LocalStore) {
	t.Helper()
	store, err := NewLocalStore(t.TempDir(), Kinds...)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	return NewService(store), store
}

func TestStoreRetrieveRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	doc := pdftest.Minimal(2)

	fh, err := pdftest.FileHeader(pdftest.Part{Field: "file", Filename: "Lab Report, final.pdf", ContentType: "application/pdf", Content: doc})
	if err != nil {
		t.Fatal(err)
	}

	stored, err := svc.Store(ctx, model.OwnerSubmission, fh)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	if stored.OriginalName != "Lab Report, final.pdf" {
		t.Errorf("OriginalName = %q", stored.OriginalName)
	}
	if !regexp.MustCompile(`^\d+-[0-9a-f-]{36}\.pdf$`).MatchString(stored.StoredName) {
		t.Errorf("StoredName = %q, want <millis>-<uuid>.pdf", stored.StoredName)
	}
	if stored.Size != int64(len(doc)) || stored.OwnerType != model.OwnerSubmission {
		t.Errorf("stored = %+v", stored)
	}

	r, err := svc.Retrieve(ctx, model.OwnerSubmission, stored.StoredName)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	defer r.Close()

	got, _ := io.ReadAll(r)
	if !bytes.Equal(got, doc) {
		t.Error("retrieved bytes differ from upload")
	}
}

func TestStoreRejectsNonPDFBeforeWrite(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	uploads := []pdftest.Part{
		{Field: "file", Filename: "virus.exe", ContentType: "application/octet-stream", Content: []byte("MZ")},
		{Field: "file", Filename: "essay.pdf", ContentType: "application/pdf", Content: []byte("just text")},
		{Field: "file", Filename: "photo.pdf", ContentType: "image/jpeg", Content: pdftest.Minimal(1)},
	}

	for _, kind := range []string{model.OwnerAssignment, model.OwnerClass, model.OwnerSubmission} {
		for _, p := range uploads {
			fh, err := pdftest.FileHeader(p)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := svc.Store(ctx, kind, fh); !apperror.Is(err, apperror.KindValidation) {
				t.Errorf("%s/%s: err = %v, want validation error", kind, p.Filename, err)
			}
		}

		files, err := store.List(ctx, kind)
		if err != nil {
			t.Fatal(err)
		}
		if len(files) != 0 {
			t.Errorf("%s: %d files written for rejected uploads", kind, len(files))
		}
	}
}

func TestStoreSizeCeilingPerKind(t *testing.T) {
	svc, _ := newTestService(t)

	doc := append(pdftest.Minimal(1), bytes.Repeat([]byte(" "), 11*1024*1024)...)
	fh, err := pdftest.FileHeader(pdftest.Part{Field: "file", Filename: "big.pdf", ContentType: "application/pdf", Content: doc})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Store(context.Background(), model.OwnerAssignment, fh); !apperror.Is(err, apperror.KindValidation) {
		t.Errorf("assignment: err = %v, want size rejection", err)
	}
	if _, err := svc.Store(context.Background(), model.OwnerSubmission, fh); err != nil {
		t.Errorf("submission: err = %v, want accepted under 50MB", err)
	}
}

func TestRetrieveMissingAndTraversal(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"missing.pdf", "../../etc/passwd", "..", "a/b.pdf", `..\x.pdf`} {
		if _, err := svc.Retrieve(ctx, model.OwnerClass, name); !apperror.Is(err, apperror.KindNotFound) {
			t.Errorf("Retrieve(%q) err = %v, want not found", name, err)
		}
	}
}

func TestLocalStoreRejectsUnknownKind(t *testing.T) {
	_, store := newTestService(t)

	err := store.Put(context.Background(), "avatars", "x.pdf", strings.NewReader("x"), 1, "application/pdf")
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("err = %v, want ErrUnknownKind", err)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if err := store.Put(ctx, model.OwnerNote, "1-a.pdf", strings.NewReader("%PDF-"), 5, "application/pdf"); err != nil {
		t.Fatal(err)
	}
	if err := svc.Remove(ctx, model.OwnerNote, "1-a.pdf"); err != nil {
		t.Errorf("first Remove: %v", err)
	}
	if err := svc.Remove(ctx, model.OwnerNote, "1-a.pdf"); err != nil {
		t.Errorf("second Remove: %v", err)
	}
}

func TestSanitizeExt(t *testing.T) {
	cases := map[string]string{
		"report.PDF":         ".pdf",
		"archive.tar.gz":     ".gz",
		"noext":              "",
		"evil.p/df":          "",
		"weird.pd f":         "",
		"x.averyverylongext": "",
	}
	for in, want := range cases {
		if got := SanitizeExt(in); got != want {
			t.Errorf("SanitizeExt(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOriginalName(t *testing.T) {
	cases := map[string]string{
		`C:\Users\jane\hw1.pdf`: "hw1.pdf",
		"../../secret.pdf":      "secret.pdf",
		"a\x00b\".pdf":          "ab.pdf",
		"":                      "file",
	}
	for in, want := range cases {
		if got := OriginalName(in); got != want {
			t.Errorf("OriginalName(%q) = %q, want %q", in, got, want)
		}
	}
}
