package pdfvalidation

import (
	"bytes"
	"testing"

	"github.com/d-valsamis/student-portal/utils/apperror"
	"github.com/d-valsamis/student-portal/utils/pdfvalidation/pdftest"
)

func header(t *testing.T, name, contentType string, content []byte) *ValidationResult {
	t.Helper()
	fh, err := pdftest.FileHeader(pdftest.Part{Field: "file", Filename: name, ContentType: contentType, Content: content})
	if err != nil {
		t.Fatalf("FileHeader: %v", err)
	}
	res, err := ValidatePDFFile(fh, AssignmentLimits)
	if err != nil {
		t.Fatalf("ValidatePDFFile(%s, %s) = %v", name, contentType, err)
	}
	return res
}

func reject(t *testing.T, name, contentType string, content []byte, limits PDFLimits) {
	t.Helper()
	fh, err := pdftest.FileHeader(pdftest.Part{Field: "file", Filename: name, ContentType: contentType, Content: content})
	if err != nil {
		t.Fatalf("FileHeader: %v", err)
	}
	if _, err := ValidatePDFFile(fh, limits); !apperror.Is(err, apperror.KindValidation) {
		t.Errorf("ValidatePDFFile(%s, %s) err = %v, want validation error", name, contentType, err)
	}
}

func TestValidatePDFFileAccepts(t *testing.T) {
	doc := pdftest.Minimal(3)

	res := header(t, "Homework.PDF", "application/pdf", doc)
	if !bytes.Equal(res.Content, doc) {
		t.Error("content changed during validation")
	}
	if res.PageCount != 3 {
		t.Errorf("PageCount = %d, want 3", res.PageCount)
	}
}

func TestValidatePDFFileRejects(t *testing.T) {
	doc := pdftest.Minimal(1)

	reject(t, "notes.txt", "text/plain", []byte("hello"), AssignmentLimits)
	reject(t, "fake.pdf", "application/pdf", []byte("MZ\x90\x00 not a pdf"), AssignmentLimits)
	reject(t, "doc.docx", "application/pdf", doc, AssignmentLimits)
	reject(t, "doc.pdf", "image/png", doc, AssignmentLimits)
	reject(t, "empty.pdf", "application/pdf", nil, AssignmentLimits)
}

func TestValidatePDFFileSizeCeiling(t *testing.T) {
	tiny := PDFLimits{MaxFileSizeMB: 0, DocumentTypeName: "test"}
	reject(t, "doc.pdf", "application/pdf", pdftest.Minimal(1), tiny)

	if SubmissionLimits.MaxBytes() != 50*1024*1024 || ClassLimits.MaxBytes() != 10*1024*1024 {
		t.Error("unexpected ceilings")
	}
}

func TestPageCountUnparseable(t *testing.T) {
	if n := PageCount([]byte("%PDF-1.4\ngarbage")); n != 0 {
		t.Errorf("PageCount = %d, want 0", n)
	}
}
