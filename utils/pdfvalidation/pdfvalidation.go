package pdfvalidation

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/d-valsamis/student-portal/utils/apperror"
	"github.com/ledongthuc/pdf"
)

// PDFLimits defines the validation limits for PDF uploads
type PDFLimits struct {
	MaxFileSizeMB    int    // Maximum file size in MB
	DocumentTypeName string // For error messages (e.g. "assignment", "submission")
}

var (
	AssignmentLimits = PDFLimits{
		MaxFileSizeMB:    10,
		DocumentTypeName: "assignment",
	}

	ClassLimits = PDFLimits{
		MaxFileSizeMB:    10,
		DocumentTypeName: "class material",
	}

	NoteLimits = PDFLimits{
		MaxFileSizeMB:    10,
		DocumentTypeName: "note",
	}

	SubmissionLimits = PDFLimits{
		MaxFileSizeMB:    50,
		DocumentTypeName: "submission",
	}
)

// AllowedContentTypes is the declared-type allow-list for uploads.
var AllowedContentTypes = map[string]bool{
	"application/pdf":   true,
	"application/x-pdf": true,
}

var pdfMagic = []byte("%PDF-")

// MaxBytes returns the size ceiling in bytes.
func (l PDFLimits) MaxBytes() int64 {
	return int64(l.MaxFileSizeMB) * 1024 * 1024
}

// ValidationResult contains the content and metadata of an accepted PDF
type ValidationResult struct {
	Content     []byte
	ContentType string
	PageCount   int
	FileSize    int64
}

// ValidatePDFFile checks an upload against the limits before anything is stored.
// Rejections are validation errors; I/O failures are internal errors.
func ValidatePDFFile(file *multipart.FileHeader, limits PDFLimits) (*ValidationResult, error) {
	// 1. Size, before reading anything
	if file.Size > limits.MaxBytes() {
		return nil, apperror.Validation(fmt.Sprintf("File size exceeds maximum allowed size of %dMB for %s",
			limits.MaxFileSizeMB, limits.DocumentTypeName))
	}
	if file.Size == 0 {
		return nil, apperror.Validation("Uploaded file is empty")
	}

	// 2. Declared content type
	contentType := declaredType(file)
	if !AllowedContentTypes[contentType] {
		return nil, apperror.Validation("Only PDF files are allowed")
	}

	// 3. Extension
	if !strings.EqualFold(filepath.Ext(file.Filename), ".pdf") {
		return nil, apperror.Validation("Only PDF files are allowed")
	}

	// 4. Read content, bounded by the ceiling
	f, err := file.Open()
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("failed to open upload: %w", err))
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, limits.MaxBytes()+1))
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("failed to read upload: %w", err))
	}
	if int64(len(content)) > limits.MaxBytes() {
		return nil, apperror.Validation(fmt.Sprintf("File size exceeds maximum allowed size of %dMB for %s",
			limits.MaxFileSizeMB, limits.DocumentTypeName))
	}

	// 5. Magic bytes
	if !bytes.HasPrefix(content, pdfMagic) {
		return nil, apperror.Validation("Invalid PDF file: missing PDF header")
	}

	return &ValidationResult{
		Content:     content,
		ContentType: "application/pdf",
		PageCount:   PageCount(content),
		FileSize:    int64(len(content)),
	}, nil
}

func declaredType(file *multipart.FileHeader) string {
	mediaType, _, err := mime.ParseMediaType(file.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return strings.ToLower(mediaType)
}

// PageCount returns the number of pages, or 0 when the PDF cannot be parsed.
func PageCount(content []byte) int {
	n, err := getPDFPageCount(content)
	if err != nil {
		return 0
	}
	return n
}

// sanitizePDF removes trailing garbage data after the last %%EOF
func sanitizePDF(content []byte) []byte {
	if len(content) == 0 || !bytes.HasPrefix(content, pdfMagic) {
		return content
	}

	eofMarker := []byte("%%EOF")
	lastEOF := bytes.LastIndex(content, eofMarker)
	if lastEOF == -1 {
		return content
	}

	pdfEnd := lastEOF + len(eofMarker)
	for pdfEnd < len(content) && (content[pdfEnd] == '\n' || content[pdfEnd] == '\r') {
		pdfEnd++
	}

	return content[:pdfEnd]
}

// getPDFPageCount returns the number of pages in a PDF. The parser panics on
// some malformed inputs, so that is turned into an error.
func getPDFPageCount(content []byte) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to parse PDF: %v", r)
		}
	}()

	content = sanitizePDF(content)
	pdfReader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return 0, fmt.Errorf("failed to parse PDF: %w", err)
	}

	return pdfReader.NumPage(), nil
}
