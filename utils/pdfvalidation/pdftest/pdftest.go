// Package pdftest builds small PDF documents and multipart uploads for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"strings"
)

// Minimal returns a well-formed PDF with the given number of empty pages.
func Minimal(pages int) []byte {
	if pages < 1 {
		pages = 1
	}

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
	}
	kids := make([]string, pages)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pages))
	for i := 0; i < pages; i++ {
		objects = append(objects, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return buf.Bytes()
}

// Part is one file field of a multipart body.
type Part struct {
	Field       string
	Filename    string
	ContentType string
	Content     []byte
}

// Body encodes fields and files as multipart/form-data and returns the body
// and its Content-Type header.
func Body(fields map[string]string, parts ...Part) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range fields {
		w.WriteField(k, v)
	}
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, p.Field, p.Filename))
		h.Set("Content-Type", p.ContentType)
		pw, _ := w.CreatePart(h)
		pw.Write(p.Content)
	}
	w.Close()

	return &buf, w.FormDataContentType()
}

// FileHeader parses a single-part upload into a *multipart.FileHeader.
func FileHeader(p Part) (*multipart.FileHeader, error) {
	body, contentType := Body(nil, p)

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", contentType)
	if err := req.ParseMultipartForm(64 << 20); err != nil {
		return nil, err
	}

	files := req.MultipartForm.File[p.Field]
	if len(files) == 0 {
		return nil, fmt.Errorf("no file in field %q", p.Field)
	}
	return files[0], nil
}
