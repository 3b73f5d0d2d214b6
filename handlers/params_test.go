package handlers

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/d-valsamis/student-portal/model"
	"github.com/d-valsamis/student-portal/services/filestore"
	"github.com/d-valsamis/student-portal/utils/middleware"
	"github.com/gofiber/fiber/v2"
)

// ctxStore serves one blob whose reader fails once the Open context is done,
// the way an S3 GetObject body does.
type ctxStore struct {
	data []byte
}

func (s ctxStore) Put(context.Context, string, string, io.Reader, int64, string) error { return nil }
func (s ctxStore) Delete(context.Context, string, string) error                      { return nil }
func (s ctxStore) List(context.Context, string) ([]filestore.ObjectInfo, error)      { return nil, nil }

func (s ctxStore) Open(ctx context.Context, _, _ string) (io.ReadCloser, error) {
	return &ctxReader{ctx: ctx, r: bytes.NewReader(s.data)}, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

func (r *ctxReader) Close() error { return nil }

func TestSendFileStreamsAfterRequestDeadlineReleased(t *testing.T) {
	doc := bytes.Repeat([]byte("%PDF-1.4 streamed body\n"), 4096)
	svc := filestore.NewService(ctxStore{data: doc})

	app := fiber.New()
	app.Use(middleware.RequestTimeout(5 * time.Second))
	app.Get("/download", func(c *fiber.Ctx) error {
		r, err := svc.Retrieve(c.UserContext(), model.OwnerAssignment, "1-a.pdf")
		if err != nil {
			return err
		}
		f := &model.StoredFile{OriginalName: "Week 1.pdf", ContentType: "application/pdf", Size: int64(len(doc))}
		return SendFile(c, f, r, "")
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/download", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	got, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !bytes.Equal(got, doc) {
		t.Errorf("body = %d bytes, want %d", len(got), len(doc))
	}
}
