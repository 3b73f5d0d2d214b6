package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/d-valsamis/student-portal/services/filestore"
	"github.com/d-valsamis/student-portal/utils/auth"
	"github.com/d-valsamis/student-portal/utils/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// downStore fails its health check and hands out a dry-run connection, so
// routes can be wired and authenticated without a database.
type downStore struct {
	db *gorm.DB
}

func (downStore) Init() error                           { return nil }
func (downStore) Close() error                          { return nil }
func (downStore) HealthCheck(ctx context.Context) error { return errors.New("connection refused") }
func (s downStore) GetDB() *gorm.DB                     { return s.db }

func newTestApp(t *testing.T) (*fiber.App, *auth.JWTManager) {
	t.Helper()
	store, err := filestore.NewLocalStore(t.TempDir(), filestore.Kinds...)
	if err != nil {
		t.Fatal(err)
	}
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=127.0.0.1 port=1 user=test dbname=test sslmode=disable"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	jwtManager := auth.NewJWTManager(auth.JWTConfig{Secret: "test-secret", Issuer: "student-portal"})

	app := fiber.New(fiber.Config{ErrorHandler: response.ErrorHandler})
	SetupRoutes(app, Dependencies{
		Store:      downStore{db: db},
		JWTManager: jwtManager,
		Files:      filestore.NewService(store),
	})
	return app, jwtManager
}

func decode(t *testing.T, body io.Reader) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.NewDecoder(body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestPingReportsDatabaseDown(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app, _ := newTestApp(t)

	for _, route := range []struct{ method, path string }{
		{"GET", "/api/students"},
		{"GET", "/api/students/1/grades"},
		{"GET", "/api/subjects"},
		{"POST", "/api/submissions"},
		{"POST", "/api/grades"},
		{"GET", "/api/enrollments"},
		{"GET", "/api/auth/me"},
	} {
		resp, err := app.Test(httptest.NewRequest(route.method, route.path, nil))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != fiber.StatusUnauthorized {
			t.Errorf("%s %s: status = %d, want 401", route.method, route.path, resp.StatusCode)
		}
		body := decode(t, resp.Body)
		if body["success"] != false {
			t.Errorf("%s %s: body = %v", route.method, route.path, body)
		}
	}
}

func TestStudentTokenCannotReachAdminRoutes(t *testing.T) {
	app, jwtManager := newTestApp(t)
	token, _, _, err := jwtManager.GenerateToken(7, "student1", auth.RoleStudent)
	if err != nil {
		t.Fatal(err)
	}

	for _, route := range []struct{ method, path string }{
		{"GET", "/api/students"},
		{"GET", "/api/students/8/grades"},
		{"POST", "/api/subjects"},
		{"DELETE", "/api/classes/1"},
		{"GET", "/api/admin/audit-logs"},
	} {
		req := httptest.NewRequest(route.method, route.path, strings.NewReader("{}"))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != fiber.StatusForbidden {
			t.Errorf("%s %s: status = %d, want 403", route.method, route.path, resp.StatusCode)
		}
	}
}

func TestInvalidRouteParamIsValidationError(t *testing.T) {
	app, jwtManager := newTestApp(t)
	token, _, _, err := jwtManager.GenerateToken(1, "admin", auth.RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("GET", "/api/subjects/abc", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/nope", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	body := decode(t, resp.Body)
	if body["success"] != false || body["error"] == nil {
		t.Errorf("body = %v", body)
	}
}
