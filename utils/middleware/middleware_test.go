package middleware

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/d-valsamis/student-portal/utils/auth"
	"github.com/d-valsamis/student-portal/utils/response"
	"github.com/gofiber/fiber/v2"
)

type fakeRevocations map[string]bool

func (f fakeRevocations) IsTokenRevoked(_ context.Context, jti string) (bool, error) {
	return f[jti], nil
}

func newTestApp(t *testing.T, revoked fakeRevocations) (*fiber.App, *auth.JWTManager) {
	t.Helper()
	jwtManager := auth.NewJWTManager(auth.JWTConfig{Secret: "test-secret", Issuer: "student-portal"})
	m := NewAuthMiddleware(jwtManager, revoked)

	app := fiber.New()
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }
	app.Get("/me", m.Required(), ok)
	app.Get("/admin", m.RequireAdmin(), ok)
	app.Get("/coursework", m.Required(), m.RequireRole(auth.RoleStudent), ok)
	app.Get("/students/:id", m.Required(), m.RequireSelfOrAdmin("id"), ok)
	return app, jwtManager
}

func doGet(t *testing.T, app *fiber.App, path, authorization string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set(fiber.HeaderAuthorization, authorization)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp.StatusCode
}

func token(t *testing.T, m *auth.JWTManager, id uint, role string) (string, string) {
	t.Helper()
	tok, jti, _, err := m.GenerateToken(id, "user", role)
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + tok, jti
}

func TestRequiredStatuses(t *testing.T) {
	revoked := fakeRevocations{}
	app, jwtManager := newTestApp(t, revoked)

	student, _ := token(t, jwtManager, 7, auth.RoleStudent)
	revokedTok, jti := token(t, jwtManager, 8, auth.RoleStudent)
	revoked[jti] = true

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic abc", fiber.StatusForbidden},
		{"garbage", "Bearer not.a.jwt", fiber.StatusForbidden},
		{"revoked", revokedTok, fiber.StatusForbidden},
		{"valid", student, fiber.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := doGet(t, app, "/me", tc.header); got != tc.want {
				t.Errorf("status = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	app, jwtManager := newTestApp(t, nil)
	student, _ := token(t, jwtManager, 1, auth.RoleStudent)
	admin, _ := token(t, jwtManager, 1, auth.RoleAdmin)

	if got := doGet(t, app, "/admin", ""); got != fiber.StatusUnauthorized {
		t.Errorf("no token: status = %d", got)
	}
	if got := doGet(t, app, "/admin", student); got != fiber.StatusForbidden {
		t.Errorf("student: status = %d", got)
	}
	if got := doGet(t, app, "/admin", admin); got != fiber.StatusOK {
		t.Errorf("admin: status = %d", got)
	}
}

func TestRequireRole(t *testing.T) {
	app, jwtManager := newTestApp(t, nil)
	student, _ := token(t, jwtManager, 3, auth.RoleStudent)
	admin, _ := token(t, jwtManager, 3, auth.RoleAdmin)

	if got := doGet(t, app, "/coursework", student); got != fiber.StatusOK {
		t.Errorf("student: status = %d, want 200", got)
	}
	if got := doGet(t, app, "/coursework", admin); got != fiber.StatusForbidden {
		t.Errorf("admin: status = %d, want 403", got)
	}
	if got := doGet(t, app, "/coursework", ""); got != fiber.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", got)
	}
}

func TestRequireSelfOrAdmin(t *testing.T) {
	app, jwtManager := newTestApp(t, nil)
	student, _ := token(t, jwtManager, 7, auth.RoleStudent)
	admin, _ := token(t, jwtManager, 1, auth.RoleAdmin)

	if got := doGet(t, app, "/students/7", student); got != fiber.StatusOK {
		t.Errorf("self: status = %d", got)
	}
	if got := doGet(t, app, "/students/8", student); got != fiber.StatusForbidden {
		t.Errorf("other: status = %d", got)
	}
	if got := doGet(t, app, "/students/8", admin); got != fiber.StatusOK {
		t.Errorf("admin: status = %d", got)
	}
}

type memoryStore struct {
	values map[string]int64
	ttls   map[string]time.Duration
	fail   bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]int64{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) Exists(_ context.Context, key string) (bool, error) {
	if m.fail {
		return false, errors.New("redis down")
	}
	_, ok := m.ttls[key]
	return ok, nil
}

func (m *memoryStore) TTL(_ context.Context, key string) (time.Duration, error) {
	return m.ttls[key], nil
}

func (m *memoryStore) IncrementWithExpiry(_ context.Context, key string, exp time.Duration) (int64, error) {
	m.values[key]++
	if m.values[key] == 1 {
		m.ttls[key] = exp
	}
	return m.values[key], nil
}

func (m *memoryStore) Set(_ context.Context, key string, _ interface{}, exp time.Duration) error {
	m.ttls[key] = exp
	return nil
}

func (m *memoryStore) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
		delete(m.ttls, k)
	}
	return nil
}

func TestBruteForceLockout(t *testing.T) {
	store := newMemoryStore()
	bf := NewBruteForceProtection(store)

	app := fiber.New()
	app.Post("/login", bf.CheckLocked("student"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	post := func() int {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/login", nil))
		if err != nil {
			t.Fatal(err)
		}
		return resp.StatusCode
	}

	// app.Test requests come from 0.0.0.0
	ip := "0.0.0.0"
	for i := 0; i < 4; i++ {
		bf.RecordFailedAttempt(context.Background(), "student", ip)
	}
	if got := post(); got != fiber.StatusOK {
		t.Fatalf("after 4 failures: status = %d", got)
	}

	bf.RecordFailedAttempt(context.Background(), "student", ip)
	if got := post(); got != fiber.StatusTooManyRequests {
		t.Fatalf("after 5 failures: status = %d", got)
	}

	bf.RecordSuccessfulAttempt(context.Background(), "student", ip)
	if got := post(); got != fiber.StatusOK {
		t.Errorf("after success: status = %d", got)
	}
}

func TestBruteForceFailsOpen(t *testing.T) {
	store := newMemoryStore()
	store.fail = true

	var nilBF *BruteForceProtection
	for _, bf := range []*BruteForceProtection{NewBruteForceProtection(store), nilBF} {
		app := fiber.New()
		app.Post("/login", bf.CheckLocked("admin"), func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusOK)
		})
		resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/login", nil))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Errorf("status = %d, want 200", resp.StatusCode)
		}
	}
}

func TestLockoutFor(t *testing.T) {
	cases := map[int64]time.Duration{
		1:  0,
		4:  0,
		5:  2 * time.Minute,
		9:  2 * time.Minute,
		10: time.Hour,
		25: 24 * time.Hour,
	}
	for n, want := range cases {
		if got := LockoutFor(n); got != want {
			t.Errorf("LockoutFor(%d) = %v, want %v", n, got, want)
		}
	}
}

func TestActionFor(t *testing.T) {
	cases := map[string]string{
		fiber.MethodPost:   "create",
		fiber.MethodPut:    "update",
		fiber.MethodDelete: "delete",
	}
	for method, want := range cases {
		if got := actionFor(method); got != want {
			t.Errorf("actionFor(%s) = %q, want %q", method, got, want)
		}
	}
}

func TestRequestTimeoutCancelsUserContext(t *testing.T) {
	app := fiber.New()
	app.Use(RequestTimeout(20 * time.Millisecond))
	app.Get("/slow", func(c *fiber.Ctx) error {
		select {
		case <-c.UserContext().Done():
			return response.FromError(c, c.UserContext().Err())
		case <-time.After(time.Second):
			return c.SendStatus(fiber.StatusOK)
		}
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/slow", nil), 2000)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestAuditResourceID(t *testing.T) {
	var got uint
	app := fiber.New()
	capture := func(c *fiber.Ctx) error {
		err := c.Next()
		got = resourceID(c)
		return err
	}
	app.Post("/students", capture, func(c *fiber.Ctx) error {
		return response.Created(c, fiber.Map{"studentId": 41})
	})
	app.Post("/subjects", capture, func(c *fiber.Ctx) error {
		return response.Created(c, fiber.Map{"id": 12, "name": "Physics"})
	})
	app.Post("/subjects/bad", capture, func(c *fiber.Ctx) error {
		return response.Conflict(c, "exists")
	})
	app.Put("/subjects/:id", capture, func(c *fiber.Ctx) error {
		return response.Success(c, fiber.Map{"id": 99})
	})

	cases := []struct {
		method, path string
		want         uint
	}{
		{fiber.MethodPost, "/students", 41},
		{fiber.MethodPost, "/subjects", 12},
		{fiber.MethodPost, "/subjects/bad", 0},
		{fiber.MethodPut, "/subjects/7", 7},
	}
	for _, tc := range cases {
		got = 0
		if _, err := app.Test(httptest.NewRequest(tc.method, tc.path, nil)); err != nil {
			t.Fatal(err)
		}
		if got != tc.want {
			t.Errorf("%s %s: resourceID = %d, want %d", tc.method, tc.path, got, tc.want)
		}
	}
}
