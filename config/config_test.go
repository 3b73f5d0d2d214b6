package config

import (
	"strings"
	"testing"
	"time"
)

func TestSSLMode(t *testing.T) {
	cases := []struct {
		env, override, want string
	}{
		{"production", "", "require"},
		{"development", "", "disable"},
		{"", "", "disable"},
		{"production", "verify-full", "verify-full"},
		{"development", "require", "require"},
	}

	for _, tc := range cases {
		if got := SSLMode(tc.env, tc.override); got != tc.want {
			t.Errorf("SSLMode(%q, %q) = %q, want %q", tc.env, tc.override, got, tc.want)
		}
	}
}

func TestGetDefaults(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "")
	t.Setenv("REQUEST_TIMEOUT", "not-a-duration")
	t.Setenv("DB_SSL_MODE", "")
	t.Setenv("DATABASE_URL", "")

	env, err := Get()
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}

	if env.PORT != 5000 {
		t.Errorf("PORT = %d, want 5000", env.PORT)
	}
	if env.REQUEST_TIMEOUT != 30*time.Second {
		t.Errorf("REQUEST_TIMEOUT = %s, want 30s", env.REQUEST_TIMEOUT)
	}
	if env.JWT_EXPIRY != 24*time.Hour {
		t.Errorf("JWT_EXPIRY = %s, want 24h", env.JWT_EXPIRY)
	}
	if !strings.Contains(env.DSN(), "sslmode=disable") {
		t.Errorf("DSN() = %q, want sslmode=disable", env.DSN())
	}
}

func TestGetRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := Get(); err == nil {
		t.Fatal("expected error when JWT_SECRET is empty")
	}
}

func TestDSNPrefersDatabaseURL(t *testing.T) {
	env := &EnvironmentVariable{DATABASE_URL: "postgres://u:p@db:5432/portal?sslmode=require"}

	if got := env.DSN(); got != env.DATABASE_URL {
		t.Errorf("DSN() = %q, want DATABASE_URL", got)
	}
}
