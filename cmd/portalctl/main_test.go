package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/d-valsamis/student-portal/utils/auth"
)

func TestHashPassword(t *testing.T) {
	var out bytes.Buffer
	if err := run([]string{"hash-password", "s3cret-pass"}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}

	hash := strings.TrimSpace(out.String())
	if !auth.IsBcryptHash(hash) {
		t.Fatalf("output %q is not a bcrypt hash", hash)
	}
	if err := auth.VerifyPassword(hash, "s3cret-pass"); err != nil {
		t.Errorf("hash does not verify: %v", err)
	}
}

func TestHashPasswordTooShort(t *testing.T) {
	if err := run([]string{"hash-password", "abc"}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for short password")
	}
}

func TestUsageErrors(t *testing.T) {
	for _, args := range [][]string{nil, {"bogus"}, {"hash-password"}} {
		if err := run(args, &bytes.Buffer{}); !errors.Is(err, errUsage) {
			t.Errorf("run(%v) = %v, want usage error", args, err)
		}
	}
}
