package cron

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/d-valsamis/student-portal/database/dbtest"
	"github.com/d-valsamis/student-portal/model"
	"github.com/d-valsamis/student-portal/services/filestore"
)

func TestSweepOrphans(t *testing.T) {
	db := dbtest.Open(t)
	root := t.TempDir()
	store, err := filestore.NewLocalStore(root, filestore.Kinds...)
	if err != nil {
		t.Fatal(err)
	}
	files := filestore.NewService(store)
	ctx := context.Background()

	put := func(name string, age time.Duration) {
		if err := store.Put(ctx, model.OwnerSubmission, name, strings.NewReader("%PDF-"), 5, "application/pdf"); err != nil {
			t.Fatal(err)
		}
		old := time.Now().Add(-age)
		if err := os.Chtimes(filepath.Join(root, model.OwnerSubmission, name), old, old); err != nil {
			t.Fatal(err)
		}
	}

	put("1-kept.pdf", 2*time.Hour)
	put("2-orphan.pdf", 2*time.Hour)
	put("3-fresh.pdf", time.Minute)

	record := model.StoredFile{OwnerType: model.OwnerSubmission, OwnerID: 1, OriginalName: "k.pdf", StoredName: "1-kept.pdf", ContentType: "application/pdf", Size: 5}
	if err := db.Create(&record).Error; err != nil {
		t.Fatal(err)
	}

	removed, err := SweepOrphans(ctx, db, files, time.Now().Add(-OrphanGracePeriod))
	if err != nil {
		t.Fatalf("SweepOrphans: %v", err)
	}
	if removed[model.OwnerSubmission] != 1 {
		t.Errorf("removed = %v, want 1 submission", removed)
	}

	left, _ := store.List(ctx, model.OwnerSubmission)
	names := map[string]bool{}
	for _, o := range left {
		names[o.Name] = true
	}
	if !names["1-kept.pdf"] || !names["3-fresh.pdf"] || names["2-orphan.pdf"] {
		t.Errorf("remaining = %v", names)
	}
}

func TestEncodeMetadata(t *testing.T) {
	if got := string(encodeMetadata(nil)); got != "{}" {
		t.Errorf("empty metadata = %s", got)
	}
	if got := string(encodeMetadata(map[string]interface{}{"removed": 3})); got != `{"removed":3}` {
		t.Errorf("metadata = %s", got)
	}
}
