package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"exam-bot/internal/domain"
)

func TestBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")
	backend, err := NewBackend(dir)
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}

	data, err := backend.Load(ctx, domain.CollectionQuestions)
	if err != nil || data != nil {
		t.Fatalf("expected missing document to load as nil, got %q (%v)", data, err)
	}

	doc := []byte(`{"history":[]}`)
	if err := backend.Save(ctx, domain.CollectionQuestions, doc); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err = backend.Load(ctx, domain.CollectionQuestions)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(data) != string(doc) {
		t.Fatalf("expected %s, got %s", doc, data)
	}

	onDisk, err := os.ReadFile(filepath.Join(dir, "questions.json"))
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if string(onDisk) != string(doc) {
		t.Fatalf("expected questions.json to hold %s, got %s", doc, onDisk)
	}
}

func TestBackendSaveLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	backend, err := NewBackend(dir)
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := backend.Save(ctx, domain.CollectionResults, []byte(`{}`)); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "results.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("expected only results.json, got %v", names)
	}
}
