package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "selection.yaml")

	f := NewFile(path)
	if v, err := f.Load(ctx, "u1", "boardId"); err != nil || v != "" {
		t.Fatalf("expected empty value before first save, got %q err=%v", v, err)
	}
	if err := f.Save(ctx, "u1", "boardId", "b1"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := f.Save(ctx, "u1", "columnId", "c1"); err != nil {
		t.Fatalf("save: %v", err)
	}

	reopened := NewFile(path)
	for key, want := range map[string]string{"boardId": "b1", "columnId": "c1"} {
		v, err := reopened.Load(ctx, "u1", key)
		if err != nil {
			t.Fatalf("load %s: %v", key, err)
		}
		if v != want {
			t.Fatalf("load %s = %q, want %q", key, v, want)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if !strings.Contains(string(data), "boardId: b1") {
		t.Fatalf("unexpected file content:\n%s", data)
	}
}

func TestFileRejectsCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selection.yaml")
	if err := os.WriteFile(path, []byte("u1: [unclosed"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewFile(path).Load(context.Background(), "u1", "boardId"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestFileSavesOverNullDocument(t *testing.T) {
	ctx := context.Background()
	for name, doc := range map[string]string{
		"null":     "null\n",
		"tilde":    "~\n",
		"nullUser": "u1: ~\n",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "selection.yaml")
			if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			f := NewFile(path)
			if err := f.Save(ctx, "u1", "boardId", "b1"); err != nil {
				t.Fatalf("save: %v", err)
			}
			v, err := NewFile(path).Load(ctx, "u1", "boardId")
			if err != nil || v != "b1" {
				t.Fatalf("expected b1 after reopen, got %q err=%v", v, err)
			}
		})
	}
}
