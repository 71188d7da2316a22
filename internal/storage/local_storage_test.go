package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"social-go/internal/config"
)

func TestLocalStorageUploadAndDelete(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewLocalStorageService(config.StorageConfig{LocalPath: dir, BaseURL: "/uploads/"})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	body := "fake png bytes"
	info, err := svc.UploadFile(ctx, strings.NewReader(body), int64(len(body)), "cat.png", "image/png")
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if !strings.HasPrefix(info.URL, "/uploads/") || !strings.HasSuffix(info.URL, ".png") {
		t.Errorf("url = %q", info.URL)
	}
	data, err := os.ReadFile(info.Path)
	if err != nil || string(data) != body {
		t.Fatalf("stored = %q, %v", data, err)
	}

	if err := svc.DeleteFile(ctx, info.Path); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if _, err := os.Stat(info.Path); !os.IsNotExist(err) {
		t.Errorf("file still present: %v", err)
	}
}

func TestLocalStorageSizeMismatch(t *testing.T) {
	dir := t.TempDir()
	svc, _ := NewLocalStorageService(config.StorageConfig{LocalPath: dir, BaseURL: "/uploads"})
	if _, err := svc.UploadFile(context.Background(), strings.NewReader("abc"), 10, "a.txt", "text/plain"); err == nil {
		t.Fatal("expected size mismatch error")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("partial file left behind: %v", entries)
	}
}

func TestLocalStorageDeleteOutsideBase(t *testing.T) {
	dir := t.TempDir()
	svc, _ := NewLocalStorageService(config.StorageConfig{LocalPath: dir})
	if err := svc.DeleteFile(context.Background(), filepath.Join(dir, "..", "etc")); err == nil {
		t.Fatal("expected refusal for path outside base")
	}
}
