package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/imageshare/backend/internal/config"
	"github.com/imageshare/backend/internal/models"
)

func TestStorageSaveOverwriteRemove(t *testing.T) {
	root := t.TempDir()
	svc := NewStorageService(&config.Config{WebRoot: root})
	if _, err := os.Stat(filepath.Join(root, "data", "images")); err != nil {
		t.Fatalf("expected images dir created: %v", err)
	}

	key := models.ImageContextPath(3)
	ctx := context.Background()
	if _, _, _, err := svc.SaveStream(ctx, key, strings.NewReader("first")); err != nil {
		t.Fatalf("save: %v", err)
	}
	abs, n, sum, err := svc.SaveStream(ctx, key, strings.NewReader("second"))
	if err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if abs != models.ImageDataFile(root, 3) || n != int64(len("second")) || len(sum) != 64 {
		t.Fatalf("unexpected result %s %d %s", abs, n, sum)
	}
	digest := sha256.Sum256([]byte("second"))
	if sum != hex.EncodeToString(digest[:]) {
		t.Fatalf("unexpected checksum %s", sum)
	}
	got, _ := os.ReadFile(abs)
	if string(got) != "second" {
		t.Fatalf("expected overwritten content got %q", got)
	}
	if _, err := os.Stat(abs + ".part"); !os.IsNotExist(err) {
		t.Fatal("expected no temp file left behind")
	}

	if err := svc.Remove(key); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := svc.Remove(key); err != nil {
		t.Fatalf("removing a missing file should succeed: %v", err)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestStorageSaveFailureLeavesNothing(t *testing.T) {
	root := t.TempDir()
	svc := NewStorageService(&config.Config{WebRoot: root})
	key := models.ImageContextPath(9)

	if _, _, _, err := svc.SaveStream(context.Background(), key, failingReader{}); err == nil {
		t.Fatal("expected read error")
	}
	for _, p := range []string{svc.Path(key), svc.Path(key) + ".part"} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Fatalf("expected %s absent got %v", p, err)
		}
	}
}
