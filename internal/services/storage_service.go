package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/imageshare/backend/internal/config"
	"github.com/imageshare/backend/internal/models"
)

// StorageService keeps files below the static content root, addressed by
// slash-separated keys that double as public URL paths.
type StorageService struct {
	root string
}

func NewStorageService(cfg *config.Config) *StorageService {
	// ensure the images directory exists
	_ = os.MkdirAll(filepath.Join(cfg.WebRoot, filepath.FromSlash(models.ImagesDir)), 0o755)
	return &StorageService{root: cfg.WebRoot}
}

// Path returns the absolute location of key.
func (s *StorageService) Path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// SaveStream saves an incoming stream to local storage and returns absolute path, size and checksum.
// An existing file at key is overwritten.
func (s *StorageService) SaveStream(ctx context.Context, key string, r io.Reader) (string, int64, string, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, "", err
	}
	absPath := s.Path(key)
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", 0, "", err
	}

	tmp := absPath + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return "", 0, "", err
	}
	closed := false
	defer func() {
		if !closed {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	hasher := sha256.New()
	n, err := io.Copy(io.MultiWriter(f, hasher), r)
	if err != nil {
		return "", 0, "", err
	}
	if err := f.Sync(); err != nil {
		return "", 0, "", err
	}

	closed = true
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", 0, "", err
	}
	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return "", 0, "", err
	}

	checksum := hex.EncodeToString(hasher.Sum(nil))
	return absPath, n, checksum, nil
}

// Open opens the file stored at key.
func (s *StorageService) Open(key string) (*os.File, error) {
	return os.Open(s.Path(key))
}

// Remove deletes the file stored at key. A missing file is not an error.
func (s *StorageService) Remove(key string) error {
	if err := os.Remove(s.Path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
