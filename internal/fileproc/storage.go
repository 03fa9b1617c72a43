package fileproc

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Storage saves uploaded files under a single directory and enforces the
// size ceiling.
type Storage struct {
	dir      string
	maxBytes int64
}

// NewStorage creates the upload directory if needed.
func NewStorage(dir string, maxBytes int64) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir %s: %w", dir, err)
	}
	return &Storage{dir: dir, maxBytes: maxBytes}, nil
}

// Dir returns the upload directory.
func (s *Storage) Dir() string {
	return s.dir
}

// Save writes data under a unique name that keeps the original extension,
// and returns the stored path.
func (s *Storage) Save(data []byte, originalName string) (string, error) {
	ext := filepath.Ext(originalName)
	name := fmt.Sprintf("%d_%s%s", time.Now().Unix(), uuid.NewString()[:8], ext)
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return path, nil
}

// CheckSize reports whether the file at path is within the ceiling.
// A file exactly at the ceiling is accepted.
func (s *Storage) CheckSize(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		logrus.WithError(err).Warnf("failed to stat %s", path)
		return false
	}
	return info.Size() <= s.maxBytes
}

// Remove deletes a stored file, logging rather than failing on error.
func (s *Storage) Remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warnf("failed to remove %s", path)
	}
}
