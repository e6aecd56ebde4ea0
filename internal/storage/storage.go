package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store persists uploaded binaries. Implementations must never reuse a
// caller-supplied filename for the stored blob; the human-readable name lives
// only in file metadata.
type Store interface {
	Save(src io.Reader, ext string) (path string, size int64, err error)
	Open(path string) (io.ReadCloser, error)
	Remove(path string) error
}

// Local stores files on the local filesystem under a single base directory,
// each under a random UUID-derived name so uploads can never collide.
type Local struct {
	BaseDir string
}

// NewLocal creates the base directory if needed and returns a Local store.
func NewLocal(baseDir string) (*Local, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &Local{BaseDir: abs}, nil
}

// Save writes src to a new randomized file and returns its absolute path and
// the number of bytes written. On a partial write the file is removed.
func (s *Local) Save(src io.Reader, ext string) (string, int64, error) {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	path := filepath.Join(s.BaseDir, uuid.NewString()+ext)

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, err
	}

	size, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("failed to store file: %w", err)
	}

	return path, size, nil
}

// Open returns a reader over the stored file.
func (s *Local) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// Remove deletes the stored file. A file that is already gone is not an
// error; the metadata row is the source of truth and physical deletion is
// best-effort.
func (s *Local) Remove(path string) error {
	err := os.Remove(path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}
