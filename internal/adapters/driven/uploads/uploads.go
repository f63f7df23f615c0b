// Package uploads keeps copies of ingested files under the storage base
// directory: documents in <base>/uploads and videos in <base>/video_upload.
package uploads

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Directory names under the base directory.
const (
	DocumentsDir = "uploads"
	VideoDir     = "video_upload"
)

// Ensure Store implements the interface.
var _ driven.UploadStore = (*Store)(nil)

// Store copies files into the upload areas.
type Store struct {
	baseDir string
	keep    bool
}

// NewStore creates an upload store. When keep is false, Keep returns the
// original path without copying.
func NewStore(baseDir string, keep bool) *Store {
	return &Store{baseDir: baseDir, keep: keep}
}

// Dir returns the upload directory for kind.
func (s *Store) Dir(kind domain.SourceKind) string {
	if kind == domain.SourceVideo {
		return filepath.Join(s.baseDir, VideoDir)
	}
	return filepath.Join(s.baseDir, DocumentsDir)
}

// Keep copies path into the upload area for kind.
// An existing file with the same name is replaced.
func (s *Store) Keep(ctx context.Context, kind domain.SourceKind, path string) (string, error) {
	if !s.keep {
		return path, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := s.Dir(kind)
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	if within(dir, abs) {
		return abs, nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating upload directory: %w", err)
	}

	dst := filepath.Join(dir, filepath.Base(abs))
	if err := copyFile(abs, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// ScratchDir returns the video upload directory, created if needed.
func (s *Store) ScratchDir() (string, error) {
	dir := filepath.Join(s.baseDir, VideoDir)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating scratch directory: %w", err)
	}
	return dir, nil
}

func within(dir, path string) bool {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return fmt.Errorf("creating upload copy: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return fmt.Errorf("copying %s: %w", src, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing upload copy: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("storing upload: %w", err)
	}
	return nil
}
