package completion

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ashureev/shsh-quiz/internal/domain"
)

// FileMarkers stores completion markers as files that an external check
// script can poll:
//
//	<dir>/quiz_complete_<course>_<lab>.txt
type FileMarkers struct {
	dir string
}

// NewFileMarkers creates the marker directory if needed.
func NewFileMarkers(dir string) (*FileMarkers, error) {
	if dir == "" {
		return nil, errors.New("marker directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create marker directory: %w", err)
	}
	return &FileMarkers{dir: dir}, nil
}

// Dir returns the marker directory.
func (m *FileMarkers) Dir() string {
	return m.dir
}

// Location returns the marker path for key.
func (m *FileMarkers) Location(key Key) string {
	return filepath.Join(m.dir, domain.MarkerName(key.CourseID, key.LabID))
}

// Exists reports whether the marker for key is present.
func (m *FileMarkers) Exists(_ context.Context, key Key) (bool, error) {
	_, err := os.Stat(m.Location(key))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat marker: %w", err)
}

// Create writes the marker for key if it does not exist yet. The content
// goes to a temp file that is hard-linked into place, so the final name
// never refers to a partially written file and only one writer can win,
// even across processes.
func (m *FileMarkers) Create(ctx context.Context, key Key) (bool, error) {
	if ok, err := m.Exists(ctx, key); err != nil || ok {
		return false, err
	}

	tmp, err := os.CreateTemp(m.dir, ".quiz_complete_*.tmp")
	if err != nil {
		return false, fmt.Errorf("create temp marker: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	content := fmt.Sprintf("Quiz %s/%s completed successfully\n", key.CourseID, key.LabID)
	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		return false, fmt.Errorf("write temp marker: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return false, fmt.Errorf("sync temp marker: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("close temp marker: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return false, fmt.Errorf("chmod temp marker: %w", err)
	}

	if err := os.Link(tmpName, m.Location(key)); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("link marker: %w", err)
	}
	return true, nil
}
