package covers

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

var ErrInvalidID = errors.New("invalid book id")

// FileStore keeps one cover image per book under dir, named by book id.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create covers dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(bookID string) (string, error) {
	if _, err := uuid.Parse(bookID); err != nil {
		return "", ErrInvalidID
	}
	return filepath.Join(s.dir, bookID+".jpg"), nil
}

// Save writes the cover, replacing any previous one.
func (s *FileStore) Save(bookID string, r io.Reader) error {
	p, err := s.path(bookID)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, "cover-*")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), p)
}

// Delete removes the cover. A book without a stored cover is not an error.
func (s *FileStore) Delete(bookID string) error {
	p, err := s.path(bookID)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FileStore) Exists(bookID string) bool {
	p, err := s.path(bookID)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}
