// Package docstore owns the on-disk staging area for uploaded documents.
// Stored names carry a nanosecond prefix so two uploads of the same file
// never collide, and the prefix keeps directory listings in arrival order.
package docstore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/nversa/docchat/pkg/logging"
)

type Store struct {
	dir    string
	logger *logging.Logger
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory %s: %w", dir, err)
	}
	return &Store{dir: dir, logger: logging.NewLogger("doc_store")}, nil
}

// SaveUpload streams the upload to disk and returns the stored file name
// and its full path. The stored name, not the client's name, is the
// document's identity everywhere downstream.
func (s *Store) SaveUpload(r io.Reader, originalName string) (string, string, error) {
	name := fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(originalName))
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", "", fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", "", fmt.Errorf("writing %s: %w", path, err)
	}
	s.logger.Debug("upload stored", "file", name)
	return name, path, nil
}

// List returns the stored file names, oldest first.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading upload directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a stored file. The name is reduced to its base so a
// crafted path cannot escape the upload directory.
func (s *Store) Delete(name string) error {
	name = filepath.Base(name)
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return os.ErrNotExist
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		return err
	}
	s.logger.Info("upload deleted", "file", name)
	return nil
}

// Path maps a stored name back to its location on disk.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}
