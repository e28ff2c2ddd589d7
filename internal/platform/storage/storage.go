package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store keeps uploaded documents on local disk under a single root.
// Files land in pending/<employeeID>/ first and are promoted (copied) into
// employees/<employeeID>/ when a change request is approved. Promotion copies
// rather than renames so a failed approval leaves the staged file usable for
// a retry; the temp copy is removed only after the approval commits.
type Store struct {
	Root string
}

type SavedFile struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

type PendingFile struct {
	Path    string
	ModTime time.Time
}

var ErrOutsideRoot = errors.New("path escapes document root")

const (
	pendingPrefix   = "pending/"
	permanentPrefix = "employees/"
)

func New(root string) *Store {
	return &Store{Root: root}
}

func URL(relPath string) string {
	return "/files/" + relPath
}

func IsPendingPath(relPath string) bool {
	return strings.HasPrefix(relPath, pendingPrefix)
}

func (s *Store) SavePending(employeeID, fileName string, data []byte) (SavedFile, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	rel := path.Join(pendingPrefix+employeeID, uuid.NewString()+ext)
	if err := s.write(rel, data); err != nil {
		return SavedFile{}, err
	}
	return SavedFile{Path: rel, URL: URL(rel)}, nil
}

func (s *Store) SavePermanent(employeeID, fileName string, data []byte) (SavedFile, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	rel := path.Join(permanentPrefix+employeeID, uuid.NewString()+ext)
	if err := s.write(rel, data); err != nil {
		return SavedFile{}, err
	}
	return SavedFile{Path: rel, URL: URL(rel)}, nil
}

// Promote copies a pending file into the employee's permanent directory and
// returns the permanent relative path. The pending source is left in place.
func (s *Store) Promote(relPath, employeeID string) (string, error) {
	if !IsPendingPath(relPath) {
		return "", fmt.Errorf("promote: %s is not a pending path", relPath)
	}
	src, err := s.abs(relPath)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return "", err
	}
	dst := path.Join(permanentPrefix+employeeID, path.Base(relPath))
	if err := s.write(dst, data); err != nil {
		return "", err
	}
	return dst, nil
}

func (s *Store) Delete(relPath string) error {
	abs, err := s.abs(relPath)
	if err != nil {
		return err
	}
	err = os.Remove(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (s *Store) Exists(relPath string) bool {
	abs, err := s.abs(relPath)
	if err != nil {
		return false
	}
	_, err = os.Stat(abs)
	return err == nil
}

// ListPending walks the pending area; used by the retention sweep.
func (s *Store) ListPending() ([]PendingFile, error) {
	root := filepath.Join(s.Root, "pending")
	var out []PendingFile
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.Root, p)
		if err != nil {
			return err
		}
		out = append(out, PendingFile{Path: filepath.ToSlash(rel), ModTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Open(relPath string) (*os.File, error) {
	abs, err := s.abs(relPath)
	if err != nil {
		return nil, err
	}
	return os.Open(abs)
}

func (s *Store) write(relPath string, data []byte) error {
	abs, err := s.abs(relPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(abs), ".upload-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), abs)
}

func (s *Store) abs(relPath string) (string, error) {
	cleaned := path.Clean("/" + relPath)
	if cleaned == "/" || strings.Contains(cleaned, "..") {
		return "", ErrOutsideRoot
	}
	return filepath.Join(s.Root, filepath.FromSlash(strings.TrimPrefix(cleaned, "/"))), nil
}
