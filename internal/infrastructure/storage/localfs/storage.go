package localfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kirillkom/hr-onboarding/internal/core/domain"
)

// Storage serves candidate folders from a local directory tree:
// <basePath>/<folderID>/<file>. It stands in for Drive in dev and tests.
type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = "./data/folders"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create folders dir: %w", err)
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve folders dir: %w", err)
	}
	return &Storage{basePath: abs}, nil
}

// ListFiles returns the regular, non-hidden files of a folder in name order.
func (s *Storage) ListFiles(_ context.Context, folderID string) ([]domain.RemoteFile, error) {
	dir, err := s.folderPath(folderID)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("folder %s not found", folderID)
		}
		return nil, fmt.Errorf("read folder: %w", err)
	}

	files := make([]domain.RemoteFile, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		files = append(files, domain.RemoteFile{
			ID:       folderID + "/" + entry.Name(),
			Name:     entry.Name(),
			ViewLink: "file://" + filepath.ToSlash(path),
		})
	}
	return files, nil
}

func (s *Storage) folderPath(folderID string) (string, error) {
	id := strings.TrimSpace(folderID)
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return "", domain.WrapError(domain.ErrInvalidInput, "resolve folder", fmt.Errorf("invalid folder id %q", folderID))
	}
	return filepath.Join(s.basePath, id), nil
}
