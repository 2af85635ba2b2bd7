// Package media stores uploaded post images on disk.
package media

import (
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const postsDir = "posts"

var extensions = map[string]string{
	"jpeg": "jpg",
	"png":  "png",
	"gif":  "gif",
	"bmp":  "bmp",
	"tiff": "tiff",
	"webp": "webp",
}

type Storage struct {
	Root string
}

func New(root string) (*Storage, error) {
	if err := os.MkdirAll(filepath.Join(root, postsDir), 0o755); err != nil {
		return nil, fmt.Errorf("media root %s: %w", root, err)
	}
	return &Storage{Root: root}, nil
}

// Save writes data under a fresh name and returns the path relative to Root,
// which is what a Post keeps.
func (s *Storage) Save(data []byte, format string) (string, error) {
	ext, ok := extensions[format]
	if !ok {
		return "", fmt.Errorf("unsupported image format %q", format)
	}
	rel := path.Join(postsDir, uuid.NewString()+"."+ext)
	if err := os.WriteFile(s.abs(rel), data, 0o644); err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	return rel, nil
}

// Delete removes a stored file. Missing files are not an error.
func (s *Storage) Delete(rel string) error {
	if rel == "" {
		return nil
	}
	err := os.Remove(s.abs(rel))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *Storage) Exists(rel string) bool {
	_, err := os.Stat(s.abs(rel))
	return err == nil
}

func (s *Storage) abs(rel string) string {
	clean := path.Clean("/" + rel)
	return filepath.Join(s.Root, filepath.FromSlash(strings.TrimPrefix(clean, "/")))
}

// Handler serves the stored files under prefix.
func (s *Storage) Handler(prefix string) http.Handler {
	return http.StripPrefix(prefix, http.FileServer(http.Dir(s.Root)))
}
