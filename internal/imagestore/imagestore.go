package imagestore

import (
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"auction-site/internal/auctionerrors"
	"auction-site/utils"

	"github.com/gabriel-vasile/mimetype"
)

// Image is a stored picture and its sniffed content type
type Image struct {
	Data        []byte
	ContentType string
}

// Store persists user and auction images
type Store interface {
	Save(prefix string, data []byte, contentType string) (string, error)
	Load(filename string) (Image, error)
	Delete(filename string) error
	Clear() error
}

// extensions lists the accepted content types
var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
}

// FileStore keeps images as files in a single directory
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("imagestore: create %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Save validates data against the declared content type and writes it under a new name
func (s *FileStore) Save(prefix string, data []byte, contentType string) (string, error) {
	declared := NormalizeContentType(contentType)
	ext, ok := extensions[declared]
	if !ok {
		return "", fmt.Errorf("imagestore: %w - %q", auctionerrors.ErrUnsupportedImage, contentType)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("imagestore: %w - empty body", auctionerrors.ErrUnsupportedImage)
	}
	if detected := mimetype.Detect(data); !detected.Is(declared) {
		return "", fmt.Errorf("imagestore: %w - declared %s but content is %s", auctionerrors.ErrUnsupportedImage, declared, detected.String())
	}

	name := fmt.Sprintf("%s_%s%s", prefix, utils.GenerateID(), ext)
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("imagestore: write %s: %w", name, err)
	}
	return name, nil
}

// Load reads an image previously written by Save
func (s *FileStore) Load(filename string) (Image, error) {
	if filename == "" {
		return Image{}, fmt.Errorf("imagestore: %w", auctionerrors.ErrImageNotFound)
	}
	data, err := os.ReadFile(s.path(filename))
	if errors.Is(err, fs.ErrNotExist) {
		return Image{}, fmt.Errorf("imagestore: %s: %w", filename, auctionerrors.ErrImageNotFound)
	}
	if err != nil {
		return Image{}, fmt.Errorf("imagestore: read %s: %w", filename, err)
	}
	return Image{Data: data, ContentType: mimetype.Detect(data).String()}, nil
}

// Delete removes an image; deleting a missing file is not an error
func (s *FileStore) Delete(filename string) error {
	if filename == "" {
		return nil
	}
	err := os.Remove(s.path(filename))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("imagestore: delete %s: %w", filename, err)
	}
	return nil
}

// Clear removes every stored image
func (s *FileStore) Clear() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("imagestore: list %s: %w", s.dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			return fmt.Errorf("imagestore: clear %s: %w", e.Name(), err)
		}
	}
	return nil
}

// path confines filename to the store directory
func (s *FileStore) path(filename string) string {
	return filepath.Join(s.dir, filepath.Base(filename))
}

// NormalizeContentType strips parameters and maps the common image/jpg alias
func NormalizeContentType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.ToLower(contentType))
	}
	if mediaType == "image/jpg" {
		return "image/jpeg"
	}
	return mediaType
}
