// Package storage persists uploaded photos and captured signatures under a
// content directory. Rows in the database reference files by the relative
// paths returned here.
package storage

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// AllowedPhotoExt is the upload allow-list. Keys are lower-case extensions
// including the dot.
var AllowedPhotoExt = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

var (
	// ErrBadExtension is returned for uploads outside the allow-list.
	ErrBadExtension = errors.New("file extension not allowed")
	// ErrBadSignature is returned when a signature payload is not a
	// decodable image data-URL.
	ErrBadSignature = errors.New("invalid signature payload")
)

// FileStore writes visit attachments below a single root directory.
// Filenames embed a random UUID so concurrent uploads can never collide,
// regardless of the client-supplied names.
type FileStore struct {
	Root string
}

func NewFileStore(root string) *FileStore { return &FileStore{Root: root} }

// SavePhoto stores one uploaded photo for a visit and returns its path
// relative to the root. The original filename contributes only its extension.
func (s *FileStore) SavePhoto(visitID uint64, origName string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(origName))
	if !AllowedPhotoExt[ext] {
		return "", ErrBadExtension
	}
	rel := filepath.Join("visitas", fmt.Sprintf("%d", visitID), uuid.NewString()+ext)
	if err := s.write(rel, data); err != nil {
		return "", err
	}
	return rel, nil
}

// SaveSignature stores a decoded signature image for a visit.
func (s *FileStore) SaveSignature(visitID uint64, png []byte) (string, error) {
	rel := filepath.Join("visitas", fmt.Sprintf("%d", visitID), "firma-"+uuid.NewString()+".png")
	if err := s.write(rel, png); err != nil {
		return "", err
	}
	return rel, nil
}

// Remove deletes a previously written file. Used to undo partial writes when
// a visit transaction rolls back; a missing file is not an error.
func (s *FileStore) Remove(rel string) error {
	err := os.Remove(filepath.Join(s.Root, rel))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Exists reports whether a referenced file is present on disk.
func (s *FileStore) Exists(rel string) bool {
	_, err := os.Stat(filepath.Join(s.Root, rel))
	return err == nil
}

func (s *FileStore) write(rel string, data []byte) error {
	abs := filepath.Join(s.Root, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return err
	}
	return os.WriteFile(abs, data, 0o644)
}

// DecodeSignatureDataURL decodes a "data:image/png;base64,..." payload as
// produced by canvas signature pads. Empty or undecodable payloads are
// rejected with ErrBadSignature.
func DecodeSignatureDataURL(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrBadSignature
	}
	const marker = ";base64,"
	if !strings.HasPrefix(raw, "data:image/") {
		return nil, ErrBadSignature
	}
	i := strings.Index(raw, marker)
	if i < 0 {
		return nil, ErrBadSignature
	}
	data, err := base64.StdEncoding.DecodeString(raw[i+len(marker):])
	if err != nil || len(data) == 0 {
		return nil, ErrBadSignature
	}
	return data, nil
}
