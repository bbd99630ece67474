package fs

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Storage keeps uploaded media on local disk, content addressed: the same
// bytes always land at the same path.
type Storage struct {
	rootPath string
}

func New(rootPath string) (*Storage, error) {
	p := filepath.Clean(rootPath)
	if err := os.MkdirAll(p, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root storage directory %s: %w", p, err)
	}
	return &Storage{rootPath: p}, nil
}

func (s *Storage) RootPath() string {
	return s.rootPath
}

// Save writes data under "<digest[:2]>/<digest><ext>" and returns that
// relative path (always with forward slashes).
func (s *Storage) Save(data io.Reader, ext string) (string, error) {
	ext = sanitizeExtension(ext)

	tmp, err := os.CreateTemp(s.rootPath, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	hash, err := blake2b.New256(nil)
	if err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to init hash: %w", err)
	}
	if _, err := io.Copy(io.MultiWriter(tmp, hash), data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to copy file data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	digest := hex.EncodeToString(hash.Sum(nil))
	relativePath := filepath.Join(digest[:2], digest+ext)
	fullPath := filepath.Join(s.rootPath, relativePath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create subdirectories: %w", err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		return "", fmt.Errorf("failed to move file into place: %w", err)
	}
	return filepath.ToSlash(relativePath), nil
}

// sanitizeExtension keeps a leading dot and lowercase alphanumerics only.
func sanitizeExtension(ext string) string {
	if !strings.Contains(ext, ".") {
		ext = "." + ext
	}
	ext = strings.ToLower(strings.TrimPrefix(filepath.Ext(ext), "."))
	var b strings.Builder
	for _, r := range ext {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "." + b.String()
}
