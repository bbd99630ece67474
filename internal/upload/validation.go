package upload

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/jisap/threads-clone/internal/domain"

	_ "golang.org/x/image/webp"
)

var (
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrInvalidMimeType = errors.New("invalid MIME type")
	ErrNotAnImage      = errors.New("file is not a readable image")
	ErrNoFile          = errors.New("no file in request")
)

// ParseMultipart limits the request body to maxSize plus a small allowance for
// form fields and parses the multipart form.
func ParseMultipart(w http.ResponseWriter, r *http.Request, maxSize int64) error {
	limit := maxSize + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return fmt.Errorf("%w: %v", ErrNoFile, err)
		}
		return fmt.Errorf("%w: failed to parse multipart form", ErrPayloadTooLarge)
	}
	return nil
}

// ValidateFile opens an uploaded file and checks its type, size and image
// header. The declared type only serves as an early reject; the stored MIME
// type is the format the image decoder recognized. The returned file's Data
// must be closed by the caller.
func ValidateFile(fileHeader *multipart.FileHeader, allowedMimeTypes []string, maxSize int64) (*domain.PendingFile, error) {
	if fileHeader.Size > maxSize {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", ErrPayloadTooLarge, fileHeader.Filename, maxSize)
	}

	mimeType, err := DetectMimeType(fileHeader)
	if err != nil {
		return nil, err
	}
	if !isAllowed(mimeType, allowedMimeTypes) {
		return nil, fmt.Errorf("%w: %s (file: %s)", ErrInvalidMimeType, mimeType, fileHeader.Filename)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}

	width, height, format, err := imageHeader(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotAnImage, fileHeader.Filename)
	}
	detected := "image/" + format
	if !isAllowed(detected, allowedMimeTypes) {
		file.Close()
		return nil, fmt.Errorf("%w: %s sent as %s (file: %s)", ErrInvalidMimeType, detected, mimeType, fileHeader.Filename)
	}

	return &domain.PendingFile{
		Filename:    fileHeader.Filename,
		SizeBytes:   fileHeader.Size,
		MimeType:    detected,
		ImageWidth:  &width,
		ImageHeight: &height,
		Data:        file,
	}, nil
}

func isAllowed(mimeType string, allowed []string) bool {
	for _, m := range allowed {
		if m == mimeType {
			return true
		}
	}
	return false
}

func DetectMimeType(fileHeader *multipart.FileHeader) (string, error) {
	mimeType := fileHeader.Header.Get("Content-Type")

	// If no Content-Type or it's generic, detect from extension
	if mimeType == "" || mimeType == "application/octet-stream" {
		if detected := mime.TypeByExtension(filepath.Ext(fileHeader.Filename)); detected != "" {
			mimeType = detected
		}
	}
	if mimeType == "" {
		return "", fmt.Errorf("could not detect MIME type for file: %s", fileHeader.Filename)
	}
	if parsed, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = parsed
	}
	return mimeType, nil
}

// imageHeader reads the image header and rewinds the file. format is the
// decoder name: png, jpeg, gif or webp.
func imageHeader(file multipart.File) (width, height int, format string, err error) {
	cfg, format, err := image.DecodeConfig(file)
	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil && err == nil {
		err = seekErr
	}
	if err != nil {
		return 0, 0, "", err
	}
	return cfg.Width, cfg.Height, format, nil
}

// ExtensionFor picks a file extension for the stored copy, preferring the
// one implied by the MIME type.
func ExtensionFor(file *domain.PendingFile) string {
	switch file.MimeType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	return filepath.Ext(file.Filename)
}
