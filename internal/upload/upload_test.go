package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jisap/threads-clone/internal/api"
	"github.com/jisap/threads-clone/internal/config"
	"github.com/jisap/threads-clone/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allowed = []string{"image/png", "image/jpeg", "image/webp"}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func gifBytes(t *testing.T) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	require.NoError(t, gif.Encode(buf, image.NewPaletted(image.Rect(0, 0, 2, 2), color.Palette{color.Black, color.White}), nil))
	return buf.Bytes()
}

// fileHeader builds a parsed multipart request with one file field.
func fileHeader(t *testing.T, filename, contentType string, data []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := writer.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	r := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	r.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, ParseMultipart(httptest.NewRecorder(), r, 1<<20))
	return r.MultipartForm.File["file"][0]
}

func TestValidateFile(t *testing.T) {
	t.Run("ValidPNG", func(t *testing.T) {
		pf, err := ValidateFile(fileHeader(t, "a.png", "image/png", pngBytes(t, 4, 3)), allowed, 1<<20)
		require.NoError(t, err)
		defer pf.Data.(io.Closer).Close()
		assert.Equal(t, "image/png", pf.MimeType)
		assert.Equal(t, 4, *pf.ImageWidth)
		assert.Equal(t, 3, *pf.ImageHeight)

		// data is rewound after reading the header
		data, err := io.ReadAll(pf.Data)
		require.NoError(t, err)
		assert.Equal(t, pngBytes(t, 4, 3), data)
	})

	t.Run("MimeFromExtension", func(t *testing.T) {
		pf, err := ValidateFile(fileHeader(t, "a.png", "application/octet-stream", pngBytes(t, 1, 1)), allowed, 1<<20)
		require.NoError(t, err)
		pf.Data.(io.Closer).Close()
		assert.Equal(t, "image/png", pf.MimeType)
	})

	t.Run("DisallowedType", func(t *testing.T) {
		_, err := ValidateFile(fileHeader(t, "a.gif", "image/gif", []byte("GIF89a")), allowed, 1<<20)
		assert.ErrorIs(t, err, ErrInvalidMimeType)
	})

	t.Run("ContentDecidesType", func(t *testing.T) {
		pf, err := ValidateFile(fileHeader(t, "a.gif", "image/gif", pngBytes(t, 2, 2)), append(allowed, "image/gif"), 1<<20)
		require.NoError(t, err)
		pf.Data.(io.Closer).Close()
		assert.Equal(t, "image/png", pf.MimeType)
		assert.Equal(t, ".png", ExtensionFor(pf))
	})

	t.Run("DisguisedDisallowedType", func(t *testing.T) {
		_, err := ValidateFile(fileHeader(t, "a.png", "image/png", gifBytes(t)), allowed, 1<<20)
		assert.ErrorIs(t, err, ErrInvalidMimeType)
	})

	t.Run("NotAnImage", func(t *testing.T) {
		_, err := ValidateFile(fileHeader(t, "a.png", "image/png", []byte("definitely not a png")), allowed, 1<<20)
		assert.ErrorIs(t, err, ErrNotAnImage)
	})

	t.Run("TooLarge", func(t *testing.T) {
		_, err := ValidateFile(fileHeader(t, "a.png", "image/png", pngBytes(t, 64, 64)), allowed, 10)
		assert.ErrorIs(t, err, ErrPayloadTooLarge)
	})
}

func TestLocalUpload(t *testing.T) {
	cfg := &config.Config{Public: config.Public{Upload: config.Upload{
		Backend:        "fs",
		MediaPath:      filepath.Join(t.TempDir(), "media"),
		MediaURLPrefix: "/media",
	}}}
	uploader, err := New(cfg)
	require.NoError(t, err)

	data := pngBytes(t, 2, 2)
	url, err := uploader.Upload(context.Background(), &domain.PendingFile{Filename: "me.PNG", MimeType: "image/png", Data: bytes.NewReader(data)})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/media/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	stored, err := os.ReadFile(filepath.Join(cfg.Public.Upload.MediaPath, filepath.FromSlash(strings.TrimPrefix(url, "/media/"))))
	require.NoError(t, err)
	assert.Equal(t, data, stored)
}

func TestHostedUpload(t *testing.T) {
	data := pngBytes(t, 2, 2)

	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
			file, header, err := r.FormFile("file")
			require.NoError(t, err)
			defer file.Close()
			got, _ := io.ReadAll(file)
			assert.Equal(t, data, got)
			assert.True(t, strings.HasSuffix(header.Filename, ".png"))
			assert.NotEqual(t, "avatar.png", header.Filename, "stored under a generated key")

			json.NewEncoder(w).Encode(api.UploadResponse{Url: "https://cdn.example.com/" + header.Filename})
		}))
		defer server.Close()

		uploader := NewHosted(server.URL, "secret", server.Client())
		url, err := uploader.Upload(context.Background(), &domain.PendingFile{Filename: "avatar.png", MimeType: "image/png", Data: bytes.NewReader(data)})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(url, "https://cdn.example.com/"))
	})

	t.Run("ServiceError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		}))
		defer server.Close()

		uploader := NewHosted(server.URL, "secret", server.Client())
		_, err := uploader.Upload(context.Background(), &domain.PendingFile{Filename: "a.png", MimeType: "image/png", Data: bytes.NewReader(data)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
		assert.Contains(t, err.Error(), "quota exceeded")
	})

	t.Run("EmptyUrl", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		uploader := NewHosted(server.URL, "secret", server.Client())
		_, err := uploader.Upload(context.Background(), &domain.PendingFile{Filename: "a.png", MimeType: "image/png", Data: bytes.NewReader(data)})
		assert.Error(t, err)
	})
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New(&config.Config{Public: config.Public{Upload: config.Upload{Backend: "s3"}}})
	assert.Error(t, err)
}
