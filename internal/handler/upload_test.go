package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/jisap/threads-clone/internal/api"
	"github.com/jisap/threads-clone/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type formFile struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, image.NewRGBA(image.Rect(0, 0, 4, 3))))
	return buf.Bytes()
}

// multipartRequest builds a POST request carrying fields and an optional file.
func multipartRequest(t *testing.T, target string, fields map[string]string, file *formFile) *http.Request {
	t.Helper()
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if file != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.field, file.filename))
		header.Set("Content-Type", file.contentType)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(file.data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadHandler(t *testing.T) {
	t.Run("stores an image", func(t *testing.T) {
		h, deps := newTestHandler(t)
		deps.uploader.MockUpload = func(ctx context.Context, file *domain.PendingFile) (string, error) {
			assert.Equal(t, "avatar.png", file.Filename)
			assert.Equal(t, "image/png", file.MimeType)
			require.NotNil(t, file.ImageWidth)
			assert.Equal(t, 4, *file.ImageWidth)
			assert.Equal(t, 3, *file.ImageHeight)
			return "/media/ab/abc.png", nil
		}

		req := multipartRequest(t, "/api/upload", nil, &formFile{"file", "avatar.png", "image/png", pngBytes(t)})
		w := serve(h.UploadHandler, req)

		require.Equal(t, http.StatusCreated, w.Code)
		var resp api.UploadResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "/media/ab/abc.png", resp.Url)
	})

	testCases := []struct {
		name       string
		file       *formFile
		wantStatus int
		wantBody   string
	}{
		{
			name:       "no file",
			wantStatus: http.StatusBadRequest,
			wantBody:   "No file uploaded",
		},
		{
			name:       "wrong field",
			file:       &formFile{"photo", "a.png", "image/png", nil},
			wantStatus: http.StatusBadRequest,
			wantBody:   "No file uploaded",
		},
		{
			name:       "disallowed type",
			file:       &formFile{"file", "a.gif", "image/gif", []byte("GIF89a")},
			wantStatus: http.StatusBadRequest,
			wantBody:   "File type is not allowed",
		},
		{
			name:       "not an image",
			file:       &formFile{"file", "a.png", "image/png", []byte("definitely not a png")},
			wantStatus: http.StatusBadRequest,
			wantBody:   "File is not a valid image",
		},
		{
			name:       "too large",
			file:       &formFile{"file", "big.png", "image/png", make([]byte, 2<<20)},
			wantStatus: http.StatusRequestEntityTooLarge,
			wantBody:   "File is too large",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h, deps := newTestHandler(t)
			deps.uploader.MockUpload = func(ctx context.Context, file *domain.PendingFile) (string, error) {
				t.Fatal("uploader must not be called")
				return "", nil
			}

			w := serve(h.UploadHandler, multipartRequest(t, "/api/upload", nil, tc.file))

			assert.Equal(t, tc.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tc.wantBody)
		})
	}

	t.Run("not multipart", func(t *testing.T) {
		h, _ := newTestHandler(t)
		req := httptest.NewRequest(http.MethodPost, "/api/upload", bytes.NewBufferString("{}"))
		req.Header.Set("Content-Type", "application/json")

		w := serve(h.UploadHandler, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("uploader failure is hidden", func(t *testing.T) {
		h, deps := newTestHandler(t)
		deps.uploader.MockUpload = func(ctx context.Context, file *domain.PendingFile) (string, error) {
			return "", errors.New("bucket offline")
		}

		w := serve(h.UploadHandler, multipartRequest(t, "/api/upload", nil, &formFile{"file", "a.png", "image/png", pngBytes(t)}))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "bucket offline")
	})
}
