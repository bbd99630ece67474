package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/jisap/threads-clone/internal/api"
	internal_errors "github.com/jisap/threads-clone/internal/errors"
	"github.com/jisap/threads-clone/internal/upload"
	"github.com/jisap/threads-clone/internal/utils"
)

const uploadFormField = "file"

func uploadError(err error) error {
	switch {
	case errors.Is(err, upload.ErrPayloadTooLarge):
		return &internal_errors.ErrorWithStatusCode{Message: "File is too large", StatusCode: http.StatusRequestEntityTooLarge}
	case errors.Is(err, upload.ErrInvalidMimeType):
		return internal_errors.BadRequest("File type is not allowed")
	case errors.Is(err, upload.ErrNotAnImage):
		return internal_errors.BadRequest("File is not a valid image")
	case errors.Is(err, upload.ErrNoFile):
		return internal_errors.BadRequest("No file uploaded")
	}
	return err
}

// storeUpload validates an uploaded file and hands it to the uploader.
func (h *Handler) storeUpload(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	file, err := upload.ValidateFile(fileHeader, h.Public.Upload.AllowedMimeTypes, h.Public.Upload.MaxFileSize)
	if err != nil {
		return "", uploadError(err)
	}
	if closer, ok := file.Data.(io.Closer); ok {
		defer closer.Close()
	}

	url, err := h.Uploader.Upload(ctx, file)
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", fileHeader.Filename, err)
	}
	return url, nil
}

// formFileURL uploads the optional file sent in field and returns its URL,
// or "" when the form carries no file.
func (h *Handler) formFileURL(r *http.Request, field string) (string, error) {
	_, fileHeader, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", nil
	}
	if err != nil {
		return "", internal_errors.BadRequest("Invalid form data")
	}
	return h.storeUpload(r.Context(), fileHeader)
}

// UploadHandler stores one image sent as the "file" multipart field and
// answers with its public URL.
func (h *Handler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	if err := upload.ParseMultipart(w, r, h.Public.Upload.MaxFileSize); err != nil {
		utils.WriteErrorAndStatusCode(w, uploadError(err))
		return
	}

	files := r.MultipartForm.File[uploadFormField]
	if len(files) == 0 {
		utils.WriteErrorAndStatusCode(w, uploadError(upload.ErrNoFile))
		return
	}

	url, err := h.storeUpload(r.Context(), files[0])
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, api.UploadResponse{Url: url})
}
