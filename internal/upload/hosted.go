package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/google/uuid"
	"github.com/jisap/threads-clone/internal/api"
	"github.com/jisap/threads-clone/internal/domain"
)

const apiKeyHeader = "X-Api-Key"

// Hosted forwards files to the hosted upload service.
type Hosted struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHosted uses a client with a 30s timeout when client is nil.
func NewHosted(endpoint, apiKey string, client *http.Client) *Hosted {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Hosted{endpoint: endpoint, apiKey: apiKey, client: client}
}

func (h *Hosted) Upload(ctx context.Context, file *domain.PendingFile) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	partHeader := make(textproto.MIMEHeader)
	key := uuid.NewString() + ExtensionFor(file)
	partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, key))
	partHeader.Set("Content-Type", file.MimeType)
	part, err := writer.CreatePart(partHeader)
	if err != nil {
		return "", fmt.Errorf("failed to create multipart part: %w", err)
	}
	if _, err := io.Copy(part, file.Data); err != nil {
		return "", fmt.Errorf("failed to copy file data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, body)
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set(apiKeyHeader, h.apiKey)

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("upload service returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var result api.UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if result.Url == "" {
		return "", fmt.Errorf("upload service returned no url")
	}
	return result.Url, nil
}
