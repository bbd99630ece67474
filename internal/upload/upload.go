package upload

import (
	"context"
	"fmt"

	"github.com/jisap/threads-clone/internal/config"
	"github.com/jisap/threads-clone/internal/domain"
	"github.com/jisap/threads-clone/internal/storage/fs"
)

// Uploader stores a validated file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, file *domain.PendingFile) (string, error)
}

// New builds the uploader selected by upload.backend.
func New(cfg *config.Config) (Uploader, error) {
	switch cfg.Public.Upload.Backend {
	case "hosted":
		return NewHosted(cfg.Public.Upload.Endpoint, cfg.Private.UploadAPIKey, nil), nil
	case "fs":
		store, err := fs.New(cfg.Public.Upload.MediaPath)
		if err != nil {
			return nil, err
		}
		return NewLocal(store, cfg.Public.Upload.MediaURLPrefix), nil
	}
	return nil, fmt.Errorf("unknown upload backend %q", cfg.Public.Upload.Backend)
}
