package upload

import (
	"context"
	"io"
	"strings"

	"github.com/jisap/threads-clone/internal/domain"
)

type MediaStorage interface {
	Save(data io.Reader, ext string) (string, error)
}

// Local stores files on disk and serves them under urlPrefix.
type Local struct {
	storage   MediaStorage
	urlPrefix string
}

func NewLocal(storage MediaStorage, urlPrefix string) *Local {
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	return &Local{storage: storage, urlPrefix: urlPrefix}
}

func (l *Local) Upload(ctx context.Context, file *domain.PendingFile) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := l.storage.Save(file.Data, ExtensionFor(file))
	if err != nil {
		return "", err
	}
	return l.urlPrefix + path, nil
}
