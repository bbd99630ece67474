package handler

import (
	"context"
	"html/template"
	"net/http"

	"github.com/jisap/threads-clone/internal/config"
	"github.com/jisap/threads-clone/internal/markdown"
	"github.com/jisap/threads-clone/internal/service"
	"github.com/jisap/threads-clone/internal/upload"
)

// WebhookVerifier checks the signature of an identity provider delivery.
type WebhookVerifier interface {
	Verify(headers http.Header, body []byte) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	Templates     map[string]*template.Template
	Public        config.Public
	TextProcessor *markdown.TextProcessor
	Threads       service.ThreadService
	Users         service.UserService
	Communities   service.CommunityService
	Uploader      upload.Uploader
	Webhooks      WebhookVerifier // nil when no webhook secret is configured
	Storage       Pinger
}

func New(
	templates map[string]*template.Template,
	publicCfg config.Public,
	textProcessor *markdown.TextProcessor,
	threads service.ThreadService,
	users service.UserService,
	communities service.CommunityService,
	uploader upload.Uploader,
	webhooks WebhookVerifier,
	storage Pinger,
) *Handler {
	return &Handler{
		Templates:     templates,
		Public:        publicCfg,
		TextProcessor: textProcessor,
		Threads:       threads,
		Users:         users,
		Communities:   communities,
		Uploader:      uploader,
		Webhooks:      webhooks,
		Storage:       storage,
	}
}
