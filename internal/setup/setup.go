package setup

import (
	"context"
	"fmt"

	"github.com/jisap/threads-clone/internal/auth"
	"github.com/jisap/threads-clone/internal/config"
	"github.com/jisap/threads-clone/internal/handler"
	"github.com/jisap/threads-clone/internal/logger"
	"github.com/jisap/threads-clone/internal/markdown"
	"github.com/jisap/threads-clone/internal/middleware/ratelimiter"
	"github.com/jisap/threads-clone/internal/service"
	"github.com/jisap/threads-clone/internal/storage/mongodb"
	"github.com/jisap/threads-clone/internal/upload"
	"github.com/jisap/threads-clone/web"
)

type Dependencies struct {
	Config       *config.Config
	Storage      *mongodb.Storage
	Handler      *handler.Handler
	Identity     auth.IdentityProvider
	WriteLimiter *ratelimiter.KeyedLimiter
}

func SetupDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	templates, err := handler.LoadTemplates(web.Templates, web.TemplatesDir)
	if err != nil {
		return nil, err
	}

	identity, err := auth.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session verifier: %w", err)
	}

	var webhooks handler.WebhookVerifier
	if cfg.Private.WebhookSecret != "" {
		verifier, err := auth.NewWebhookVerifier(cfg.Private.WebhookSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize webhook verifier: %w", err)
		}
		webhooks = verifier
	} else {
		logger.Log.Warn("webhook secret is not set, organization webhooks are disabled")
	}

	uploader, err := upload.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize uploader: %w", err)
	}

	store, err := mongodb.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	validator := service.NewValidator(cfg.Public.Validation)
	h := handler.New(
		templates,
		cfg.Public,
		markdown.New(),
		service.NewThread(store, validator, cfg.Public.Pagination),
		service.NewUser(store, validator, cfg.Public.Pagination),
		service.NewCommunity(store, cfg.Public.Pagination),
		uploader,
		webhooks,
		store,
	)

	rl := cfg.Public.RateLimit
	return &Dependencies{
		Config:       cfg,
		Storage:      store,
		Handler:      h,
		Identity:     identity,
		WriteLimiter: ratelimiter.New(rl.Rate, rl.Burst, rl.IdleExpiration),
	}, nil
}

// Close stops background work and disconnects from the database.
func (d *Dependencies) Close() error {
	d.WriteLimiter.Stop()
	return d.Storage.Cleanup()
}
