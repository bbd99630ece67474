package router

import (
	"io/fs"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jisap/threads-clone/internal/auth"
	"github.com/jisap/threads-clone/internal/config"
	"github.com/jisap/threads-clone/internal/handler"
	"github.com/jisap/threads-clone/internal/metrics"
	mw "github.com/jisap/threads-clone/internal/middleware"
	"github.com/jisap/threads-clone/internal/middleware/ratelimiter"
	"github.com/jisap/threads-clone/web"
)

// form fields and multipart framing on top of the largest allowed file
const formOverhead = 1 << 20

type Options struct {
	Public       config.Public
	Handler      *handler.Handler
	Identity     auth.IdentityProvider
	WriteLimiter *ratelimiter.KeyedLimiter
}

// New builds the router. Write endpoints share one per-visitor rate limiter.
func New(opts Options) http.Handler {
	cfg := opts.Public
	h := opts.Handler
	signIn := cfg.Auth.SignInURL
	writeLimit := mw.RateLimit(opts.WriteLimiter, mw.IdentityOrIP)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(mw.RequestID)
	r.Use(metrics.Middleware)
	r.Use(chimw.Compress(5))
	r.Use(mw.SecurityHeadersWithCSP(cfg.SecureCookies, mw.DefaultCSP))
	r.Use(chimw.RequestSize(cfg.Upload.MaxFileSize + formOverhead))
	r.Use(mw.LoadIdentity(opts.Identity))

	// Ops
	r.Get("/healthz", h.Health)
	r.Get("/readyz", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	// Assets
	static, err := fs.Sub(web.Static, "static")
	if err != nil {
		panic(err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	if cfg.Upload.Backend == "fs" {
		prefix := "/" + strings.Trim(cfg.Upload.MediaURLPrefix, "/") + "/"
		r.Handle(prefix+"*", http.StripPrefix(prefix, http.FileServer(http.Dir(cfg.Upload.MediaPath))))
	}

	// JSON API
	r.Route("/api", func(api chi.Router) {
		api.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Content-Type", "Authorization", mw.CSRFHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))

		api.Post("/webhook/clerk", h.WebhookHandler)

		api.Group(func(signedIn chi.Router) {
			signedIn.Use(mw.RequireIdentity(signIn))
			signedIn.With(writeLimit).Post("/upload", h.UploadHandler)
		})
	})

	// Pages
	r.Group(func(pages chi.Router) {
		pages.Use(mw.GenerateCSRFToken(mw.CSRFConfig{SecureCookies: cfg.SecureCookies}))
		pages.Use(mw.ValidateCSRFToken())

		pages.With(h.LoadUser).Get("/", h.Home)

		// onboarding must stay reachable before the profile exists
		pages.Group(func(onboarding chi.Router) {
			onboarding.Use(mw.RequireIdentity(signIn))
			onboarding.Get("/onboarding", h.OnboardingGetHandler)
			onboarding.With(writeLimit).Post("/onboarding", h.OnboardingPostHandler)
		})

		pages.Group(func(signedIn chi.Router) {
			signedIn.Use(mw.RequireIdentity(signIn))
			signedIn.Use(h.LoadUser)

			signedIn.Get("/search", h.SearchHandler)
			signedIn.Get("/activity", h.ActivityHandler)
			signedIn.Get("/communities", h.CommunitiesHandler)
			signedIn.Get("/communities/{id}", h.CommunityHandler)

			signedIn.Get("/thread/{id}", h.ThreadGetHandler)
			signedIn.With(writeLimit).Post("/thread/{id}/comment", h.CommentPostHandler)
			signedIn.Post("/thread/{id}/delete", h.ThreadDeleteHandler)

			signedIn.Get("/create-thread", h.CreateThreadGetHandler)
			signedIn.With(writeLimit).Post("/create-thread", h.CreateThreadPostHandler)

			signedIn.Get("/profile/edit", h.ProfileEditGetHandler)
			signedIn.With(writeLimit).Post("/profile/edit", h.ProfileEditPostHandler)
			signedIn.Get("/profile/{id}", h.ProfileHandler)
		})
	})

	return r
}
