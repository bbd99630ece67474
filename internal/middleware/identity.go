package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jisap/threads-clone/internal/auth"
	"github.com/jisap/threads-clone/internal/domain"
	internal_errors "github.com/jisap/threads-clone/internal/errors"
	"github.com/jisap/threads-clone/internal/logger"
	"github.com/jisap/threads-clone/internal/utils"
)

type identityKey int

const identityContextKey identityKey = 0

// LoadIdentity resolves the visitor and stores it in the request context.
// Anonymous visitors and rejected tokens pass through without an identity.
func LoadIdentity(provider auth.IdentityProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := provider.CurrentIdentity(r)
			if err != nil {
				if !errors.Is(err, auth.ErrNoSession) {
					logger.FromContext(r.Context()).Debug("ignoring session", "path", r.URL.Path, "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func WithIdentity(ctx context.Context, identity *domain.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// GetIdentity returns nil for anonymous visitors.
func GetIdentity(r *http.Request) *domain.Identity {
	identity, _ := r.Context().Value(identityContextKey).(*domain.Identity)
	return identity
}

// RequireIdentity sends anonymous page visitors to the sign-in page and
// answers 401 on /api routes.
func RequireIdentity(signInURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetIdentity(r) != nil {
				next.ServeHTTP(w, r)
				return
			}
			if strings.HasPrefix(r.URL.Path, "/api/") {
				utils.WriteErrorAndStatusCode(w, internal_errors.Unauthorized("Please sign in"))
				return
			}
			http.Redirect(w, r, signInURL, http.StatusSeeOther)
		})
	}
}
