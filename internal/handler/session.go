package handler

import (
	"context"
	"net/http"

	"github.com/jisap/threads-clone/internal/domain"
	internal_errors "github.com/jisap/threads-clone/internal/errors"
	mw "github.com/jisap/threads-clone/internal/middleware"
)

type userKey struct{}

func getUser(r *http.Request) *domain.User {
	user, _ := r.Context().Value(userKey{}).(*domain.User)
	return user
}

func withUser(r *http.Request, user *domain.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userKey{}, user))
}

// LoadUser loads the profile of a signed-in visitor. Visitors without a
// finished profile are sent to onboarding. Anonymous visitors pass through.
func (h *Handler) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := mw.GetIdentity(r)
		if identity == nil {
			next.ServeHTTP(w, r)
			return
		}

		user, err := h.Users.Get(r.Context(), identity.Id)
		if err != nil {
			if internal_errors.IsNotFound(err) {
				http.Redirect(w, r, "/onboarding", http.StatusSeeOther)
				return
			}
			h.renderError(w, r, err)
			return
		}
		if !user.Onboarded {
			http.Redirect(w, r, "/onboarding", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, withUser(r, &user))
	})
}
