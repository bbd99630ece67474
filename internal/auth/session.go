package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jisap/threads-clone/internal/config"
	"github.com/jisap/threads-clone/internal/domain"
	internal_errors "github.com/jisap/threads-clone/internal/errors"
	"github.com/jisap/threads-clone/internal/logger"
)

var (
	ErrNoSession     = errors.New("no session token")
	errInvalidClaims = &internal_errors.ErrorWithStatusCode{Message: "Invalid session claims", StatusCode: http.StatusUnauthorized}
)

// IdentityProvider resolves the visitor of a request.
type IdentityProvider interface {
	CurrentIdentity(r *http.Request) (*domain.Identity, error)
}

// Session verifies session tokens issued by the hosted identity provider.
type Session struct {
	method     jwt.SigningMethod
	key        any
	cookieName string
}

func NewSession(cfg *config.Config) (*Session, error) {
	s := &Session{cookieName: cfg.Public.Auth.SessionCookie}
	switch cfg.Public.Auth.Algorithm {
	case "RS256":
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.Private.SessionKey))
		if err != nil {
			return nil, fmt.Errorf("can't parse session public key: %w", err)
		}
		s.method, s.key = jwt.SigningMethodRS256, key
	case "HS256":
		s.method, s.key = jwt.SigningMethodHS256, []byte(cfg.Private.SessionKey)
	default:
		return nil, fmt.Errorf("unsupported session algorithm %q", cfg.Public.Auth.Algorithm)
	}
	return s, nil
}

// CurrentIdentity returns ErrNoSession when the request carries no token.
func (s *Session) CurrentIdentity(r *http.Request) (*domain.Identity, error) {
	var tokenString string
	if cookie, err := r.Cookie(s.cookieName); err == nil {
		tokenString = cookie.Value
	} else if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		tokenString = token
	}
	if tokenString == "" {
		return nil, ErrNoSession
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return s.key, nil
	}, jwt.WithValidMethods([]string{s.method.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		logger.Log.Debug("rejected session token", "error", err)
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Invalid session token", StatusCode: http.StatusUnauthorized}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errInvalidClaims
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, errInvalidClaims
	}

	identity := &domain.Identity{Id: sub}
	identity.Name, _ = claims["name"].(string)
	identity.Username, _ = claims["username"].(string)
	identity.ImageUrl, _ = claims["image_url"].(string)
	if orgId, _ := claims["org_id"].(string); orgId != "" {
		identity.OrganizationId = &orgId
	}
	return identity, nil
}
