package middleware

import (
	"fmt"
	"net"
	"net/http"

	internal_errors "github.com/jisap/threads-clone/internal/errors"
	"github.com/jisap/threads-clone/internal/middleware/ratelimiter"
	"github.com/jisap/threads-clone/internal/utils"
)

func RateLimit(rl *ratelimiter.KeyedLimiter, getKey func(r *http.Request) (string, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, err := getKey(r)
			if err != nil {
				utils.WriteErrorAndStatusCode(w, internal_errors.BadRequest(err.Error()))
				return
			}
			if !rl.Allow(key) {
				http.Error(w, "Rate limit exceeded, try again later", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IdentityOrIP keys signed-in visitors by their external id and everyone else by IP.
func IdentityOrIP(r *http.Request) (string, error) {
	if identity := GetIdentity(r); identity != nil {
		return "user_" + identity.Id, nil
	}
	ip, err := GetIP(r)
	if err != nil {
		return "", err
	}
	return "ip_" + ip, nil
}

// GetIP extracts the client IP from RemoteAddr. Forwarding headers are not trusted.
func GetIP(r *http.Request) (string, error) {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	if net.ParseIP(ip) == nil {
		return "", fmt.Errorf("invalid IP address: %s", ip)
	}
	return ip, nil
}
