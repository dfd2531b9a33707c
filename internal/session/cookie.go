// Package session identifies browsing sessions and owns one cart store per
// session.
package session

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

type idKey struct{}

// FromContext returns the session id stored by Middleware, or "".
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(idKey{}).(string); ok {
		return id
	}
	return ""
}

// WithID returns a context carrying session id.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, idKey{}, id)
}

// Middleware makes sure every request belongs to a session. A missing or
// malformed cookie gets a fresh UUID; the cookie is refreshed on every
// response so active sessions do not expire.
func Middleware(cfg CookieConfig) func(http.Handler) http.Handler {
	if cfg.Name == "" {
		cfg.Name = "kart_session"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(cfg.Name); err == nil {
				if u, err := uuid.Parse(c.Value); err == nil {
					id = u.String()
				}
			}
			if id == "" {
				id = uuid.New().String()
			}

			http.SetCookie(w, &http.Cookie{
				Name:     cfg.Name,
				Value:    id,
				Path:     "/",
				MaxAge:   int(cfg.MaxAge.Seconds()),
				HttpOnly: true,
				Secure:   cfg.Secure,
				SameSite: http.SameSiteLaxMode,
			})
			next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
		})
	}
}
