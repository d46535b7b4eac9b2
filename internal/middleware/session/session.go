// Package session resolves the acting user for each request. There is no
// authentication; the user ID comes from a trusted header, a cookie or the
// configured default.
package session

import (
	"context"
	"net/http"
	"strings"

	"walletgenie/internal/core"
	"walletgenie/internal/log"
)

const (
	HeaderUserID = "X-User-ID"
	CookieName   = "wg_user"
)

type contextKey struct{}

// Resolver picks the user for a request.
type Resolver struct {
	defaultUser string
	valid       func(string) bool
	logger      *log.Logger
}

// NewResolver falls back to defaultUser. valid rejects malformed IDs, which
// are then ignored.
func NewResolver(defaultUser string, valid func(string) bool, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Resolver{
		defaultUser: defaultUser,
		valid:       valid,
		logger:      logger.WithComponent(log.ComponentSession),
	}
}

// Resolve returns the session for r.
func (s *Resolver) Resolve(r *http.Request) core.Session {
	candidates := []struct {
		source, value string
	}{
		{"header", r.Header.Get(HeaderUserID)},
	}
	if c, err := r.Cookie(CookieName); err == nil {
		candidates = append(candidates, struct{ source, value string }{"cookie", c.Value})
	}

	for _, c := range candidates {
		id := strings.TrimSpace(c.value)
		if id == "" {
			continue
		}
		if s.valid != nil && !s.valid(id) {
			s.logger.WarnContext(r.Context(), "Ignoring malformed user ID", "source", c.source)
			continue
		}
		return core.Session{UserID: id}
	}
	return core.Session{UserID: s.defaultUser}
}

func (s *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s.Resolve(r))))
	})
}

func WithSession(ctx context.Context, sess core.Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// FromContext returns the request session and whether one was set.
func FromContext(ctx context.Context) (core.Session, bool) {
	sess, ok := ctx.Value(contextKey{}).(core.Session)
	return sess, ok
}

// UserID is FromContext for callers that only need the ID.
func UserID(r *http.Request) string {
	sess, _ := FromContext(r.Context())
	return sess.UserID
}
