package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hnrobert/hostauth/internal/auth"
)

type ctxKey string

const ctxClaims ctxKey = "claims"

func withClaims(ctx context.Context, c *auth.Claims) context.Context {
	return context.WithValue(ctx, ctxClaims, c)
}

func claimsFrom(r *http.Request) *auth.Claims {
	if c, ok := r.Context().Value(ctxClaims).(*auth.Claims); ok {
		return c
	}
	return nil
}

func usernameFrom(r *http.Request) string {
	if c := claimsFrom(r); c != nil {
		return c.Username
	}
	return ""
}

// extractBearerToken reads "Authorization: Bearer <token>".
func extractBearerToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if authz == "" {
		return ""
	}
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// requireAuth is the authentication gate:
// NoToken -> TokenPresented -> Authenticated.
func (a *App) requireAuth(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			log.Debug().Str("path", r.URL.Path).Str("state", "NoToken").Msg("request rejected")
			writeError(w, http.StatusUnauthorized, auth.HumanAuthError(auth.ErrUnauthenticated))
			return
		}
		claims, err := a.tokens.Verify(token)
		if err != nil {
			log.Debug().Err(err).Str("path", r.URL.Path).Str("state", "TokenPresented").Msg("request rejected")
			writeError(w, http.StatusUnauthorized, auth.HumanAuthError(err))
			return
		}
		log.Debug().Str("user", claims.Username).Str("state", "Authenticated").Msg("token verified")
		h(w, r.WithContext(withClaims(r.Context(), claims)))
	}
}

// requireAdmin is the authorization gate. It must run after requireAuth and
// re-derives admin status on every request; any resolver failure denies.
func (a *App) requireAdmin(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := usernameFrom(r)
		if user == "" {
			writeError(w, http.StatusUnauthorized, auth.HumanAuthError(auth.ErrUnauthenticated))
			return
		}
		p := a.privileges.Resolve(r.Context(), user)
		ev := log.Debug().Str("user", user).Str("state", "PrivilegeChecked").
			Bool("groups_known", p.GroupsKnown).Str("sudo", p.Sudo.String())
		if !p.IsAdmin() {
			ev.Str("result", "Denied").Msg("authorization")
			writeError(w, http.StatusForbidden, auth.HumanAuthError(auth.ErrInsufficientPrivilege))
			return
		}
		ev.Str("result", "Authorized").Msg("authorization")
		h(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Str("remote", remoteIP(r)).
			Msg("request")
	})
}
