package http

import (
	"context"
	"net/http"
	"strings"

	"ecobank/internal/core"
	"ecobank/internal/session"
)

type ctxKey string

const claimsKey ctxKey = "session_claims"

// requireSession rejects requests without a valid, unrevoked bearer token
// and stores the claims in the request context.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			w.Header().Set("WWW-Authenticate", `Bearer realm="ecobank"`)
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := s.sessions.Parse(token)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="ecobank", error="invalid_token"`)
			writeServiceError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole lets only sessions with role through. Admins get the admin
// view and users their own ledger; neither may use the other's routes.
func requireRole(role core.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := claimsFrom(r.Context())
			if claims == nil || claims.Role != role {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func claimsFrom(ctx context.Context) *session.Claims {
	c, _ := ctx.Value(claimsKey).(*session.Claims)
	return c
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
