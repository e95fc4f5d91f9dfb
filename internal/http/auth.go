package httpapi

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey string

const userIDKey contextKey = "userId"

// extractUser trusts the identity set by the reverse proxy in front of the
// server (Traefik BasicAuth, oauth2-proxy, ...).
func (s *Server) extractUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-Auth-User")
		if userID == "" {
			userID = r.Header.Get("X-Forwarded-User")
		}
		if userID == "" {
			userID = r.Header.Get("Remote-User")
		}

		if userID == "" && s.devUser != "" {
			userID = s.devUser
			s.logger.Debug("no auth header, using dev user", slog.String("user_id", userID))
		}

		if userID == "" {
			s.logger.Warn("authentication failed: no user header found", slog.String("path", r.URL.Path))
			respondError(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserID returns the authenticated user of a request.
func UserID(r *http.Request) string {
	userID, ok := r.Context().Value(userIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}
