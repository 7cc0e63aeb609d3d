package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"artisan_dispo/internal/domain"
	"artisan_dispo/internal/lib/jwt"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type ctxKey string

const claimsKey ctxKey = "auth_claims"

// loggingMiddleware logs every request with its chi request id.
func loggingMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			level := slog.LevelInfo
			if ww.Status() >= http.StatusInternalServerError {
				level = slog.LevelError
			} else if ww.Status() >= http.StatusBadRequest {
				level = slog.LevelWarn
			}

			log.Log(r.Context(), level, "http request",
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("latency", time.Since(start)),
				slog.String("remote", r.RemoteAddr),
			)
		})
	}
}

// authMiddleware requires a valid bearer token and stores the claims in the
// request context.
func authMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				sendError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "missing bearer token")
				return
			}

			claims, err := jwt.ParseToken(token, secret)
			if err != nil {
				sendError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requireRole rejects authenticated requests from the wrong role.
func requireRole(role domain.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := claimsFrom(r.Context())
			if !ok {
				sendError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "missing bearer token")
				return
			}
			if claims.Role != role {
				sendError(w, http.StatusForbidden, ErrCodeForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func claimsFrom(ctx context.Context) (jwt.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(jwt.Claims)
	return claims, ok
}

// userIDFrom extracts the authenticated user's id.
func userIDFrom(ctx context.Context) (uuid.UUID, bool) {
	claims, ok := claimsFrom(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return claims.UserID, true
}
