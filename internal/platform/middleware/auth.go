package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"bloodline/pkg/domain"
	"bloodline/pkg/requestcontext"
)

// ActorValidator validates a bearer token and yields the acting identity.
type ActorValidator interface {
	Validate(tokenString string) (domain.ActorID, domain.Role, error)
}

// RequireActor authenticates the caller from the Authorization header and
// injects actor id and role into the request context. Requests without a
// valid token never reach the handlers.
func RequireActor(validator ActorValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			actorID, role, err := validator.Validate(tokenString)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx = requestcontext.WithActor(ctx, actorID, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
