package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	id "courtyard/pkg/domain"
	dErrors "courtyard/pkg/domain-errors"
	"courtyard/pkg/platform/httputil"
	"courtyard/pkg/requestcontext"
)

// TokenValidator checks an access token and yields the account it belongs to.
type TokenValidator interface {
	ExtractAccountID(tokenString string) (id.AccountID, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// authenticated account ID in the request context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized request, missing token",
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}

			accountID, err := validator.ExtractAccountID(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized request, invalid token",
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithAccountID(ctx, accountID)))
		})
	}
}
