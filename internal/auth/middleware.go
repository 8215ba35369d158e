package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/internhub/internhub/internal/platform/httpx"
	"github.com/internhub/internhub/internal/shared"
)

// TokenHeader carries the bearer credential.
const TokenHeader = "x-auth-token"

// Verifier validates a raw credential.
type Verifier interface {
	Verify(raw string) (shared.Principal, error)
}

// Authenticate rejects requests without a valid credential and stores the
// verified principal in the request context.
func Authenticate(verifier Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := credentialFrom(r)
			if raw == "" {
				httpx.RespondError(w, httpx.Errorf(httpx.ErrUnauthenticated, "No token, authorization denied"))
				return
			}
			principal, err := verifier.Verify(raw)
			if err != nil {
				if logger != nil {
					logger.Debug("token rejected", slog.Any("error", err))
				}
				httpx.RespondError(w, httpx.Errorf(httpx.ErrInvalidToken, "Token is not valid"))
				return
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

func credentialFrom(r *http.Request) string {
	if raw := strings.TrimSpace(r.Header.Get(TokenHeader)); raw != "" {
		return raw
	}
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(authz) > 7 && strings.EqualFold(authz[:7], "bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	return ""
}
