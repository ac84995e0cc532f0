// Package auth provides the bearer-token middleware that extracts the
// authenticated identity id supplied by the credential collaborator.
// The engine trusts this id once presented; credential hashing and session
// issuance live outside this module.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	id "creditnet/pkg/domain"
	"creditnet/pkg/requestcontext"
)

type identityIDKey struct{}

// Claims are the JWT claims the credential layer issues for engine calls.
type Claims struct {
	IdentityID string `json:"identity_id"`
	jwt.RegisteredClaims
}

// GetIdentityID returns the authenticated identity id from the context.
// Returns the nil id if the request was not authenticated.
func GetIdentityID(ctx context.Context) id.IdentityID {
	if v, ok := ctx.Value(identityIDKey{}).(id.IdentityID); ok {
		return v
	}
	return id.IdentityID{}
}

// WithIdentityID injects an identity id into the context. Exported for tests.
func WithIdentityID(ctx context.Context, identityID id.IdentityID) context.Context {
	return context.WithValue(ctx, identityIDKey{}, identityID)
}

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireBearer validates the Authorization header and stores the identity id
// in the request context. Requests without a valid token are rejected.
func RequireBearer(signingKey []byte, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			header := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "bearer token required")
				return
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return signingKey, nil
			})
			if err != nil || !token.Valid {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}

			identityID, err := id.ParseIdentityID(claims.IdentityID)
			if err != nil || identityID.IsNil() {
				logger.WarnContext(ctx, "unauthorized access - token missing identity claim",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "token missing identity claim")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentityID(ctx, identityID)))
		})
	}
}
