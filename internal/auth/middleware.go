package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rlbk/nodejs-backend/internal/model"
	"github.com/rlbk/nodejs-backend/internal/repository"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. With a plain string key like
// "user", ANY package that knows the string can read or shadow the value.
// A package-private type prevents collisions: only this package can create
// a contextKey, so only this package can attach or read the identity.
type contextKey string

const userKey contextKey = "user"

// AccessTokenCookie is the cookie the access token travels in. The refresh
// token uses its own cookie so the two lifetimes can differ.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// RequireAuth enforces authentication on protected routes.
//
// TOKEN EXTRACTION ORDER:
//  1. the "accessToken" HttpOnly cookie (browser clients)
//  2. the "Authorization: Bearer <token>" header (API clients)
//
// The cookie takes precedence when both are present. If neither is present
// the request fails with 401 immediately.
//
// After signature/expiry verification, the middleware loads the user by the
// token's subject — a valid token for a deleted account must NOT pass. The
// lookup is sanitized (no digest, no refresh token), and the resulting
// record is attached to the request context for handlers to read via
// UserFromContext. A single verification failure is terminal; nothing is
// retried.
func RequireAuth(tokens *TokenService, users repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := ExtractAccessToken(r)
			if tokenStr == "" {
				writeUnauthorized(w, "unauthorized request")
				return
			}

			userID, _, err := tokens.ValidateAccessToken(tokenStr)
			if err != nil {
				writeUnauthorized(w, "invalid access token")
				return
			}

			user, err := users.GetSanitizedByID(r.Context(), userID)
			if err != nil {
				// Covers deleted accounts: the token is cryptographically
				// fine but its subject no longer exists.
				writeUnauthorized(w, "invalid access token")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext retrieves the authenticated user attached by RequireAuth.
//
// Returns (nil, false) if the request did not pass through RequireAuth —
// handlers on protected routes can rely on ok being true, but the check
// stays as a guard against miswired routes.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

// ExtractAccessToken pulls the access token out of a request: cookie first,
// Authorization header second. Returns "" when neither carries a token.
func ExtractAccessToken(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(after)
	}

	return ""
}

// writeUnauthorized sends the uniform error envelope with a 401.
// Duplicated from the handler package on purpose: handler imports auth for
// UserFromContext, so auth cannot import handler back.
func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"statusCode": http.StatusUnauthorized,
		"message":    message,
		"success":    false,
	})
}
