package auth

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is an unexported type for context keys in this package.
// A package-private key type means no other package can read or shadow
// the claims we store — plain string keys would collide.
type contextKey struct{}

var claimsKey contextKey

// RequireAuth enforces authentication on protected routes.
//
// It reads the "Authorization: Bearer <jwt>" header, verifies the token,
// and stores the claims in the request context. Missing or invalid
// tokens end the chain with 401 — handlers behind this middleware can
// assume ClaimsFromContext succeeds.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := bearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}

			claims, err := tokens.Validate(tokenStr)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext retrieves the verified token claims for the request.
// Returns (nil, false) on routes not behind RequireAuth.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok && claims != nil
}

// SubjectFromContext returns the authenticated user's ID — the token's
// "sub" claim, which is the sole authority for ownership checks.
func SubjectFromContext(ctx context.Context) (string, bool) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return "", false
	}
	return claims.Subject, true
}

// bearerToken extracts the credential from the Authorization header.
// The scheme comparison is case-insensitive per RFC 7235.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
}
