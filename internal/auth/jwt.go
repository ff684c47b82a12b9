// Package auth provides the pieces of the authentication flow: JWT
// issuing/verification, the GitHub OAuth code exchange, and the bearer
// token middleware.
//
// FLOW:
//  1. The client obtains an authorization code from GitHub and POSTs it
//     to /api/auth/register.
//  2. The server exchanges the code for a GitHub profile, finds or
//     creates the local user, and returns a signed JWT.
//  3. Subsequent requests carry "Authorization: Bearer <jwt>". The
//     middleware verifies the signature and expiry and puts the claims
//     in the request context.
//
// The JWT is a bearer credential: possession is proof. There is no
// server-side session or revocation list — a token is good until it
// expires (7 days).
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/spacetime/internal/apperror"
	"github.com/sakif/spacetime/internal/model"
)

// TokenTTL is how long an issued token stays valid.
const TokenTTL = 7 * 24 * time.Hour

const issuer = "spacetime"

// Claims is the JWT payload. The Subject (sub) registered claim holds
// the internal user ID and is the only field authorization decisions
// ever look at. Name and AvatarURL are denormalized display data carried
// for the client's convenience — never trusted for access control.
type Claims struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies JWTs with a single process-wide HMAC
// secret. The same secret must be used for both operations; rotation is
// out of scope.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService. The secret should be at least
// 32 bytes of random data in production (openssl rand -hex 32); we
// reject anything under 16 to catch obvious misconfiguration.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// Generate issues a token for the given user with the standard 7-day TTL.
//
// Signing algorithm is HS256 (HMAC-SHA256): symmetric, one key for both
// signing and verifying — the right trade-off for a single-service
// deployment.
func (s *TokenService) Generate(user *model.User) (string, error) {
	return s.GenerateWithDuration(user, TokenTTL)
}

// GenerateWithDuration issues a token with a custom TTL. Exists so tests
// can mint already-expired tokens; production code uses Generate.
func (s *TokenService) GenerateWithDuration(user *model.User, d time.Duration) (string, error) {
	now := time.Now()

	c := Claims{
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a token string and returns its claims.
//
// All failure modes — malformed token, bad signature, expiry (checked
// against the wall clock at verification time), wrong issuer, wrong
// algorithm — come back as apperror.ErrUnauthorized, with a message
// that distinguishes expiry from the rest.
//
// jwt.WithValidMethods pins the algorithm to HS256 so a token with
// alg=none (or an RSA public-key confusion) is rejected outright.
func (s *TokenService) Validate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperror.Unauthorized("token expired")
		}
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, apperror.Unauthorized("malformed token")
		}
		return nil, apperror.Unauthorized("invalid token")
	}

	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperror.Unauthorized("invalid token claims")
	}
	if c.Subject == "" {
		return nil, apperror.Unauthorized("token has no subject")
	}

	return c, nil
}
