// Package auth provides JWT issuance and validation for the user API.
//
// TWO TOKENS, TWO SECRETS:
// This app issues a short-lived ACCESS token (proves identity on protected
// requests) and a longer-lived REFRESH token (mints new access tokens).
// Each kind is signed with its own secret, so a refresh token presented as
// an access token fails signature verification outright — the two credential
// classes can never be confused.
//
// The refresh token is additionally persisted on the user record; it is only
// honoured while it equals that stored value. Rotation on every refresh plus
// that equality check is the app's sole revocation mechanism.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: algorithm + token type → {"alg":"HS256","typ":"JWT"}
//	- Payload: claims → {"sub":"userID","email":"...","exp":1234567890}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
//
// The server verifies the signature with nothing but the secret — no DB
// lookup needed for the access path.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

const issuer = "user-backend"

// TokenService issues and validates access and refresh tokens.
//
// It holds both HMAC secrets and both lifetimes, supplied from configuration
// at startup. The service itself is stateless — it never stores a token.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenService creates a TokenService.
//
// Both secrets must be at least 16 characters and must differ from each
// other; in production use 32+ bytes of randomness for each:
//
//	ACCESS_SECRET=$(openssl rand -hex 32)
func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*TokenService, error) {
	if len(accessSecret) < 16 || len(refreshSecret) < 16 {
		return nil, errors.New("auth: token secrets must be at least 16 characters")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("auth: access and refresh secrets must differ")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("auth: token lifetimes must be positive")
	}
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

// Claims is the JWT payload for both token kinds: the standard registered
// claims (Subject carries the user ID) plus the user's email.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// GenerateAccessToken creates and signs a short-lived access token for the
// given user.
func (s *TokenService) GenerateAccessToken(userID, email string) (string, error) {
	return s.generate(userID, email, s.accessSecret, s.accessTTL)
}

// GenerateRefreshToken creates and signs a longer-lived refresh token for
// the given user. The caller is responsible for persisting it on the user
// record — an unpersisted refresh token is rejected at refresh time.
func (s *TokenService) GenerateRefreshToken(userID, email string) (string, error) {
	return s.generate(userID, email, s.refreshSecret, s.refreshTTL)
}

func (s *TokenService) generate(userID, email string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()

	c := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
			// Unique per token. Timestamps only have second precision, so
			// without an ID two tokens minted back-to-back for the same user
			// would be byte-identical — and rotation would be a no-op.
			ID: xid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// ValidateAccessToken verifies an access token and returns the userID and
// email it encodes.
func (s *TokenService) ValidateAccessToken(tokenStr string) (userID, email string, err error) {
	return s.validate(tokenStr, s.accessSecret)
}

// ValidateRefreshToken verifies a refresh token's signature and expiry and
// returns the userID and email it encodes.
//
// NOTE: a cryptographically valid refresh token is not necessarily a LIVE
// one — the caller must still compare it against the value stored on the
// user record. Rotation means only the most recently issued token matches.
func (s *TokenService) ValidateRefreshToken(tokenStr string) (userID, email string, err error) {
	return s.validate(tokenStr, s.refreshSecret)
}

// validate parses and verifies a JWT string against the given secret.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with, right secret)
//   - Token is not expired (ExpiresAt is in the future)
//   - Issuer matches (prevents tokens minted by other apps)
//   - Algorithm is HS256 (prevents algorithm confusion attacks —
//     without jwt.WithValidMethods an attacker could present an
//     alg:"none" token and some parsers would accept it)
func (s *TokenService) validate(tokenStr string, secret []byte) (string, string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", "", fmt.Errorf("auth: token expired")
		}
		return "", "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", "", fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return "", "", fmt.Errorf("auth: token has no subject")
	}

	return c.Subject, c.Email, nil
}
