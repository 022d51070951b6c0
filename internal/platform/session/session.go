// Package session manages server-side login sessions. The store maps an
// opaque token to an account id; the cookie carries the token wrapped in a
// signed JWT so tampered cookies are rejected before any store lookup.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/careportal/careportal/internal/platform/errs"
)

// CookieName is the session cookie set on login and cleared on logout.
const CookieName = "portal_session"

// Store is the session backend. Lookup returns a NotFoundError for unknown
// or expired tokens and a BackendUnavailableError when the backend itself
// fails, so the gate can tell "not logged in" from "backend down".
type Store interface {
	Create(ctx context.Context, accountID uuid.UUID, ttl time.Duration) (string, error)
	Lookup(ctx context.Context, token string) (uuid.UUID, error)
	Revoke(ctx context.Context, token string) error
}

type cookieClaims struct {
	jwt.RegisteredClaims
	SessionToken string `json:"sid"`
}

// SignCookie wraps the opaque session token in a compact signed JWT for
// transport in the cookie.
func SignCookie(secret []byte, token string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := cookieClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		SessionToken: token,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseCookie verifies the cookie signature and returns the opaque session
// token. Invalid or expired cookies return a NotFoundError so callers treat
// them as "not logged in".
func ParseCookie(secret []byte, value string) (string, error) {
	claims := &cookieClaims{}
	tok, err := jwt.ParseWithClaims(value, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !tok.Valid || claims.SessionToken == "" {
		return "", errs.NotFound("session")
	}
	return claims.SessionToken, nil
}
