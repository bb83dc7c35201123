// Package auth issues and verifies the signed visitor-tracking cookie.
// The token is best-effort identity, not an authentication credential:
// it only lets a returning browser map back to the same User row.
package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName matches the cookie the original clients already carry.
const CookieName = "user_id"

const cookieTTL = 365 * 24 * time.Hour

type Tokens struct {
	secret []byte
}

func NewTokens(secret string) *Tokens {
	return &Tokens{secret: []byte(secret)}
}

func (t *Tokens) Sign(userID uint64, trackingToken string) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"tok": trackingToken,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(cookieTTL).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(t.secret)
}

// Verify returns the user id and tracking token embedded in the cookie
// value. Any parse or signature problem is reported as a single opaque
// error; callers fall back to creating a fresh visitor.
func (t *Tokens) Verify(tokenStr string) (uint64, string, error) {
	parsed, err := jwt.Parse(tokenStr, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	})
	if err != nil || !parsed.Valid {
		return 0, "", errors.New("invalid token")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", errors.New("invalid claims")
	}

	// jwt MapClaims numbers are float64
	idf, ok := claims["sub"].(float64)
	if !ok {
		return 0, "", errors.New("invalid sub claim")
	}
	tok, ok := claims["tok"].(string)
	if !ok || tok == "" {
		return 0, "", errors.New("invalid tok claim")
	}
	return uint64(idf), tok, nil
}

// SetCookie attaches the tracking cookie the way the original server
// did: HttpOnly, Secure, SameSite=None so the SPA origin can carry it.
func SetCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(cookieTTL),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}
