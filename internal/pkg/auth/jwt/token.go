package jwt

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
)

// ErrOpaqueToken is returned by Inspect for tokens that are not JWTs.
var ErrOpaqueToken = errors.New("token is not a JWT")

// BearerPrefix is the Authorization scheme used for every authenticated backend call.
const BearerPrefix = "Bearer "

// Bearer formats the Authorization header value for token.
func Bearer(token string) string {
	return BearerPrefix + token
}

// Inspect decodes the claims of tokenString without verifying its signature.
// Tokens are opaque to the client; a token that does not parse yields ErrOpaqueToken.
func Inspect(tokenString string) (*Claims, error) {
	if strings.Count(tokenString, ".") != 2 {
		return nil, ErrOpaqueToken
	}

	claims := &Claims{}

	parser := &jwt.Parser{}
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, ErrOpaqueToken
	}

	return claims, nil
}

// Expired reports whether tokenString is a JWT whose exp claim lies before now.
// Opaque tokens and JWTs without exp are never considered expired.
func Expired(tokenString string, now time.Time) bool {
	claims, err := Inspect(tokenString)
	if err != nil {
		return false
	}

	if claims.ExpiresAt == 0 {
		return false
	}

	return now.Unix() >= claims.ExpiresAt
}

// Subject returns the email the token was issued to, preferring the email claim over sub.
func Subject(tokenString string) string {
	claims, err := Inspect(tokenString)
	if err != nil {
		return ""
	}
	if claims.Email != "" {
		return claims.Email
	}
	return claims.Subject
}
