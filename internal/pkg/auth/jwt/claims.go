package jwt

import "github.com/golang-jwt/jwt"

// Claims is the subset of the auth service's token claims the client reads.
// The client never verifies the signature; it only inspects expiry and the subject.
type Claims struct {
	// StandardClaims carries exp, iat, iss and sub.
	jwt.StandardClaims

	// Email is set by auth services that put the address in its own claim instead of sub.
	Email string `json:"email,omitempty"`

	// FullName is the display name, when the auth service includes it.
	FullName string `json:"fullName,omitempty"`
}
