/*
Package user contains the identity record of the signed-in user.

It is the second of the two persisted session slots (the first being the token), stored
as JSON so the session can be rehydrated after a restart without asking the auth service.
*/
package user

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrInvalidIdentity is returned when a persisted identity record cannot be used.
var ErrInvalidIdentity = errors.New("invalid identity record")

// Identity is the minimal user record kept alongside the credential token.
type Identity struct {
	// Email is the address the user signed in with.
	Email string `json:"email"`

	// FullName is only present when the user registered on this device
	// or the auth service returned it at login.
	FullName string `json:"fullName,omitempty"`
}

// DisplayName returns the full name, falling back to the email's local part.
func (i Identity) DisplayName() string {
	if i.FullName != "" {
		return i.FullName
	}
	name, _, _ := strings.Cut(i.Email, "@")
	return name
}

// Encode serializes the identity for the persisted slot.
func (i Identity) Encode() (string, error) {
	b, err := json.Marshal(i)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Decode parses a persisted identity slot. A record without an email is invalid.
func Decode(raw string) (Identity, error) {
	var id Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		return Identity{}, errors.Join(ErrInvalidIdentity, err)
	}
	if strings.TrimSpace(id.Email) == "" {
		return Identity{}, ErrInvalidIdentity
	}
	return id, nil
}
