/*
Package randx provides functions for generating unique identifiers.

It is used for outbound request ids, checkout session ids and object keys for
uploaded event images.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	// Base62Chars defines the character set used for Base62 encoding (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the total number of characters in the Base62 character set (62).
	Base62Len = int64(len(Base62Chars))

	// ClientIDLength is the length of the Base62 id given to each attached UI connection.
	ClientIDLength = 8

	// AssetKeyPrefix is the object key prefix for uploaded event images.
	AssetKeyPrefix = "events"
)

// RequestID generates a UUID v4 string for the X-Request-ID header of backend calls.
func RequestID() string {
	return uuid.New().String()
}

// CheckoutID generates a UUID v4 string identifying one checkout session.
func CheckoutID() string {
	return uuid.New().String()
}

// AssetKey builds a unique object key for an uploaded image, keeping its lowercased extension.
func AssetKey(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("%s/%s%s", AssetKeyPrefix, uuid.New().String(), ext)
}

// ClientID generates a Base62 id for an attached UI connection using crypto/rand.
func ClientID() (string, error) {
	result := make([]byte, ClientIDLength)

	for i := range ClientIDLength {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number for client id: %v", err)
		}

		result[i] = Base62Chars[num.Int64()]
	}

	return string(result), nil
}
