package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// userTokenPrefix is the prefix used for generated user tokens.
const userTokenPrefix = "adb_"

// GenerateUserToken creates a new random user token string.
func GenerateUserToken() (token string, err error) {
	secret := make([]byte, 32)
	if _, err = io.ReadFull(rand.Reader, secret); err != nil {
		return "", fmt.Errorf("generate user token: %w", err)
	}
	secretHex := hex.EncodeToString(secret)
	token = userTokenPrefix + secretHex
	return token, nil
}

// GenerateRandomString returns a hex-encoded random string of the given length.
func GenerateRandomString(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := io.ReadFull(rand.Reader, bytes); err != nil {
		return "", fmt.Errorf("generate random string: %w", err)
	}
	return hex.EncodeToString(bytes)[:length], nil
}
