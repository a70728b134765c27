package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/teamtodo/teamtodo-api/internal/constants"
)

const alphanumerics = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateToken returns an unguessable opaque token for sessions,
// password resets and invitation links.
func GenerateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// GenerateAPIKey returns a raw API key: a fixed prefix followed by 32
// random alphanumerics. The prefix makes keys recognizable in logs
// without revealing anything about the secret.
func GenerateAPIKey() (string, error) {
	secret := make([]byte, constants.APIKeySecretLength)
	max := big.NewInt(int64(len(alphanumerics)))
	for i := range secret {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random index: %w", err)
		}
		secret[i] = alphanumerics[n.Int64()]
	}
	return constants.APIKeyPrefix + string(secret), nil
}
