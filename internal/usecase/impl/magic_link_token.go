package impl

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	"academy/internal/errors"
)

const magicLinkTokenBytes = 32

// generateMagicLinkToken returns a URL-safe random token with 256 bits of entropy.
func generateMagicLinkToken() (string, error) {
	buf := make([]byte, magicLinkTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "failed to generate magic link token")
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// hashMagicLinkToken is the lookup key stored for a raw token.
func hashMagicLinkToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))

	return hex.EncodeToString(sum[:])
}
