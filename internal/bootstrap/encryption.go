package bootstrap

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/target/secretshare/internal/data/cryptoutil"
)

const aesKeyLen = 32

// CreateEncryptor builds the at-rest encryptor for user secrets.
// A 64-character hex key is used as-is; any other non-empty key is stretched with SHA-256.
// An empty key yields a noop encryptor, which config validation only permits in development.
//
//nolint:ireturn // Returning interface is intentional for encryptor abstraction
func CreateEncryptor(key string, logger *slog.Logger) (cryptoutil.Encryptor, error) {
	if key == "" {
		if logger != nil {
			logger.Warn("encryption key is empty, secrets are stored in plaintext")
		}
		return cryptoutil.NoopEncryptor{}, nil
	}

	enc, err := cryptoutil.NewAESGCMEncryptor(deriveKey(key))
	if err != nil {
		return nil, fmt.Errorf("create encryptor: %w", err)
	}
	return enc, nil
}

func deriveKey(key string) []byte {
	if decoded, err := hex.DecodeString(key); err == nil && len(decoded) == aesKeyLen {
		return decoded
	}
	sum := sha256.Sum256([]byte(key))
	return sum[:]
}
