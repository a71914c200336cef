// Package cryptoutil encrypts values stored at rest.
package cryptoutil

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Encryptor encrypts and decrypts column values. The associated data binds a
// ciphertext to its owning row so it cannot be replayed onto another one.
type Encryptor interface {
	Encrypt(plaintext, aad []byte) (string, error)
	Decrypt(ciphertext string, aad []byte) ([]byte, error)
}

const (
	// Versioned prefix to allow future key/algorithm rotations without data migrations.
	cipherPrefixV1 = "v1:"
	noopPrefix     = "noop:"
)

// ErrUnknownVersion is returned for ciphertexts without a recognised prefix.
var ErrUnknownVersion = errors.New("unknown ciphertext version")

// AESGCMEncryptor implements Encryptor using AES-256-GCM.
type AESGCMEncryptor struct {
	aead cipher.AEAD
}

// NewAESGCMEncryptor constructs a new AESGCMEncryptor. Key must be 32 bytes (AES-256).
func NewAESGCMEncryptor(key []byte) (*AESGCMEncryptor, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("aes-gcm key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &AESGCMEncryptor{aead: aead}, nil
}

// Encrypt seals plaintext with a random nonce and returns "v1:" + base64(nonce||ciphertext).
func (e *AESGCMEncryptor) Encrypt(plaintext, aad []byte) (string, error) {
	nonce := make([]byte, e.aead.NonceSize(), e.aead.NonceSize()+len(plaintext)+e.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}
	sealed := e.aead.Seal(nonce, nonce, plaintext, aad)
	return cipherPrefixV1 + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt. Values written by NoopEncryptor
// before a key was configured are still readable.
func (e *AESGCMEncryptor) Decrypt(ciphertext string, aad []byte) ([]byte, error) {
	if strings.HasPrefix(ciphertext, noopPrefix) {
		return NoopEncryptor{}.Decrypt(ciphertext, aad)
	}
	if !strings.HasPrefix(ciphertext, cipherPrefixV1) {
		return nil, fmt.Errorf("%w (prefix: %s)", ErrUnknownVersion, prefixOf(ciphertext))
	}
	data, err := base64.StdEncoding.DecodeString(ciphertext[len(cipherPrefixV1):])
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}
	ns := e.aead.NonceSize()
	if len(data) < ns+e.aead.Overhead() {
		return nil, errors.New("ciphertext too short")
	}
	return e.aead.Open(nil, data[:ns], data[ns:], aad)
}

// NoopEncryptor stores base64 plaintext with a marker prefix. Used when no key is configured.
type NoopEncryptor struct{}

func (NoopEncryptor) Encrypt(plaintext, _ []byte) (string, error) {
	return noopPrefix + base64.StdEncoding.EncodeToString(plaintext), nil
}

func (NoopEncryptor) Decrypt(ciphertext string, _ []byte) ([]byte, error) {
	if !strings.HasPrefix(ciphertext, noopPrefix) {
		return nil, errors.New("invalid noop ciphertext")
	}
	return base64.StdEncoding.DecodeString(ciphertext[len(noopPrefix):])
}

func prefixOf(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}
