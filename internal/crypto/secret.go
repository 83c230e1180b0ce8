// Package crypto implements at-rest encryption of credential secrets.
package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/avolkov86/passvault/internal/errs"
)

// KeySize is the required symmetric key length in bytes.
const KeySize = chacha20poly1305.KeySize

// DisplayPlaceholder is shown instead of a secret that cannot be decrypted.
const DisplayPlaceholder = "[decryption error]"

// SecretCipher encrypts and decrypts secret strings with a single static
// XChaCha20-Poly1305 key. The wire form is base64(nonce || sealed).
type SecretCipher struct {
	aead cipher.AEAD
}

// NewSecretCipher constructs a cipher over the provided 32-byte key.
func NewSecretCipher(key []byte) (*SecretCipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("secret key must be %d bytes, got %d", KeySize, len(key))
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return &SecretCipher{aead: aead}, nil
}

// ParseKey decodes a hex-encoded key and validates its length.
func ParseKey(hexKey string) ([]byte, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("secret key is not valid hex: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("secret key must be %d bytes, got %d", KeySize, len(key))
	}
	return key, nil
}

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// Encrypt seals plaintext with a fresh random nonce. Encrypting the same
// plaintext twice yields different ciphertexts.
func (c *SecretCipher) Encrypt(plaintext string) (string, error) {
	nonce, err := RandBytes(chacha20poly1305.NonceSizeX)
	if err != nil {
		return "", err
	}
	out := make([]byte, 0, len(nonce)+len(plaintext)+c.aead.Overhead())
	out = append(out, nonce...)
	out = append(out, c.aead.Seal(nil, nonce, []byte(plaintext), nil)...)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt opens a ciphertext produced by Encrypt. Any failure (bad encoding,
// truncation, tampering, foreign key) is reported as errs.ErrDecryption;
// Decrypt never panics past the boundary.
func (c *SecretCipher) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: bad encoding", errs.ErrDecryption)
	}
	if len(raw) < chacha20poly1305.NonceSizeX {
		return "", fmt.Errorf("%w: ciphertext too short", errs.ErrDecryption)
	}
	nonce := raw[:chacha20poly1305.NonceSizeX]
	sealed := raw[chacha20poly1305.NonceSizeX:]
	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: open failed", errs.ErrDecryption)
	}
	return string(plain), nil
}

// DecryptForDisplay converts any decryption failure to a safe placeholder
// so callers can render a value without branching.
func (c *SecretCipher) DecryptForDisplay(ciphertext string) string {
	plain, err := c.Decrypt(ciphertext)
	if err != nil {
		return DisplayPlaceholder
	}
	return plain
}
