package database

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/itxrex07/insta-sub000/internal/constants"

	"golang.org/x/crypto/pbkdf2"
)

// encryptor provides optional at-rest encryption for profile PII
// (usernames, full names). It is enabled by setting the secret env var;
// without it every operation is a passthrough.
type encryptor struct {
	gcm cipher.AEAD
}

func newEncryptor() (*encryptor, error) {
	secret := os.Getenv(constants.EncryptionSecretEnvVar)
	if secret == "" {
		return &encryptor{}, nil
	}
	if len(secret) < constants.MinSecretLength {
		return nil, fmt.Errorf("encryption secret must be at least %d characters", constants.MinSecretLength)
	}

	key := pbkdf2.Key([]byte(secret), []byte("instabridge-profiles"), constants.PBKDF2Iterations, constants.EncryptionKeySize, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &encryptor{gcm: gcm}, nil
}

func (e *encryptor) enabled() bool {
	return e.gcm != nil
}

// encrypt seals plaintext with a random nonce. Not usable for equality
// lookups; use encryptForLookup for indexed columns.
func (e *encryptor) encrypt(plaintext string) (string, error) {
	if plaintext == "" || !e.enabled() {
		return plaintext, nil
	}

	nonce := make([]byte, constants.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := e.gcm.Seal(nil, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(append(nonce, sealed...)), nil
}

// encryptForLookup seals plaintext with a nonce derived from the plaintext
// itself, so equal inputs produce equal ciphertexts and WHERE clauses keep
// working against encrypted columns.
func (e *encryptor) encryptForLookup(plaintext string) (string, error) {
	if plaintext == "" || !e.enabled() {
		return plaintext, nil
	}

	digest := sha256.Sum256([]byte("lookup:" + plaintext))
	nonce := digest[:constants.NonceSize]

	sealed := e.gcm.Seal(nil, nonce, []byte(plaintext), nil) // #nosec G407 -- deterministic nonce required for searchable encryption
	return base64.StdEncoding.EncodeToString(append(append([]byte{}, nonce...), sealed...)), nil
}

func (e *encryptor) decrypt(encoded string) (string, error) {
	if encoded == "" || !e.enabled() {
		return encoded, nil
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}
	if len(raw) < constants.NonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, sealed := raw[:constants.NonceSize], raw[constants.NonceSize:]
	plaintext, err := e.gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}
	return string(plaintext), nil
}
