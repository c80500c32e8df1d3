package crypto

import (
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// AlgChaCha20Poly1305 is the encryption algorithm identifier spec.md
// §4.D names for the optional integrity payload.
const AlgChaCha20Poly1305 = "ChaCha20Poly1305"

// ChaCha20Cipher implements Cipher with a single ChaCha20-Poly1305 key.
type ChaCha20Cipher struct {
	keyRef string
	aead   interface {
		Seal(dst, nonce, plaintext, additionalData []byte) []byte
		Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
		NonceSize() int
	}
}

// NewChaCha20Cipher wraps a 32-byte symmetric key.
func NewChaCha20Cipher(keyRef string, key []byte) (*ChaCha20Cipher, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: chacha20poly1305 key: %w", err)
	}
	return &ChaCha20Cipher{keyRef: keyRef, aead: aead}, nil
}

// GenerateChaCha20Cipher creates a fresh random symmetric key and wraps it.
func GenerateChaCha20Cipher(keyRef string) (*ChaCha20Cipher, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("crypto: generate chacha20poly1305 key: %w", err)
	}
	return NewChaCha20Cipher(keyRef, key)
}

// Seal encrypts plaintext under a fresh random nonce and prepends it to
// the returned ciphertext so Open is self-contained.
func (c *ChaCha20Cipher) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("crypto: generate nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts a value produced by Seal.
func (c *ChaCha20Cipher) Open(sealed []byte) ([]byte, error) {
	n := c.aead.NonceSize()
	if len(sealed) < n {
		return nil, fmt.Errorf("crypto: sealed value too short")
	}
	nonce, ciphertext := sealed[:n], sealed[n:]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("crypto: open: %w", err)
	}
	return plaintext, nil
}

// KeyID returns the key reference this cipher was constructed with.
func (c *ChaCha20Cipher) KeyID() string { return c.keyRef }

// Algorithm reports "ChaCha20Poly1305".
func (c *ChaCha20Cipher) Algorithm() string { return AlgChaCha20Poly1305 }
