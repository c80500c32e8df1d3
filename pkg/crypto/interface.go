// Package crypto defines narrow interfaces over the asymmetric and
// symmetric primitives the integrity envelope needs (internal/envelope,
// internal/verify) and an in-memory KeyManager (pkg/crypto/impl_inmem)
// that the reference Vault collaborator (internal/memstore) is built
// on.
package crypto

import (
	"context"
	"time"
)

// Signer signs data using a private key.
type Signer interface {
	// Sign creates a signature for the given data.
	Sign(ctx context.Context, data []byte) ([]byte, error)

	// KeyID returns the identifier of the signing key.
	KeyID() string

	// Algorithm returns the signing algorithm identifier.
	Algorithm() string
}

// Cipher performs authenticated symmetric encryption under one key.
type Cipher interface {
	// Seal encrypts plaintext, returning nonce||ciphertext||tag.
	Seal(plaintext []byte) ([]byte, error)

	// Open decrypts a value produced by Seal.
	Open(sealed []byte) ([]byte, error)

	// KeyID returns the identifier of the symmetric key.
	KeyID() string

	// Algorithm returns the cipher algorithm identifier.
	Algorithm() string
}

// KeyManager manages signing and symmetric keys, keyed by an opaque
// key reference (vertex.Vault's keyRef = "<nodeIdentity>/<vaultKeyId>").
type KeyManager interface {
	// GetSigner returns a signer for the specified key reference,
	// creating an Ed25519 key pair on first use.
	GetSigner(ctx context.Context, keyRef string) (Signer, error)

	// GetCipher returns a ChaCha20-Poly1305 cipher for the specified key
	// reference, creating a symmetric key on first use.
	GetCipher(ctx context.Context, keyRef string) (Cipher, error)

	// ListKeys returns metadata for every key created so far.
	ListKeys(ctx context.Context) ([]KeyMetadata, error)
}

// KeyMetadata describes a managed key without exposing key material.
type KeyMetadata struct {
	KeyRef    string
	Algorithm string
	CreatedAt time.Time
}
