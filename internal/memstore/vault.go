// Package memstore holds in-memory reference implementations of the
// four collaborators pkg/vertex defines (Vault, Identity, ImmutableLog,
// EntityStorage) — spec.md §6. They exist for tests and local
// experimentation; a production deployment swaps each one for a real
// key vault, DID/JWS service, immutable ledger, and database.
package memstore

import (
	"context"
	"fmt"

	"github.com/gtscio/auditable-item-graph/pkg/crypto"
	"github.com/gtscio/auditable-item-graph/pkg/vertex"
)

// Vault adapts a crypto.KeyManager to the narrow vertex.Vault
// interface the core consumes.
type Vault struct {
	keys crypto.KeyManager
}

// NewVault wraps keys as a vertex.Vault.
func NewVault(keys crypto.KeyManager) *Vault {
	return &Vault{keys: keys}
}

func (v *Vault) Sign(ctx context.Context, keyRef string, data []byte) ([]byte, error) {
	signer, err := v.keys.GetSigner(ctx, keyRef)
	if err != nil {
		return nil, fmt.Errorf("memstore: get signer %q: %w", keyRef, err)
	}
	return signer.Sign(ctx, data)
}

func (v *Vault) Encrypt(ctx context.Context, keyRef, algo string, plaintext []byte) ([]byte, error) {
	cipher, err := v.keys.GetCipher(ctx, keyRef)
	if err != nil {
		return nil, fmt.Errorf("memstore: get cipher %q: %w", keyRef, err)
	}
	if cipher.Algorithm() != algo {
		return nil, fmt.Errorf("memstore: cipher %q uses algorithm %q, requested %q", keyRef, cipher.Algorithm(), algo)
	}
	return cipher.Seal(plaintext)
}

func (v *Vault) Decrypt(ctx context.Context, keyRef, algo string, ciphertext []byte) ([]byte, error) {
	cipher, err := v.keys.GetCipher(ctx, keyRef)
	if err != nil {
		return nil, fmt.Errorf("memstore: get cipher %q: %w", keyRef, err)
	}
	if cipher.Algorithm() != algo {
		return nil, fmt.Errorf("memstore: cipher %q uses algorithm %q, requested %q", keyRef, cipher.Algorithm(), algo)
	}
	return cipher.Open(ciphertext)
}

var _ vertex.Vault = (*Vault)(nil)
