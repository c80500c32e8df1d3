// Package impl_inmem provides an in-memory KeyManager. Keys never
// leave the process and are lost on restart — it exists so the
// reference Vault (internal/memstore) and tests have real Ed25519 and
// ChaCha20-Poly1305 keys to operate on without a real KMS.
package impl_inmem

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gtscio/auditable-item-graph/pkg/crypto"
)

// KeyManager implements crypto.KeyManager with in-memory storage,
// creating a key pair lazily the first time a key reference is used.
type KeyManager struct {
	mu       sync.RWMutex
	signers  map[string]*crypto.Ed25519Signer
	ciphers  map[string]*crypto.ChaCha20Cipher
	created  map[string]time.Time
}

// NewKeyManager creates an empty in-memory key manager.
func NewKeyManager() *KeyManager {
	return &KeyManager{
		signers: make(map[string]*crypto.Ed25519Signer),
		ciphers: make(map[string]*crypto.ChaCha20Cipher),
		created: make(map[string]time.Time),
	}
}

// GetSigner returns the Ed25519 signer for keyRef, generating one on
// first use.
func (km *KeyManager) GetSigner(ctx context.Context, keyRef string) (crypto.Signer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	km.mu.RLock()
	signer, ok := km.signers[keyRef]
	km.mu.RUnlock()
	if ok {
		return signer, nil
	}

	km.mu.Lock()
	defer km.mu.Unlock()
	if signer, ok := km.signers[keyRef]; ok {
		return signer, nil
	}

	signer, _, err := crypto.GenerateEd25519Signer(keyRef)
	if err != nil {
		return nil, fmt.Errorf("impl_inmem: create signer %q: %w", keyRef, err)
	}
	km.signers[keyRef] = signer
	km.created[keyRef] = time.Now()
	return signer, nil
}

// GetCipher returns the ChaCha20-Poly1305 cipher for keyRef, generating
// one on first use.
func (km *KeyManager) GetCipher(ctx context.Context, keyRef string) (crypto.Cipher, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	km.mu.RLock()
	cipher, ok := km.ciphers[keyRef]
	km.mu.RUnlock()
	if ok {
		return cipher, nil
	}

	km.mu.Lock()
	defer km.mu.Unlock()
	if cipher, ok := km.ciphers[keyRef]; ok {
		return cipher, nil
	}

	cipher, err := crypto.GenerateChaCha20Cipher(keyRef)
	if err != nil {
		return nil, fmt.Errorf("impl_inmem: create cipher %q: %w", keyRef, err)
	}
	km.ciphers[keyRef] = cipher
	km.created[keyRef] = time.Now()
	return cipher, nil
}

// ListKeys returns metadata for every key created so far.
func (km *KeyManager) ListKeys(ctx context.Context) ([]crypto.KeyMetadata, error) {
	km.mu.RLock()
	defer km.mu.RUnlock()

	result := make([]crypto.KeyMetadata, 0, len(km.signers)+len(km.ciphers))
	for ref, s := range km.signers {
		result = append(result, crypto.KeyMetadata{KeyRef: ref, Algorithm: s.Algorithm(), CreatedAt: km.created[ref]})
	}
	for ref, c := range km.ciphers {
		result = append(result, crypto.KeyMetadata{KeyRef: ref, Algorithm: c.Algorithm(), CreatedAt: km.created[ref]})
	}
	return result, nil
}

// Verify interface compliance at compile time.
var _ crypto.KeyManager = (*KeyManager)(nil)
