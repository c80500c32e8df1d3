package crypto

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
)

// AlgEd25519 is the signing algorithm identifier used throughout the
// envelope (matches the "Ed25519" string spec.md §4.D names).
const AlgEd25519 = "Ed25519"

// Ed25519Signer implements Signer over a single Ed25519 key pair.
// Ed25519 signatures are deterministic: signing the same message twice
// under the same key produces the same bytes, which is what lets
// internal/verify recompute a changeset signature locally and compare
// it byte-for-byte against the one anchored in the credential.
type Ed25519Signer struct {
	keyRef     string
	privateKey ed25519.PrivateKey
}

// NewEd25519Signer wraps an existing Ed25519 private key.
func NewEd25519Signer(keyRef string, privateKey ed25519.PrivateKey) (*Ed25519Signer, error) {
	if len(privateKey) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("crypto: invalid ed25519 private key size: got %d want %d", len(privateKey), ed25519.PrivateKeySize)
	}
	return &Ed25519Signer{keyRef: keyRef, privateKey: privateKey}, nil
}

// GenerateEd25519Signer creates a fresh Ed25519 key pair and wraps it.
func GenerateEd25519Signer(keyRef string) (*Ed25519Signer, ed25519.PublicKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("crypto: generate ed25519 key: %w", err)
	}
	return &Ed25519Signer{keyRef: keyRef, privateKey: priv}, pub, nil
}

// Sign produces an Ed25519 signature over data.
func (s *Ed25519Signer) Sign(ctx context.Context, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ed25519.Sign(s.privateKey, data), nil
}

// KeyID returns the key reference this signer was constructed with.
func (s *Ed25519Signer) KeyID() string { return s.keyRef }

// Algorithm reports "Ed25519".
func (s *Ed25519Signer) Algorithm() string { return AlgEd25519 }

// PublicKey returns the public half of the key pair.
func (s *Ed25519Signer) PublicKey() ed25519.PublicKey {
	return s.privateKey.Public().(ed25519.PublicKey)
}

// Verify checks an Ed25519 signature against this signer's public key.
func (s *Ed25519Signer) Verify(data, signature []byte) bool {
	return ed25519.Verify(s.PublicKey(), data, signature)
}
