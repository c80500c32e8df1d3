package impl_inmem

import (
	"context"
	"testing"

	"github.com/gtscio/auditable-item-graph/pkg/crypto"
)

func TestKeyManager_GetSignerIsLazyAndStable(t *testing.T) {
	km := NewKeyManager()
	ctx := context.Background()

	first, err := km.GetSigner(ctx, "node-1/signing")
	if err != nil {
		t.Fatalf("GetSigner failed: %v", err)
	}
	second, err := km.GetSigner(ctx, "node-1/signing")
	if err != nil {
		t.Fatalf("GetSigner failed: %v", err)
	}
	if first != second {
		t.Error("expected repeated GetSigner calls for the same ref to return the same key")
	}

	sig1, err := first.Sign(ctx, []byte("data"))
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	sig2, err := second.Sign(ctx, []byte("data"))
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if string(sig1) != string(sig2) {
		t.Error("expected signatures from the cached signer to be identical")
	}
}

func TestKeyManager_GetCipherIsLazyAndStable(t *testing.T) {
	km := NewKeyManager()
	ctx := context.Background()

	cipher, err := km.GetCipher(ctx, "node-1/integrity")
	if err != nil {
		t.Fatalf("GetCipher failed: %v", err)
	}
	sealed, err := cipher.Seal([]byte("payload"))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	again, err := km.GetCipher(ctx, "node-1/integrity")
	if err != nil {
		t.Fatalf("GetCipher failed: %v", err)
	}
	opened, err := again.Open(sealed)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if string(opened) != "payload" {
		t.Errorf("got %q, want %q", opened, "payload")
	}
}

func TestKeyManager_ListKeysReportsEveryCreatedKey(t *testing.T) {
	km := NewKeyManager()
	ctx := context.Background()

	if _, err := km.GetSigner(ctx, "node-1/signing"); err != nil {
		t.Fatalf("GetSigner failed: %v", err)
	}
	if _, err := km.GetCipher(ctx, "node-1/integrity"); err != nil {
		t.Fatalf("GetCipher failed: %v", err)
	}

	keys, err := km.ListKeys(ctx)
	if err != nil {
		t.Fatalf("ListKeys failed: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 managed keys, got %d", len(keys))
	}

	byRef := make(map[string]crypto.KeyMetadata, len(keys))
	for _, k := range keys {
		byRef[k.KeyRef] = k
	}
	if byRef["node-1/signing"].Algorithm != crypto.AlgEd25519 {
		t.Errorf("got signing key algorithm %q, want %q", byRef["node-1/signing"].Algorithm, crypto.AlgEd25519)
	}
	if byRef["node-1/integrity"].Algorithm != crypto.AlgChaCha20Poly1305 {
		t.Errorf("got integrity key algorithm %q, want %q", byRef["node-1/integrity"].Algorithm, crypto.AlgChaCha20Poly1305)
	}
}
