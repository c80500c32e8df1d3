package memstore

import (
	"context"
	"testing"

	"github.com/go-jose/go-jose/v4"

	"github.com/gtscio/auditable-item-graph/pkg/crypto/impl_inmem"
	"github.com/gtscio/auditable-item-graph/pkg/vertex"
)

func TestVault_SignEncryptDecryptRoundTrip(t *testing.T) {
	vault := NewVault(impl_inmem.NewKeyManager())
	ctx := context.Background()

	sig, err := vault.Sign(ctx, "node-1/sig", []byte("hello"))
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	sigAgain, err := vault.Sign(ctx, "node-1/sig", []byte("hello"))
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if string(sig) != string(sigAgain) {
		t.Errorf("expected Ed25519 signing to be deterministic for the same key and data")
	}

	sealed, err := vault.Encrypt(ctx, "node-1/enc", vertex.AlgChaCha20Poly1305, []byte("secret"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	opened, err := vault.Decrypt(ctx, "node-1/enc", vertex.AlgChaCha20Poly1305, sealed)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if string(opened) != "secret" {
		t.Errorf("got %q, want %q", opened, "secret")
	}
}

func TestIdentity_CreateAndCheckCredential(t *testing.T) {
	identity, err := NewIdentity()
	if err != nil {
		t.Fatalf("NewIdentity failed: %v", err)
	}
	ctx := context.Background()

	jwt, err := identity.CreateVerifiableCredential(ctx, "node-1", "node-1", nil, "Test", map[string]any{"hash": "abc"})
	if err != nil {
		t.Fatalf("CreateVerifiableCredential failed: %v", err)
	}

	revoked, vc, err := identity.CheckVerifiableCredential(ctx, jwt)
	if err != nil {
		t.Fatalf("CheckVerifiableCredential failed: %v", err)
	}
	if revoked {
		t.Errorf("expected fresh credential to not be revoked")
	}
	if vc.Issuer != "node-1" {
		t.Errorf("got issuer %q, want node-1", vc.Issuer)
	}
}

func TestIdentity_RevokedCredentialReportsTrue(t *testing.T) {
	identity, err := NewIdentity()
	if err != nil {
		t.Fatalf("NewIdentity failed: %v", err)
	}
	ctx := context.Background()

	jwt, err := identity.CreateVerifiableCredential(ctx, "node-1", "node-1", nil, "Test", map[string]any{"hash": "abc"})
	if err != nil {
		t.Fatalf("CreateVerifiableCredential failed: %v", err)
	}

	parsed, err := jose.ParseSigned(jwt, []jose.SignatureAlgorithm{jose.EdDSA})
	if err != nil {
		t.Fatalf("ParseSigned failed: %v", err)
	}
	rawPayload, err := parsed.Verify(identity.publicKey)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	payload, err := unmarshalPayload(rawPayload)
	if err != nil {
		t.Fatalf("unmarshalPayload failed: %v", err)
	}
	identity.Revoke(payload.ID)

	revoked, _, err := identity.CheckVerifiableCredential(ctx, jwt)
	if err != nil {
		t.Fatalf("CheckVerifiableCredential failed: %v", err)
	}
	if !revoked {
		t.Errorf("expected credential to be reported revoked")
	}
}

func TestImmutableLog_StoreGetRemove(t *testing.T) {
	log := NewImmutableLog()
	ctx := context.Background()

	id, err := log.Store(ctx, "node-1", []byte("payload"))
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	data, err := log.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("got %q, want %q", data, "payload")
	}

	if err := log.Remove(ctx, "node-1", id); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := log.Get(ctx, id); err == nil {
		t.Errorf("expected Get to fail after Remove")
	}
}

func TestImmutableLog_RemoveRejectsWrongController(t *testing.T) {
	log := NewImmutableLog()
	ctx := context.Background()

	id, err := log.Store(ctx, "node-1", []byte("payload"))
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if err := log.Remove(ctx, "node-2", id); err == nil {
		t.Errorf("expected Remove from the wrong controller to fail")
	}
}

func TestEntityStorage_SetGetQuery(t *testing.T) {
	store := NewEntityStorage()
	ctx := context.Background()

	aliasIdx := "alias-idx-1"
	v := &vertex.Vertex{ID: "01", NodeIdentity: "node-1", Created: 100, Updated: 100, AliasIndex: &aliasIdx}
	if err := store.Set(ctx, v); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := store.Get(ctx, "01")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ID != "01" {
		t.Errorf("got id %q, want 01", got.ID)
	}

	result, err := store.Query(ctx, vertex.QueryConditions{Conditions: []vertex.Condition{{Property: "aliasIndex", Value: aliasIdx}}}, vertex.SortOrder{Property: vertex.OrderByCreated, Direction: vertex.SortAscending}, nil, nil, nil)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(result.Entities) != 1 || result.Entities[0].ID != "01" {
		t.Errorf("expected one matching entity by aliasIndex, got %+v", result.Entities)
	}
}

func TestEntityStorage_QueryPagination(t *testing.T) {
	store := NewEntityStorage()
	ctx := context.Background()

	ids := []string{"v-a", "v-b", "v-c", "v-d", "v-e"}
	for i, id := range ids {
		if err := store.Set(ctx, &vertex.Vertex{ID: id, Created: int64(i), Updated: int64(i)}); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}

	pageSize := 2
	first, err := store.Query(ctx, vertex.QueryConditions{}, vertex.SortOrder{Property: vertex.OrderByCreated, Direction: vertex.SortAscending}, nil, nil, &pageSize)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(first.Entities) != 2 {
		t.Fatalf("expected page size 2, got %d", len(first.Entities))
	}
	if first.Cursor == nil {
		t.Fatalf("expected a cursor for a partial result")
	}
	if first.TotalEntities != 5 {
		t.Errorf("got total %d, want 5", first.TotalEntities)
	}

	second, err := store.Query(ctx, vertex.QueryConditions{}, vertex.SortOrder{Property: vertex.OrderByCreated, Direction: vertex.SortAscending}, nil, first.Cursor, &pageSize)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(second.Entities) != 2 {
		t.Fatalf("expected second page size 2, got %d", len(second.Entities))
	}
	if second.Entities[0].ID == first.Entities[0].ID {
		t.Errorf("expected the second page to continue past the first")
	}
}
