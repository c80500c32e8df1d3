package verify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strconv"
	"testing"

	"github.com/gtscio/auditable-item-graph/internal/envelope"
	"github.com/gtscio/auditable-item-graph/internal/hashchain"
	aigerrors "github.com/gtscio/auditable-item-graph/pkg/errors"
	"github.com/gtscio/auditable-item-graph/pkg/canonical"
	"github.com/gtscio/auditable-item-graph/pkg/vertex"
)

type fakeVault struct{}

func (fakeVault) Sign(_ context.Context, keyRef string, data []byte) ([]byte, error) {
	out := append([]byte(keyRef+":"), data...)
	return out, nil
}
func (fakeVault) Encrypt(_ context.Context, keyRef, algo string, plaintext []byte) ([]byte, error) {
	return append([]byte(keyRef+"|"+algo+"|"), plaintext...), nil
}
func (fakeVault) Decrypt(_ context.Context, keyRef, algo string, ciphertext []byte) ([]byte, error) {
	prefix := keyRef + "|" + algo + "|"
	return ciphertext[len(prefix):], nil
}

type fakeIdentity struct{ revoked map[string]bool }

func (f *fakeIdentity) CreateVerifiableCredential(_ context.Context, issuer, assertionMethod string, _ *string, credentialType string, subjectData any) (string, error) {
	raw, err := json.Marshal(subjectData)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(map[string]any{
		"issuer": issuer, "assertionMethod": assertionMethod,
		"credentialType": credentialType, "subject": json.RawMessage(raw),
	})
	return string(out), err
}

func (f *fakeIdentity) CheckVerifiableCredential(_ context.Context, jwt string) (bool, *vertex.VerifiableCredential, error) {
	var decoded struct {
		Issuer          string          `json:"issuer"`
		AssertionMethod string          `json:"assertionMethod"`
		CredentialType  string          `json:"credentialType"`
		Subject         json.RawMessage `json:"subject"`
	}
	if err := json.Unmarshal([]byte(jwt), &decoded); err != nil {
		return false, nil, err
	}
	var subject any
	if err := json.Unmarshal(decoded.Subject, &subject); err != nil {
		return false, nil, err
	}
	vc := &vertex.VerifiableCredential{Issuer: decoded.Issuer, AssertionMethod: decoded.AssertionMethod, CredentialType: decoded.CredentialType, Subject: subject}
	return f.revoked[jwt], vc, nil
}

type fakeLog struct {
	records map[string][]byte
	nextID  int
}

func newFakeLog() *fakeLog { return &fakeLog{records: map[string][]byte{}} }

func (f *fakeLog) Store(_ context.Context, _ string, data []byte) (string, error) {
	f.nextID++
	id := "immutable:mem:" + strconv.Itoa(f.nextID)
	f.records[id] = data
	return id, nil
}
func (f *fakeLog) Get(_ context.Context, id string) ([]byte, error) { return f.records[id], nil }
func (f *fakeLog) Remove(_ context.Context, _, id string) error     { delete(f.records, id); return nil }

func buildChangeset(t *testing.T, vault vertex.Vault, identity vertex.Identity, log *fakeLog, prevHash []byte, created int64, userIdentity string, patches []vertex.PatchOp, integrity bool) vertex.Changeset {
	t.Helper()
	patchesCanonical, err := canonical.Marshal(patches)
	if err != nil {
		t.Fatalf("canonical.Marshal patches: %v", err)
	}
	digest, err := hashchain.Next(prevHash, created, userIdentity, patchesCanonical)
	if err != nil {
		t.Fatalf("hashchain.Next: %v", err)
	}
	cs := vertex.Changeset{Created: created, UserIdentity: userIdentity, Patches: patches, Hash: base64.StdEncoding.EncodeToString(digest[:])}

	credential, err := envelope.Seal(context.Background(), vault, identity, "node-1", "node-1/sig", "node-1/enc", integrity, cs)
	if err != nil {
		t.Fatalf("envelope.Seal: %v", err)
	}
	id, err := log.Store(context.Background(), "node-1", []byte(credential))
	if err != nil {
		t.Fatalf("log.Store: %v", err)
	}
	cs.ImmutableStorageID = &id
	return cs
}

func TestReplay_VerifyAllOnCleanChainSucceeds(t *testing.T) {
	vault := fakeVault{}
	identity := &fakeIdentity{revoked: map[string]bool{}}
	log := newFakeLog()

	cs1 := buildChangeset(t, vault, identity, log, nil, 100, "user-1", []vertex.PatchOp{}, false)
	hash1, _ := base64.StdEncoding.DecodeString(cs1.Hash)
	cs2 := buildChangeset(t, vault, identity, log, hash1, 200, "user-1", []vertex.PatchOp{{Op: "add", Path: "/metadata/name", Value: "x"}}, true)

	v := &vertex.Vertex{ID: "01", Changesets: []vertex.Changeset{cs1, cs2}}

	report, err := Replay(context.Background(), vault, identity, log, "node-1/sig", "node-1/enc", v, vertex.VerifyAll)
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if !report.Verified {
		t.Errorf("expected clean chain to verify, got entries %+v", report.Entries)
	}
	if len(report.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(report.Entries))
	}
}

func TestReplay_VerifyNoneSkipsEntirely(t *testing.T) {
	v := &vertex.Vertex{ID: "01", Changesets: []vertex.Changeset{{Hash: "bogus"}}}
	report, err := Replay(context.Background(), fakeVault{}, &fakeIdentity{}, newFakeLog(), "k", "k", v, vertex.VerifyNone)
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if report != nil {
		t.Errorf("expected nil report for VerifyNone, got %+v", report)
	}
}

func TestReplay_TamperedHashIsDetected(t *testing.T) {
	vault := fakeVault{}
	identity := &fakeIdentity{revoked: map[string]bool{}}
	log := newFakeLog()

	cs1 := buildChangeset(t, vault, identity, log, nil, 100, "user-1", []vertex.PatchOp{}, false)
	cs1.Hash = base64.StdEncoding.EncodeToString([]byte("not-the-real-digest-0000000000!!"))

	v := &vertex.Vertex{ID: "01", Changesets: []vertex.Changeset{cs1}}

	report, err := Replay(context.Background(), vault, identity, log, "node-1/sig", "node-1/enc", v, vertex.VerifyAll)
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if report.Verified {
		t.Fatalf("expected tampered hash to fail verification")
	}
	if report.Entries[0].Failure != aigerrors.FailureInvalidChangesetHash {
		t.Errorf("got failure %q, want %q", report.Entries[0].Failure, aigerrors.FailureInvalidChangesetHash)
	}

	props := report.Entries[0].FailureProperties
	if props == nil {
		t.Fatalf("expected failure properties to be populated")
	}
	if props["storedHash"] != cs1.Hash {
		t.Errorf("got storedHash %v, want %q", props["storedHash"], cs1.Hash)
	}
	if props["epoch"] != int64(100) {
		t.Errorf("got epoch %v, want 100", props["epoch"])
	}
	if _, ok := props["reconstructedChangeset"]; !ok {
		t.Errorf("expected reconstructedChangeset in failure properties, got %+v", props)
	}
	if _, ok := props["storedChangeset"]; !ok {
		t.Errorf("expected storedChangeset in failure properties, got %+v", props)
	}
	if _, ok := props["issuer"]; ok {
		t.Errorf("did not expect issuer in failure properties before a credential was opened, got %+v", props)
	}
}

func TestReplay_RevokedCredentialIsDetected(t *testing.T) {
	vault := fakeVault{}
	identity := &fakeIdentity{revoked: map[string]bool{}}
	log := newFakeLog()

	cs1 := buildChangeset(t, vault, identity, log, nil, 100, "user-1", []vertex.PatchOp{}, false)
	credentialBytes, err := log.Get(context.Background(), *cs1.ImmutableStorageID)
	if err != nil {
		t.Fatalf("log.Get: %v", err)
	}
	identity.revoked[string(credentialBytes)] = true

	v := &vertex.Vertex{ID: "01", Changesets: []vertex.Changeset{cs1}}
	report, err := Replay(context.Background(), vault, identity, log, "node-1/sig", "node-1/enc", v, vertex.VerifyAll)
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if report.Verified {
		t.Fatalf("expected revoked credential to fail verification")
	}
	if report.Entries[0].Failure != aigerrors.FailureChangesetCredentialRevoked {
		t.Errorf("got failure %q, want %q", report.Entries[0].Failure, aigerrors.FailureChangesetCredentialRevoked)
	}
	if report.Entries[0].FailureProperties["issuer"] != "node-1" {
		t.Errorf("expected the credential issuer to be carried in failure properties, got %+v", report.Entries[0].FailureProperties)
	}
	if report.Entries[0].FailureProperties["assertionMethod"] != "node-1" {
		t.Errorf("expected the credential assertionMethod to be carried in failure properties, got %+v", report.Entries[0].FailureProperties)
	}
}

func TestReplay_DetachedChangesetVerifiesOnHashAlone(t *testing.T) {
	vault := fakeVault{}
	identity := &fakeIdentity{revoked: map[string]bool{}}
	log := newFakeLog()

	cs1 := buildChangeset(t, vault, identity, log, nil, 100, "user-1", []vertex.PatchOp{}, false)
	cs1.ImmutableStorageID = nil

	v := &vertex.Vertex{ID: "01", Changesets: []vertex.Changeset{cs1}}
	report, err := Replay(context.Background(), vault, identity, log, "node-1/sig", "node-1/enc", v, vertex.VerifyAll)
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if !report.Verified {
		t.Fatalf("expected a detached changeset to still verify on its hash alone, got entries %+v", report.Entries)
	}
	if report.Entries[0].Failure != "" {
		t.Errorf("expected no failure recorded, got %q", report.Entries[0].Failure)
	}
}

func TestReplay_VerifyCurrentOnlyChecksLastChangeset(t *testing.T) {
	vault := fakeVault{}
	identity := &fakeIdentity{revoked: map[string]bool{}}
	log := newFakeLog()

	cs1 := buildChangeset(t, vault, identity, log, nil, 100, "user-1", []vertex.PatchOp{}, false)
	cs1.Hash = base64.StdEncoding.EncodeToString([]byte("deliberately-wrong-digest"))
	hash1, _ := base64.StdEncoding.DecodeString(cs1.Hash)
	cs2 := buildChangeset(t, vault, identity, log, hash1, 200, "user-1", []vertex.PatchOp{}, false)

	v := &vertex.Vertex{ID: "01", Changesets: []vertex.Changeset{cs1, cs2}}
	report, err := Replay(context.Background(), vault, identity, log, "node-1/sig", "node-1/enc", v, vertex.VerifyCurrent)
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if len(report.Entries) != 1 {
		t.Fatalf("expected exactly one entry for VerifyCurrent, got %d", len(report.Entries))
	}
	if !report.Verified {
		t.Errorf("expected only the last changeset to be checked, trusting the stored prior hash")
	}
}
