package memstore

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/go-jose/go-jose/v4"

	"github.com/gtscio/auditable-item-graph/pkg/vertex"
)

func marshalPayload(p credentialPayload) ([]byte, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("memstore: marshal credential payload: %w", err)
	}
	return raw, nil
}

func unmarshalPayload(raw []byte) (credentialPayload, error) {
	var p credentialPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return credentialPayload{}, fmt.Errorf("memstore: unmarshal credential payload: %w", err)
	}
	return p, nil
}

// credentialPayload is the JWS claim set Identity issues and parses.
// It is a minimal verifiable-credential shape: enough to carry a
// changeset envelope's subject plus the issuer/assertion-method pair
// and a unique id the revocation registry can key on.
type credentialPayload struct {
	ID              string `json:"id"`
	Issuer          string `json:"issuer"`
	AssertionMethod string `json:"assertionMethod"`
	SubjectID       string `json:"subjectId,omitempty"`
	CredentialType  string `json:"type"`
	Subject         any    `json:"credentialSubject"`
}

// Identity issues and checks Ed25519-signed JWS credentials, backed by
// an in-memory RevocationRegistry keyed on each credential's id.
type Identity struct {
	publicKey  ed25519.PublicKey
	privateKey ed25519.PrivateKey
	revocation *RevocationRegistry
}

// NewIdentity generates a fresh Ed25519 signing key for the node.
func NewIdentity() (*Identity, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("memstore: generate identity key: %w", err)
	}
	return &Identity{publicKey: pub, privateKey: priv, revocation: NewRevocationRegistry()}, nil
}

// Revoke marks a previously issued credential id as revoked.
func (id *Identity) Revoke(credentialID string) {
	id.revocation.Revoke(credentialID)
}

func newCredentialID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("memstore: generate credential id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// CreateVerifiableCredential signs subjectData as an EdDSA JWS.
func (id *Identity) CreateVerifiableCredential(ctx context.Context, issuer, assertionMethod string, subjectID *string, credentialType string, subjectData any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	credentialID, err := newCredentialID()
	if err != nil {
		return "", err
	}

	payload := credentialPayload{
		ID:              credentialID,
		Issuer:          issuer,
		AssertionMethod: assertionMethod,
		CredentialType:  credentialType,
		Subject:         subjectData,
	}
	if subjectID != nil {
		payload.SubjectID = *subjectID
	}

	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.EdDSA, Key: id.privateKey}, nil)
	if err != nil {
		return "", fmt.Errorf("memstore: build jws signer: %w", err)
	}

	rawPayload, err := marshalPayload(payload)
	if err != nil {
		return "", err
	}

	signed, err := signer.Sign(rawPayload)
	if err != nil {
		return "", fmt.Errorf("memstore: sign jws: %w", err)
	}

	serialized, err := signed.CompactSerialize()
	if err != nil {
		return "", fmt.Errorf("memstore: serialize jws: %w", err)
	}
	return serialized, nil
}

// CheckVerifiableCredential parses and verifies jwt's signature against
// id's public key and reports whether its credential id has been
// revoked.
func (id *Identity) CheckVerifiableCredential(ctx context.Context, jwt string) (bool, *vertex.VerifiableCredential, error) {
	if err := ctx.Err(); err != nil {
		return false, nil, err
	}

	parsed, err := jose.ParseSigned(jwt, []jose.SignatureAlgorithm{jose.EdDSA})
	if err != nil {
		return false, nil, fmt.Errorf("memstore: parse jws: %w", err)
	}

	rawPayload, err := parsed.Verify(id.publicKey)
	if err != nil {
		return false, nil, fmt.Errorf("memstore: verify jws signature: %w", err)
	}

	payload, err := unmarshalPayload(rawPayload)
	if err != nil {
		return false, nil, err
	}

	vc := &vertex.VerifiableCredential{
		Issuer:          payload.Issuer,
		AssertionMethod: payload.AssertionMethod,
		SubjectID:       payload.SubjectID,
		CredentialType:  payload.CredentialType,
		Subject:         payload.Subject,
	}
	return id.revocation.IsRevoked(payload.ID), vc, nil
}

var _ vertex.Identity = (*Identity)(nil)
