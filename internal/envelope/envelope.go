// Package envelope builds and opens the verifiable credential that
// wraps a changeset's signature and optional integrity payload before
// it is anchored into the immutable log — spec.md §4.D, §6.
package envelope

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/gtscio/auditable-item-graph/pkg/canonical"
	"github.com/gtscio/auditable-item-graph/pkg/vertex"
)

// CredentialType is the verifiable credential type every changeset
// envelope is issued as.
const CredentialType = "AuditableItemGraphChangeset"

// Subject is the verifiable credential subject a sealed envelope
// carries: the changeset's hash, its signature over that hash, and
// (when EnableIntegrityCheck is on) an encrypted copy of the
// changeset's own created/userIdentity/patches — spec.md §4.D.
type Subject struct {
	Hash                string `json:"hash"`
	Signature           string `json:"signature"`
	Integrity           string `json:"integrity,omitempty"`
	IntegrityAlgorithm  string `json:"integrityAlgorithm,omitempty"`
}

// integrityPayload is what gets canonicalized and encrypted when
// integrity checking is enabled. It mirrors the changeset fields the
// hash chain itself commits to, so verification can compare the
// decrypted payload against the changeset on replay.
type integrityPayload struct {
	Created      int64           `json:"created"`
	UserIdentity string          `json:"userIdentity"`
	Patches      []vertex.PatchOp `json:"patches"`
}

// Seal signs cs.Hash under signingKeyRef, optionally encrypts an
// integrity payload under integrityKeyRef, and issues the whole thing
// as a verifiable credential via identity. nodeIdentity is used as the
// credential issuer and assertion method. It returns the serialized
// credential (a JWS) that the caller stores in the immutable log.
func Seal(
	ctx context.Context,
	vault vertex.Vault,
	identity vertex.Identity,
	nodeIdentity string,
	signingKeyRef string,
	integrityKeyRef string,
	enableIntegrityCheck bool,
	cs vertex.Changeset,
) (string, error) {
	hashBytes, err := base64.StdEncoding.DecodeString(cs.Hash)
	if err != nil {
		return "", fmt.Errorf("envelope: decode changeset hash: %w", err)
	}

	signature, err := vault.Sign(ctx, signingKeyRef, hashBytes)
	if err != nil {
		return "", fmt.Errorf("envelope: sign changeset hash: %w", err)
	}

	subject := Subject{
		Hash:      cs.Hash,
		Signature: base64.StdEncoding.EncodeToString(signature),
	}

	if enableIntegrityCheck {
		payload := integrityPayload{Created: cs.Created, UserIdentity: cs.UserIdentity, Patches: cs.Patches}
		canonicalPayload, err := canonical.Marshal(payload)
		if err != nil {
			return "", fmt.Errorf("envelope: canonicalize integrity payload: %w", err)
		}
		sealed, err := vault.Encrypt(ctx, integrityKeyRef, vertex.AlgChaCha20Poly1305, canonicalPayload)
		if err != nil {
			return "", fmt.Errorf("envelope: encrypt integrity payload: %w", err)
		}
		subject.Integrity = base64.StdEncoding.EncodeToString(sealed)
		subject.IntegrityAlgorithm = vertex.AlgChaCha20Poly1305
	}

	credential, err := identity.CreateVerifiableCredential(ctx, nodeIdentity, nodeIdentity, nil, CredentialType, subject)
	if err != nil {
		return "", fmt.Errorf("envelope: create verifiable credential: %w", err)
	}
	return credential, nil
}

// Open parses a sealed credential back into its Subject, along with
// the revocation status and credential metadata identity reports.
func Open(ctx context.Context, identity vertex.Identity, credential string) (bool, Subject, *vertex.VerifiableCredential, error) {
	revoked, vc, err := identity.CheckVerifiableCredential(ctx, credential)
	if err != nil {
		return false, Subject{}, nil, fmt.Errorf("envelope: check verifiable credential: %w", err)
	}
	if vc == nil {
		return revoked, Subject{}, nil, fmt.Errorf("envelope: credential carries no subject")
	}

	raw, err := json.Marshal(vc.Subject)
	if err != nil {
		return revoked, Subject{}, vc, fmt.Errorf("envelope: marshal credential subject: %w", err)
	}
	var subject Subject
	if err := json.Unmarshal(raw, &subject); err != nil {
		return revoked, Subject{}, vc, fmt.Errorf("envelope: unmarshal credential subject: %w", err)
	}
	return revoked, subject, vc, nil
}

// DecryptIntegrityPayload reverses the encryption Seal applies to the
// integrity payload, returning the decrypted canonical bytes for the
// caller to compare against a recomputed canonical.Marshal of the
// changeset's own created/userIdentity/patches.
func DecryptIntegrityPayload(ctx context.Context, vault vertex.Vault, integrityKeyRef string, subject Subject) ([]byte, error) {
	if subject.Integrity == "" {
		return nil, fmt.Errorf("envelope: subject carries no integrity payload")
	}
	sealed, err := base64.StdEncoding.DecodeString(subject.Integrity)
	if err != nil {
		return nil, fmt.Errorf("envelope: decode integrity payload: %w", err)
	}
	plaintext, err := vault.Decrypt(ctx, integrityKeyRef, subject.IntegrityAlgorithm, sealed)
	if err != nil {
		return nil, fmt.Errorf("envelope: decrypt integrity payload: %w", err)
	}
	return plaintext, nil
}
