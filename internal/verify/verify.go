// Package verify replays a vertex's changeset chain and reports
// whether every hash, signature, and (where enabled) integrity payload
// still checks out — spec.md §4.G.
package verify

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"

	"github.com/gtscio/auditable-item-graph/internal/envelope"
	"github.com/gtscio/auditable-item-graph/internal/hashchain"
	aigerrors "github.com/gtscio/auditable-item-graph/pkg/errors"
	"github.com/gtscio/auditable-item-graph/pkg/canonical"
	"github.com/gtscio/auditable-item-graph/pkg/vertex"
)

// integrityPayload mirrors internal/envelope's unexported payload
// shape so its canonical encoding is recomputed identically here.
type integrityPayload struct {
	Created      int64            `json:"created"`
	UserIdentity string           `json:"userIdentity"`
	Patches      []vertex.PatchOp `json:"patches"`
}

// Replay verifies v.Changesets according to depth:
//
//   - VerifyNone returns (nil, nil) without touching the chain.
//   - VerifyCurrent recomputes and checks only the most recent
//     changeset, trusting the stored Hash of the one before it as the
//     chain's prior link.
//   - VerifyAll walks the whole chain from the first changeset,
//     recomputing every hash in sequence so a forged middle link is
//     caught even if the head and tail still look consistent.
func Replay(
	ctx context.Context,
	vault vertex.Vault,
	identity vertex.Identity,
	immutableLog vertex.ImmutableLog,
	signingKeyRef string,
	integrityKeyRef string,
	v *vertex.Vertex,
	depth vertex.VerifyDepth,
) (*vertex.Verification, error) {
	if depth == vertex.VerifyNone || len(v.Changesets) == 0 {
		return nil, nil
	}

	start := 0
	if depth == vertex.VerifyCurrent {
		start = len(v.Changesets) - 1
	}

	result := &vertex.Verification{Verified: true, Entries: make([]vertex.VerificationEntry, 0, len(v.Changesets)-start)}

	var chainedPrevHash []byte
	if start > 0 {
		decoded, err := base64.StdEncoding.DecodeString(v.Changesets[start-1].Hash)
		if err != nil {
			return nil, fmt.Errorf("verify: decode prior changeset hash: %w", err)
		}
		chainedPrevHash = decoded
	}

	for i := start; i < len(v.Changesets); i++ {
		cs := v.Changesets[i]
		entry := vertex.VerificationEntry{Created: cs.Created, Patches: cs.Patches}

		failure, computedHash, props, err := verifyOne(ctx, vault, identity, immutableLog, signingKeyRef, integrityKeyRef, chainedPrevHash, cs)
		if err != nil {
			return nil, err
		}
		if failure != "" {
			entry.Failure = failure
			entry.FailureProperties = props
			result.Verified = false
		}
		result.Entries = append(result.Entries, entry)
		chainedPrevHash = computedHash
	}

	return result, nil
}

// buildFailureProperties assembles the failureProperties payload a
// failed verification reports — spec.md §4.G step 4, §7: the stored
// hash, the changeset's epoch, the reconstructed changeset (carrying
// the hash actually recomputed from the stored patches) alongside the
// stored one, and the issuer/assertionMethod identities parsed from
// the credential, when one was reached.
func buildFailureProperties(cs vertex.Changeset, computedHash []byte, vc *vertex.VerifiableCredential) map[string]any {
	reconstructed := cs
	reconstructed.Hash = base64.StdEncoding.EncodeToString(computedHash)

	props := map[string]any{
		"storedHash":             cs.Hash,
		"epoch":                  cs.Created,
		"reconstructedChangeset": reconstructed,
		"storedChangeset":        cs,
	}
	if vc != nil {
		props["issuer"] = vc.Issuer
		props["assertionMethod"] = vc.AssertionMethod
	}
	return props
}

func verifyOne(
	ctx context.Context,
	vault vertex.Vault,
	identity vertex.Identity,
	immutableLog vertex.ImmutableLog,
	signingKeyRef string,
	integrityKeyRef string,
	prevHash []byte,
	cs vertex.Changeset,
) (string, []byte, map[string]any, error) {
	patchesCanonical, err := canonical.Marshal(cs.Patches)
	if err != nil {
		return "", nil, nil, fmt.Errorf("verify: canonicalize patches: %w", err)
	}

	computed, err := hashchain.Next(prevHash, cs.Created, cs.UserIdentity, patchesCanonical)
	if err != nil {
		return "", nil, nil, fmt.Errorf("verify: compute hash: %w", err)
	}
	computedEncoded := base64.StdEncoding.EncodeToString(computed[:])

	if computedEncoded != cs.Hash {
		return aigerrors.FailureInvalidChangesetHash, computed[:], buildFailureProperties(cs, computed[:], nil), nil
	}

	if cs.ImmutableStorageID == nil {
		// Detached changeset (spec.md §4.F removeImmutable): the hash
		// chain still validates, but there is no anchored credential
		// left to check a signature or integrity payload against.
		return "", computed[:], nil, nil
	}

	credentialBytes, err := immutableLog.Get(ctx, *cs.ImmutableStorageID)
	if err != nil {
		return "", nil, nil, fmt.Errorf("verify: fetch immutable record %q: %w", *cs.ImmutableStorageID, err)
	}

	revoked, subject, vc, err := envelope.Open(ctx, identity, string(credentialBytes))
	if err != nil {
		return "", nil, nil, fmt.Errorf("verify: open envelope for %q: %w", *cs.ImmutableStorageID, err)
	}
	if revoked {
		return aigerrors.FailureChangesetCredentialRevoked, computed[:], buildFailureProperties(cs, computed[:], vc), nil
	}

	hashBytes, err := base64.StdEncoding.DecodeString(cs.Hash)
	if err != nil {
		return "", nil, nil, fmt.Errorf("verify: decode changeset hash: %w", err)
	}
	recomputedSignature, err := vault.Sign(ctx, signingKeyRef, hashBytes)
	if err != nil {
		return "", nil, nil, fmt.Errorf("verify: recompute signature: %w", err)
	}
	expectedSignature, err := base64.StdEncoding.DecodeString(subject.Signature)
	if err != nil {
		return "", nil, nil, fmt.Errorf("verify: decode stored signature: %w", err)
	}
	if !bytes.Equal(recomputedSignature, expectedSignature) {
		return aigerrors.FailureInvalidChangesetSignature, computed[:], buildFailureProperties(cs, computed[:], vc), nil
	}

	if subject.Integrity != "" {
		plaintext, err := envelope.DecryptIntegrityPayload(ctx, vault, integrityKeyRef, subject)
		if err != nil {
			return "", nil, nil, fmt.Errorf("verify: decrypt integrity payload: %w", err)
		}
		expectedCanonical, err := canonical.Marshal(integrityPayload{Created: cs.Created, UserIdentity: cs.UserIdentity, Patches: cs.Patches})
		if err != nil {
			return "", nil, nil, fmt.Errorf("verify: canonicalize expected integrity payload: %w", err)
		}
		if !bytes.Equal(plaintext, expectedCanonical) {
			return aigerrors.FailureInvalidChangesetCanonical, computed[:], buildFailureProperties(cs, computed[:], vc), nil
		}
	}

	return "", computed[:], nil, nil
}
