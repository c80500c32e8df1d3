// Package hashchain computes the per-changeset Blake2b-256 digest
// chained to the prior changeset's digest — spec.md §4.C.
package hashchain

import (
	"strconv"

	"golang.org/x/crypto/blake2b"
)

// Size is the digest length in bytes.
const Size = 32

// Next computes hash_i = Blake2b-256(prevHash || ascii(created) ||
// userIdentity || patchesCanonical), per spec.md §3 invariant 6.
// prevHash is empty ([]byte{}) for the first changeset. The
// concatenation is built incrementally via hash.Hash.Write rather than
// materialized with bytes.Join, per spec.md §9.
func Next(prevHash []byte, created int64, userIdentity string, patchesCanonical []byte) ([Size]byte, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return [Size]byte{}, err
	}

	if _, err := h.Write(prevHash); err != nil {
		return [Size]byte{}, err
	}
	if _, err := h.Write([]byte(strconv.FormatInt(created, 10))); err != nil {
		return [Size]byte{}, err
	}
	if _, err := h.Write([]byte(userIdentity)); err != nil {
		return [Size]byte{}, err
	}
	if _, err := h.Write(patchesCanonical); err != nil {
		return [Size]byte{}, err
	}

	var out [Size]byte
	copy(out[:], h.Sum(nil))
	return out, nil
}
