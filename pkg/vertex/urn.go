package vertex

import (
	"encoding/hex"
	"fmt"
	"strings"

	aigerrors "github.com/gtscio/auditable-item-graph/pkg/errors"
)

// Namespace is the only URN namespace the core accepts for vertex ids.
const Namespace = "aig"

// FormatURN renders a 32-byte hex id as "aig:<hex>".
func FormatURN(hexID string) string {
	return Namespace + ":" + hexID
}

// ParseURN parses a "aig:<hex>" URN, returning the lowercase hex id.
// Any other namespace returns aigerrors.ErrNamespaceMismatch.
func ParseURN(urn string) (string, error) {
	parts := strings.SplitN(urn, ":", 2)
	if len(parts) != 2 {
		return "", aigerrors.ErrNamespaceMismatch
	}
	if parts[0] != Namespace {
		return "", aigerrors.ErrNamespaceMismatch
	}
	hexID := strings.ToLower(parts[1])
	if _, err := hex.DecodeString(hexID); err != nil {
		return "", fmt.Errorf("%w: invalid hex id %q", aigerrors.ErrNamespaceMismatch, parts[1])
	}
	return hexID, nil
}
