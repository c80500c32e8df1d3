// Package diffengine computes the RFC 6902 JSON Patch between two
// arbitrary JSON-able snapshots — spec.md §4.B.
package diffengine

import (
	"encoding/json"
	"fmt"

	"github.com/wI2L/jsondiff"

	"github.com/gtscio/auditable-item-graph/pkg/canonical"
	"github.com/gtscio/auditable-item-graph/pkg/vertex"
)

// Diff computes the ordered list of patch operations that turn prior
// into updated. Both arguments are marshalled to JSON by jsondiff
// itself, so callers pass whatever content-bearing snapshot they want
// audited — pkg/aig passes a struct that holds only a vertex's
// metadata, aliases, resources, and edges, keeping housekeeping fields
// like id/created/updated out of the recorded patches. A nil prior
// diffs against an empty JSON object, the same document that Create's
// empty content{} prior marshals to for its first changeset.
//
// The result is decoupled from jsondiff's own Operation type: its
// output is marshalled to JSON and unmarshalled into []vertex.PatchOp
// so the rest of the module never depends on the library's internal
// field names, and each patch Value is re-encoded through
// pkg/canonical so two equal values always serialize identically
// regardless of which map/slice representation jsondiff produced.
func Diff(prior, updated any) ([]vertex.PatchOp, error) {
	if prior == nil {
		prior = struct{}{}
	}
	if updated == nil {
		updated = struct{}{}
	}

	patch, err := jsondiff.Compare(prior, updated)
	if err != nil {
		return nil, fmt.Errorf("diffengine: compare failed: %w", err)
	}

	raw, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("diffengine: marshal patch failed: %w", err)
	}

	var ops []vertex.PatchOp
	if err := json.Unmarshal(raw, &ops); err != nil {
		return nil, fmt.Errorf("diffengine: unmarshal patch failed: %w", err)
	}

	for i := range ops {
		if ops[i].Value == nil {
			continue
		}
		canon, err := canonical.Marshal(ops[i].Value)
		if err != nil {
			return nil, fmt.Errorf("diffengine: canonicalize patch value at %q: %w", ops[i].Path, err)
		}
		var normalized any
		if err := json.Unmarshal(canon, &normalized); err != nil {
			return nil, fmt.Errorf("diffengine: renormalize patch value at %q: %w", ops[i].Path, err)
		}
		ops[i].Value = normalized
	}

	if ops == nil {
		ops = []vertex.PatchOp{}
	}
	return ops, nil
}
