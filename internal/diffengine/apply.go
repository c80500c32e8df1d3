package diffengine

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/gtscio/auditable-item-graph/pkg/vertex"
)

// Apply replays patches against base and returns the resulting
// document as raw JSON. It is Diff's inverse: Diff(a, b) followed by
// Apply(a, patches) reproduces b's JSON encoding. Used to reconstruct
// a vertex's content as of an earlier changeset by folding patches
// forward from an empty document — spec.md §4.G's replay, extended to
// full content reconstruction rather than hash/signature checking
// alone.
func Apply(base any, patches []vertex.PatchOp) ([]byte, error) {
	baseJSON, err := json.Marshal(base)
	if err != nil {
		return nil, fmt.Errorf("diffengine: marshal apply base: %w", err)
	}

	if len(patches) == 0 {
		return baseJSON, nil
	}

	patchesJSON, err := json.Marshal(patches)
	if err != nil {
		return nil, fmt.Errorf("diffengine: marshal apply patches: %w", err)
	}

	patch, err := jsonpatch.DecodePatch(patchesJSON)
	if err != nil {
		return nil, fmt.Errorf("diffengine: decode patches: %w", err)
	}

	result, err := patch.Apply(baseJSON)
	if err != nil {
		return nil, fmt.Errorf("diffengine: apply patches: %w", err)
	}
	return result, nil
}
