package aig

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gtscio/auditable-item-graph/internal/diffengine"
	aigerrors "github.com/gtscio/auditable-item-graph/pkg/errors"
	"github.com/gtscio/auditable-item-graph/pkg/vertex"
)

// ReconstructedContent is a vertex's content as of one point in its
// changeset history.
type ReconstructedContent struct {
	MetadataSchema *string           `json:"metadataSchema,omitempty"`
	Metadata       vertex.Metadata   `json:"metadata,omitempty"`
	Aliases        []vertex.Alias    `json:"aliases,omitempty"`
	Resources      []vertex.Resource `json:"resources,omitempty"`
	Edges          []vertex.Edge     `json:"edges,omitempty"`
}

// Reconstruct folds a vertex's changesets forward from an empty
// document through changeset index upto (inclusive) and returns the
// content as it stood at that point in the audit trail. upto must be
// within [0, len(changesets)-1].
//
// This does not replay hashes or signatures — pair it with Get's
// VerifySignatureDepth when the reconstructed content needs to be
// trusted, not just inspected.
func (s *Service) Reconstruct(ctx context.Context, id string, upto int) (*ReconstructedContent, error) {
	v, err := s.storage.Get(ctx, id)
	if err != nil {
		return nil, aigerrors.Wrap(aigerrors.ErrGetFailed, err)
	}
	if upto < 0 || upto >= len(v.Changesets) {
		return nil, aigerrors.Wrap(aigerrors.ErrGetFailed, fmt.Errorf("changeset index %d out of range [0,%d)", upto, len(v.Changesets)))
	}

	var acc []byte
	for i := 0; i <= upto; i++ {
		acc, err = diffengine.Apply(rawOrEmpty(acc), v.Changesets[i].Patches)
		if err != nil {
			return nil, aigerrors.Wrap(aigerrors.ErrGetFailed, fmt.Errorf("reconstruct through changeset %d: %w", i, err))
		}
	}

	var result ReconstructedContent
	if err := json.Unmarshal(acc, &result); err != nil {
		return nil, aigerrors.Wrap(aigerrors.ErrGetFailed, fmt.Errorf("unmarshal reconstructed content: %w", err))
	}
	return &result, nil
}

func rawOrEmpty(acc []byte) any {
	if acc == nil {
		return struct{}{}
	}
	return json.RawMessage(acc)
}
