// Package reconcile applies an update-list (aliases, resources, or
// edges) against a vertex's current sub-elements — spec.md §4.E.
//
// The update-list pointer itself carries meaning distinct from its
// contents: a nil pointer means the caller did not touch that
// sub-element kind at all, and every existing element is left as-is.
// A non-nil pointer to an empty slice means the caller is declaring
// "this vertex now has none of these", and every existing,
// not-already-deleted element is soft-deleted. A non-nil pointer with
// entries declares the complete desired membership: entries present
// are created or updated, and any existing element whose id is absent
// from the list is soft-deleted. This "absent means untouched, empty
// means clear" rule was an explicit design decision where the
// distillation left the absent-vs-empty case unspecified.
package reconcile

import (
	"fmt"

	"github.com/gtscio/auditable-item-graph/pkg/canonical"
	aigerrors "github.com/gtscio/auditable-item-graph/pkg/errors"
	"github.com/gtscio/auditable-item-graph/pkg/vertex"
)

func metadataChanged(existingSchema *string, existingMetadata vertex.Metadata, newSchema *string, newMetadata vertex.Metadata) (bool, error) {
	if !stringPtrEqual(existingSchema, newSchema) {
		return true, nil
	}
	equal, err := canonical.Equal(existingMetadata, newMetadata)
	if err != nil {
		return false, fmt.Errorf("reconcile: compare metadata: %w", err)
	}
	return !equal, nil
}

func stringPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Aliases reconciles existing against input, per the package doc's
// absent/empty/populated rule.
func Aliases(existing []vertex.Alias, input *[]vertex.ElementInput, now int64) ([]vertex.Alias, error) {
	if input == nil {
		return existing, nil
	}

	byID := make(map[string]int, len(existing))
	for i, a := range existing {
		byID[a.ID] = i
	}

	result := make([]vertex.Alias, len(existing))
	copy(result, existing)
	seen := make(map[string]bool, len(*input))

	for _, in := range *input {
		if in.ID == "" {
			return nil, aigerrors.ErrGuardViolation
		}
		seen[in.ID] = true
		idx, ok := byID[in.ID]
		if !ok {
			result = append(result, vertex.Alias{Element: vertex.Element{
				ID: in.ID, Created: now, MetadataSchema: in.MetadataSchema, Metadata: in.Metadata,
			}})
			continue
		}
		if result[idx].IsDeleted() {
			result[idx] = vertex.Alias{Element: vertex.Element{
				ID: in.ID, Created: now, MetadataSchema: in.MetadataSchema, Metadata: in.Metadata,
			}}
			continue
		}
		changed, err := metadataChanged(result[idx].MetadataSchema, result[idx].Metadata, in.MetadataSchema, in.Metadata)
		if err != nil {
			return nil, err
		}
		if changed {
			el := result[idx]
			updated := now
			el.Updated = &updated
			el.MetadataSchema = in.MetadataSchema
			el.Metadata = in.Metadata
			result[idx] = el
		}
	}

	for i := range result {
		if result[i].IsDeleted() || seen[result[i].ID] {
			continue
		}
		deleted := now
		result[i].Deleted = &deleted
	}

	return result, nil
}

// Resources reconciles existing against input, per the package doc's
// absent/empty/populated rule.
func Resources(existing []vertex.Resource, input *[]vertex.ElementInput, now int64) ([]vertex.Resource, error) {
	if input == nil {
		return existing, nil
	}

	byID := make(map[string]int, len(existing))
	for i, r := range existing {
		byID[r.ID] = i
	}

	result := make([]vertex.Resource, len(existing))
	copy(result, existing)
	seen := make(map[string]bool, len(*input))

	for _, in := range *input {
		if in.ID == "" {
			return nil, aigerrors.ErrGuardViolation
		}
		seen[in.ID] = true
		idx, ok := byID[in.ID]
		if !ok {
			result = append(result, vertex.Resource{Element: vertex.Element{
				ID: in.ID, Created: now, MetadataSchema: in.MetadataSchema, Metadata: in.Metadata,
			}})
			continue
		}
		if result[idx].IsDeleted() {
			result[idx] = vertex.Resource{Element: vertex.Element{
				ID: in.ID, Created: now, MetadataSchema: in.MetadataSchema, Metadata: in.Metadata,
			}}
			continue
		}
		changed, err := metadataChanged(result[idx].MetadataSchema, result[idx].Metadata, in.MetadataSchema, in.Metadata)
		if err != nil {
			return nil, err
		}
		if changed {
			el := result[idx]
			updated := now
			el.Updated = &updated
			el.MetadataSchema = in.MetadataSchema
			el.Metadata = in.Metadata
			result[idx] = el
		}
	}

	for i := range result {
		if result[i].IsDeleted() || seen[result[i].ID] {
			continue
		}
		deleted := now
		result[i].Deleted = &deleted
	}

	return result, nil
}

// Edges reconciles existing against input, per the package doc's
// absent/empty/populated rule. Relationship is compared alongside
// metadata when deciding whether an existing edge needs an update.
func Edges(existing []vertex.Edge, input *[]vertex.EdgeInput, now int64) ([]vertex.Edge, error) {
	if input == nil {
		return existing, nil
	}

	byID := make(map[string]int, len(existing))
	for i, e := range existing {
		byID[e.ID] = i
	}

	result := make([]vertex.Edge, len(existing))
	copy(result, existing)
	seen := make(map[string]bool, len(*input))

	for _, in := range *input {
		if in.ID == "" || in.Relationship == "" {
			return nil, aigerrors.ErrGuardViolation
		}
		seen[in.ID] = true
		idx, ok := byID[in.ID]
		if !ok {
			result = append(result, vertex.Edge{
				Element: vertex.Element{
					ID: in.ID, Created: now, MetadataSchema: in.MetadataSchema, Metadata: in.Metadata,
				},
				Relationship: in.Relationship,
			})
			continue
		}
		if result[idx].IsDeleted() {
			result[idx] = vertex.Edge{
				Element: vertex.Element{
					ID: in.ID, Created: now, MetadataSchema: in.MetadataSchema, Metadata: in.Metadata,
				},
				Relationship: in.Relationship,
			}
			continue
		}
		metaChanged, err := metadataChanged(result[idx].MetadataSchema, result[idx].Metadata, in.MetadataSchema, in.Metadata)
		if err != nil {
			return nil, err
		}
		if metaChanged || result[idx].Relationship != in.Relationship {
			el := result[idx]
			updated := now
			el.Updated = &updated
			el.MetadataSchema = in.MetadataSchema
			el.Metadata = in.Metadata
			el.Relationship = in.Relationship
			result[idx] = el
		}
	}

	for i := range result {
		if result[i].IsDeleted() || seen[result[i].ID] {
			continue
		}
		deleted := now
		result[i].Deleted = &deleted
	}

	return result, nil
}
