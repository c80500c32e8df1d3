// Package vertex holds the auditable item graph's data model (spec.md
// §3) and the narrow collaborator interfaces the core consumes (spec.md
// §6). Its only dependency inside this module is pkg/errors, so that
// both the leaf components (internal/diffengine, internal/
// hashchain, internal/envelope, internal/reconcile, internal/verify)
// and the orchestrating pkg/aig.Service can depend on it without a
// cycle.
package vertex

// Metadata is an opaque structured value tree — a JSON-LD node object
// in practice, but the core only ever touches it through
// pkg/canonical, never by field name, per spec.md §9.
type Metadata = any

// Element holds the fields every sub-element (Alias, Resource, the
// embedded part of Edge) shares — spec.md §3.
type Element struct {
	ID             string   `json:"id"`
	Created        int64    `json:"created"`
	Updated        *int64   `json:"updated,omitempty"`
	Deleted        *int64   `json:"deleted,omitempty"`
	MetadataSchema *string  `json:"metadataSchema,omitempty"`
	Metadata       Metadata `json:"metadata,omitempty"`
}

// IsDeleted reports whether the element has been soft-deleted.
func (e Element) IsDeleted() bool { return e.Deleted != nil }

// Alias is a named secondary identifier for a vertex.
type Alias struct {
	Element
}

// Resource is an attached resource reference.
type Resource struct {
	Element
}

// Edge is a typed, directed relationship to another vertex.
type Edge struct {
	Element
	Relationship string `json:"relationship"`
}

// PatchOp is one RFC 6902 JSON Patch operation.
type PatchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
	From  string `json:"from,omitempty"`
}

// Changeset is one hash-chained, signed record of a vertex mutation —
// spec.md §3.
type Changeset struct {
	Created            int64     `json:"created"`
	UserIdentity       string    `json:"userIdentity"`
	Patches            []PatchOp `json:"patches"`
	Hash               string    `json:"hash"`
	ImmutableStorageID *string   `json:"immutableStorageId,omitempty"`
}

// Vertex is the root entity of the auditable item graph — spec.md §3.
type Vertex struct {
	ID             string      `json:"id"`
	NodeIdentity   string      `json:"nodeIdentity"`
	Created        int64       `json:"created"`
	Updated        int64       `json:"updated"`
	MetadataSchema *string     `json:"metadataSchema,omitempty"`
	Metadata       Metadata    `json:"metadata,omitempty"`
	AliasIndex     *string     `json:"aliasIndex,omitempty"`
	Aliases        []Alias     `json:"aliases,omitempty"`
	Resources      []Resource  `json:"resources,omitempty"`
	Edges          []Edge      `json:"edges,omitempty"`
	Changesets     []Changeset `json:"changesets,omitempty"`
}

// ElementInput is the update-list item a caller supplies for aliases
// and resources in Create/Update — spec.md §4.E.
type ElementInput struct {
	ID             string   `json:"id"`
	MetadataSchema *string  `json:"metadataSchema,omitempty"`
	Metadata       Metadata `json:"metadata,omitempty"`
}

// EdgeInput is the update-list item a caller supplies for edges.
type EdgeInput struct {
	ElementInput
	Relationship string `json:"relationship"`
}
