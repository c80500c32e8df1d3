package vertex

import "context"

// Vault signs and optionally encrypts the digests and integrity
// payloads a changeset anchors — spec.md §6.
type Vault interface {
	// Sign signs data with the key addressed by keyRef
	// ("<nodeIdentity>/<vaultKeyId>"). Ed25519 is deterministic, so
	// signing the same bytes twice under the same key must yield the
	// same signature — internal/verify relies on this to recompute a
	// changeset's signature locally instead of needing a Verify op.
	Sign(ctx context.Context, keyRef string, data []byte) ([]byte, error)

	// Encrypt encrypts plaintext under keyRef using algo
	// (AlgChaCha20Poly1305).
	Encrypt(ctx context.Context, keyRef, algo string, plaintext []byte) ([]byte, error)

	// Decrypt reverses Encrypt.
	Decrypt(ctx context.Context, keyRef, algo string, ciphertext []byte) ([]byte, error)
}

// AlgChaCha20Poly1305 is the only encryption algorithm the integrity
// envelope uses — spec.md §4.D.
const AlgChaCha20Poly1305 = "ChaCha20Poly1305"

// VerifiableCredential is what Identity.CheckVerifiableCredential
// returns for the caller to inspect (issuer/subject identities,
// revocation status) when reconstructing a verification report.
type VerifiableCredential struct {
	Issuer          string `json:"issuer"`
	AssertionMethod string `json:"assertionMethod"`
	SubjectID       string `json:"subjectId,omitempty"`
	CredentialType  string `json:"credentialType"`
	Subject         any    `json:"subject"`
}

// Identity issues and checks the verifiable credential that wraps a
// changeset's signature and optional integrity payload — spec.md §6.
type Identity interface {
	// CreateVerifiableCredential issues a JWS over subjectData as the
	// credential subject and returns it.
	CreateVerifiableCredential(ctx context.Context, issuer, assertionMethod string, subjectID *string, credentialType string, subjectData any) (jwt string, err error)

	// CheckVerifiableCredential parses and verifies a JWS, reporting
	// whether it has been revoked.
	CheckVerifiableCredential(ctx context.Context, jwt string) (revoked bool, vc *VerifiableCredential, err error)
}

// ImmutableLog is the append-only external store changesets anchor
// into — spec.md §6. id is an opaque URN ("immutable:<driver>:<hex>").
type ImmutableLog interface {
	Store(ctx context.Context, controller string, data []byte) (id string, err error)
	Get(ctx context.Context, id string) ([]byte, error)
	Remove(ctx context.Context, controller, id string) error
}

// IDMode selects which field(s) Query matches the needle against.
type IDMode string

const (
	IDModeID    IDMode = "id"
	IDModeAlias IDMode = "alias"
	IDModeBoth  IDMode = "both"
)

// OrderByField selects the sort field for Query.
type OrderByField string

const (
	OrderByCreated OrderByField = "created"
	OrderByUpdated OrderByField = "updated"
)

// SortDirection is ascending or descending.
type SortDirection string

const (
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// Condition is one "property includes value" predicate. EntityStorage
// implementations must support at least "id" and "aliasIndex".
type Condition struct {
	Property string
	Value    string
}

// QueryConditions is the set of Condition predicates Query builds,
// always OR-joined — spec.md §4.F.
type QueryConditions struct {
	Conditions []Condition
}

// SortOrder orders Query results by one vertex field.
type SortOrder struct {
	Property  OrderByField
	Direction SortDirection
}

// QueryResult is what EntityStorage.Query and Service.Query return.
type QueryResult struct {
	Entities      []*Vertex
	Cursor        *string
	PageSize      *int
	TotalEntities int
}

// EntityStorage is the vertex persistence collaborator — spec.md §6.
// Implementations must maintain a primary key on ID, a secondary index
// on AliasIndex, and sortable Created/Updated fields.
type EntityStorage interface {
	Get(ctx context.Context, id string) (*Vertex, error)
	Set(ctx context.Context, v *Vertex) error
	Query(ctx context.Context, conditions QueryConditions, sort SortOrder, projection []string, cursor *string, pageSize *int) (QueryResult, error)
}
