package vertex

// VerifyDepth selects how much of a vertex's changeset chain Get
// re-verifies — spec.md §4.F, §GLOSSARY "Verify depth".
type VerifyDepth string

const (
	VerifyNone    VerifyDepth = "none"
	VerifyCurrent VerifyDepth = "current"
	VerifyAll     VerifyDepth = "all"
)

// GetOptions controls Service.Get — spec.md §4.F.
type GetOptions struct {
	IncludeDeleted       bool
	IncludeChangesets    bool
	VerifySignatureDepth VerifyDepth
}

// VerificationEntry is one changeset's verification outcome — spec.md
// §4.G, §7. Failure is one of the FailureXxx constants in pkg/errors,
// or empty when the changeset verified cleanly.
type VerificationEntry struct {
	Created           int64          `json:"created"`
	Patches           []PatchOp      `json:"patches"`
	Failure           string         `json:"failure,omitempty"`
	FailureProperties map[string]any `json:"failureProperties,omitempty"`
}

// Verification is the aggregate report Get returns when
// VerifySignatureDepth is not VerifyNone.
type Verification struct {
	Verified bool                `json:"verified"`
	Entries  []VerificationEntry `json:"entries"`
}

// GetResult is what Service.Get returns.
type GetResult struct {
	Vertex       *Vertex
	Verified     *bool
	Verification *Verification
}
