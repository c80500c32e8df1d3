package aig

// Config holds the per-node settings that shape how Service signs,
// encrypts, and anchors changesets. It has no file or environment
// loader: wiring Config from a config file or flag set is the
// embedding application's job, not this package's — spec.md §1
// Non-goals excludes an outer configuration surface, but Config
// itself still exists as the typed knob set every operation reads.
type Config struct {
	// NodeIdentity identifies this node as a changeset issuer and
	// immutable log controller.
	NodeIdentity string

	// SigningKeyRef addresses the Vault key Service signs changeset
	// hashes with. Defaults to "<NodeIdentity>/signing" when empty.
	SigningKeyRef string

	// IntegrityKeyRef addresses the Vault key Service encrypts
	// integrity payloads with. Defaults to "<NodeIdentity>/integrity"
	// when empty.
	IntegrityKeyRef string

	// EnableIntegrityCheck turns on the encrypted integrity payload
	// every changeset envelope can optionally carry — spec.md §4.D.
	EnableIntegrityCheck bool

	// DefaultPageSize is used by Query when the caller passes a nil
	// pageSize.
	DefaultPageSize int
}

func (c Config) signingKeyRef() string {
	if c.SigningKeyRef != "" {
		return c.SigningKeyRef
	}
	return c.NodeIdentity + "/signing"
}

func (c Config) integrityKeyRef() string {
	if c.IntegrityKeyRef != "" {
		return c.IntegrityKeyRef
	}
	return c.NodeIdentity + "/integrity"
}

func (c Config) defaultPageSize() int {
	if c.DefaultPageSize > 0 {
		return c.DefaultPageSize
	}
	return 100
}
