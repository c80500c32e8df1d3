// Package aig implements the auditable item graph's vertex service —
// the orchestrating component (spec.md §4.F) that ties the diff
// engine, hash chain, integrity envelope, sub-element reconcilers, and
// verifier together around a single EntityStorage/ImmutableLog/Vault/
// Identity collaborator set.
//
// Every mutation Service performs is recorded as a changeset: the
// ordered JSON Patch between the vertex's content before and after the
// call, chained by hash to the changeset before it, signed, and
// anchored into the immutable log behind a verifiable credential. Get
// can optionally replay that chain and report whether it still checks
// out.
package aig
