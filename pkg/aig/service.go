package aig

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/gtscio/auditable-item-graph/internal/diffengine"
	"github.com/gtscio/auditable-item-graph/internal/envelope"
	"github.com/gtscio/auditable-item-graph/internal/hashchain"
	"github.com/gtscio/auditable-item-graph/internal/reconcile"
	"github.com/gtscio/auditable-item-graph/internal/verify"
	"github.com/gtscio/auditable-item-graph/pkg/canonical"
	"github.com/gtscio/auditable-item-graph/pkg/clock"
	aigerrors "github.com/gtscio/auditable-item-graph/pkg/errors"
	"github.com/gtscio/auditable-item-graph/pkg/vertex"
)

// Service implements the auditable item graph's Create/Get/Update/
// RemoveImmutable/Query operations over an injected collaborator set —
// spec.md §4.F, §6.
type Service struct {
	storage  vertex.EntityStorage
	log      vertex.ImmutableLog
	vault    vertex.Vault
	identity vertex.Identity
	clock    clock.Clock
	logger   *zap.Logger
	cfg      Config
}

// NewService wires a Service from its collaborators and Config.
// logger may be nil, in which case a no-op logger is used.
func NewService(storage vertex.EntityStorage, log vertex.ImmutableLog, vault vertex.Vault, identity vertex.Identity, clk clock.Clock, logger *zap.Logger, cfg Config) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{storage: storage, log: log, vault: vault, identity: identity, clock: clk, logger: logger, cfg: cfg}
}

// content is the part of a vertex a changeset is ever computed over.
// Housekeeping fields (id, nodeIdentity, created, updated, aliasIndex)
// never appear in a patch; only the caller-controlled data does.
type content struct {
	MetadataSchema *string           `json:"metadataSchema,omitempty"`
	Metadata       vertex.Metadata   `json:"metadata,omitempty"`
	Aliases        []vertex.Alias    `json:"aliases,omitempty"`
	Resources      []vertex.Resource `json:"resources,omitempty"`
	Edges          []vertex.Edge     `json:"edges,omitempty"`
}

func vertexContent(v *vertex.Vertex) content {
	if v == nil {
		return content{}
	}
	return content{
		MetadataSchema: v.MetadataSchema,
		Metadata:       v.Metadata,
		Aliases:        v.Aliases,
		Resources:      v.Resources,
		Edges:          v.Edges,
	}
}

func generateID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("aig: generate vertex id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// computeAliasIndex joins every alias id, including tombstoned ones,
// in insertion order — spec.md §8's invariant requires aliasIndex to
// reflect the full alias history, not just currently-visible aliases.
func computeAliasIndex(aliases []vertex.Alias) *string {
	if len(aliases) == 0 {
		return nil
	}
	ids := make([]string, 0, len(aliases))
	for _, a := range aliases {
		ids = append(ids, strings.ToLower(a.ID))
	}
	idx := strings.Join(ids, "||")
	return &idx
}

// seal diffs prior against updated, chains a new changeset created at
// now onto the end of existingChangesets, signs and anchors it, and
// returns the full changeset list with the new entry appended.
func (s *Service) seal(ctx context.Context, now int64, userIdentity string, prior, updated content, existingChangesets []vertex.Changeset) ([]vertex.Changeset, error) {
	patches, err := diffengine.Diff(prior, updated)
	if err != nil {
		return nil, fmt.Errorf("diff changeset content: %w", err)
	}

	patchesCanonical, err := canonical.Marshal(patches)
	if err != nil {
		return nil, fmt.Errorf("canonicalize patches: %w", err)
	}

	var prevHash []byte
	if n := len(existingChangesets); n > 0 {
		decoded, err := base64.StdEncoding.DecodeString(existingChangesets[n-1].Hash)
		if err != nil {
			return nil, fmt.Errorf("decode prior changeset hash: %w", err)
		}
		prevHash = decoded
	}

	digest, err := hashchain.Next(prevHash, now, userIdentity, patchesCanonical)
	if err != nil {
		return nil, fmt.Errorf("compute changeset hash: %w", err)
	}

	cs := vertex.Changeset{
		Created:      now,
		UserIdentity: userIdentity,
		Patches:      patches,
		Hash:         base64.StdEncoding.EncodeToString(digest[:]),
	}

	credential, err := envelope.Seal(ctx, s.vault, s.identity, s.cfg.NodeIdentity, s.cfg.signingKeyRef(), s.cfg.integrityKeyRef(), s.cfg.EnableIntegrityCheck, cs)
	if err != nil {
		return nil, fmt.Errorf("seal changeset envelope: %w", err)
	}

	immutableID, err := s.log.Store(ctx, s.cfg.NodeIdentity, []byte(credential))
	if err != nil {
		return nil, fmt.Errorf("anchor changeset envelope: %w", err)
	}
	cs.ImmutableStorageID = &immutableID

	return append(append([]vertex.Changeset(nil), existingChangesets...), cs), nil
}

// Create creates a new vertex and records its first changeset.
func (s *Service) Create(
	ctx context.Context,
	userIdentity string,
	metadataSchema *string,
	metadata vertex.Metadata,
	aliases *[]vertex.ElementInput,
	resources *[]vertex.ElementInput,
	edges *[]vertex.EdgeInput,
) (*vertex.Vertex, error) {
	if userIdentity == "" || s.cfg.NodeIdentity == "" {
		return nil, aigerrors.Wrap(aigerrors.ErrCreateFailed, aigerrors.ErrGuardViolation)
	}

	hexID, err := generateID()
	if err != nil {
		return nil, aigerrors.Wrap(aigerrors.ErrCreateFailed, err)
	}
	now := s.clock.Now().UnixMilli()

	reconciledAliases, err := reconcile.Aliases(nil, aliases, now)
	if err != nil {
		return nil, aigerrors.Wrap(aigerrors.ErrCreateFailed, err)
	}
	reconciledResources, err := reconcile.Resources(nil, resources, now)
	if err != nil {
		return nil, aigerrors.Wrap(aigerrors.ErrCreateFailed, err)
	}
	reconciledEdges, err := reconcile.Edges(nil, edges, now)
	if err != nil {
		return nil, aigerrors.Wrap(aigerrors.ErrCreateFailed, err)
	}

	updated := content{
		MetadataSchema: metadataSchema,
		Metadata:       metadata,
		Aliases:        reconciledAliases,
		Resources:      reconciledResources,
		Edges:          reconciledEdges,
	}

	changesets, err := s.seal(ctx, now, userIdentity, content{}, updated, nil)
	if err != nil {
		return nil, aigerrors.Wrap(aigerrors.ErrCreateFailed, err)
	}

	v := &vertex.Vertex{
		ID:             vertex.FormatURN(hexID),
		NodeIdentity:   s.cfg.NodeIdentity,
		Created:        now,
		Updated:        now,
		MetadataSchema: metadataSchema,
		Metadata:       metadata,
		AliasIndex:     computeAliasIndex(reconciledAliases),
		Aliases:        reconciledAliases,
		Resources:      reconciledResources,
		Edges:          reconciledEdges,
		Changesets:     changesets,
	}

	if err := s.storage.Set(ctx, v); err != nil {
		return nil, aigerrors.Wrap(aigerrors.ErrCreateFailed, err)
	}

	s.logger.Info("vertex created", zap.String("id", v.ID), zap.String("userIdentity", userIdentity))
	return v, nil
}

// Update applies an update-list of changes to an existing vertex and
// records one changeset covering all of them.
func (s *Service) Update(
	ctx context.Context,
	id string,
	userIdentity string,
	metadataSchema *string,
	metadata vertex.Metadata,
	aliases *[]vertex.ElementInput,
	resources *[]vertex.ElementInput,
	edges *[]vertex.EdgeInput,
) (*vertex.Vertex, error) {
	if userIdentity == "" || s.cfg.NodeIdentity == "" {
		return nil, aigerrors.Wrap(aigerrors.ErrUpdateFailed, aigerrors.ErrGuardViolation)
	}

	v, err := s.storage.Get(ctx, id)
	if err != nil {
		return nil, aigerrors.Wrap(aigerrors.ErrUpdateFailed, err)
	}

	now := s.clock.Now().UnixMilli()
	prior := vertexContent(v)

	reconciledAliases, err := reconcile.Aliases(v.Aliases, aliases, now)
	if err != nil {
		return nil, aigerrors.Wrap(aigerrors.ErrUpdateFailed, err)
	}
	reconciledResources, err := reconcile.Resources(v.Resources, resources, now)
	if err != nil {
		return nil, aigerrors.Wrap(aigerrors.ErrUpdateFailed, err)
	}
	reconciledEdges, err := reconcile.Edges(v.Edges, edges, now)
	if err != nil {
		return nil, aigerrors.Wrap(aigerrors.ErrUpdateFailed, err)
	}

	updatedMetadataSchema := v.MetadataSchema
	updatedMetadata := v.Metadata
	if metadataSchema != nil || metadata != nil {
		updatedMetadataSchema = metadataSchema
		updatedMetadata = metadata
	}

	updated := content{
		MetadataSchema: updatedMetadataSchema,
		Metadata:       updatedMetadata,
		Aliases:        reconciledAliases,
		Resources:      reconciledResources,
		Edges:          reconciledEdges,
	}

	if len(v.Changesets) > 0 {
		patches, err := diffengine.Diff(prior, updated)
		if err != nil {
			return nil, aigerrors.Wrap(aigerrors.ErrUpdateFailed, fmt.Errorf("diff changeset content: %w", err))
		}
		if len(patches) == 0 {
			s.logger.Info("vertex update is a no-op", zap.String("id", v.ID), zap.String("userIdentity", userIdentity))
			return v, nil
		}
	}

	changesets, err := s.seal(ctx, now, userIdentity, prior, updated, v.Changesets)
	if err != nil {
		return nil, aigerrors.Wrap(aigerrors.ErrUpdateFailed, err)
	}

	v.Updated = now
	v.MetadataSchema = updatedMetadataSchema
	v.Metadata = updatedMetadata
	v.AliasIndex = computeAliasIndex(reconciledAliases)
	v.Aliases = reconciledAliases
	v.Resources = reconciledResources
	v.Edges = reconciledEdges
	v.Changesets = changesets

	if err := s.storage.Set(ctx, v); err != nil {
		return nil, aigerrors.Wrap(aigerrors.ErrUpdateFailed, err)
	}

	s.logger.Info("vertex updated", zap.String("id", v.ID), zap.String("userIdentity", userIdentity))
	return v, nil
}

// Get fetches a vertex by its "aig:<hex>" id, optionally filtering out
// soft-deleted sub-elements, stripping changesets, and replaying the
// changeset chain for signature/integrity/revocation verification.
func (s *Service) Get(ctx context.Context, id string, opts vertex.GetOptions) (*vertex.GetResult, error) {
	if _, err := vertex.ParseURN(id); err != nil {
		return nil, aigerrors.Wrap(aigerrors.ErrGetFailed, err)
	}

	v, err := s.storage.Get(ctx, id)
	if err != nil {
		return nil, aigerrors.Wrap(aigerrors.ErrGetFailed, err)
	}

	var verification *vertex.Verification
	if opts.VerifySignatureDepth != "" && opts.VerifySignatureDepth != vertex.VerifyNone {
		verification, err = verify.Replay(ctx, s.vault, s.identity, s.log, s.cfg.signingKeyRef(), s.cfg.integrityKeyRef(), v, opts.VerifySignatureDepth)
		if err != nil {
			return nil, aigerrors.Wrap(aigerrors.ErrGetFailed, err)
		}
	}

	out := *v
	if !opts.IncludeDeleted {
		out.Aliases = filterDeletedAliases(v.Aliases)
		out.Resources = filterDeletedResources(v.Resources)
		out.Edges = filterDeletedEdges(v.Edges)
	}
	if !opts.IncludeChangesets {
		out.Changesets = nil
	}

	result := &vertex.GetResult{Vertex: &out}
	if verification != nil {
		result.Verified = &verification.Verified
		result.Verification = verification
	}
	return result, nil
}

func filterDeletedAliases(in []vertex.Alias) []vertex.Alias {
	out := make([]vertex.Alias, 0, len(in))
	for _, a := range in {
		if !a.IsDeleted() {
			out = append(out, a)
		}
	}
	return out
}

func filterDeletedResources(in []vertex.Resource) []vertex.Resource {
	out := make([]vertex.Resource, 0, len(in))
	for _, r := range in {
		if !r.IsDeleted() {
			out = append(out, r)
		}
	}
	return out
}

func filterDeletedEdges(in []vertex.Edge) []vertex.Edge {
	out := make([]vertex.Edge, 0, len(in))
	for _, e := range in {
		if !e.IsDeleted() {
			out = append(out, e)
		}
	}
	return out
}

// RemoveImmutable purges every changeset's anchored credential from
// the immutable log while leaving the vertex, its hash chain, and its
// patch history untouched — spec.md §4.F. Once removed, VerifyAll can
// no longer check that changeset's signature or integrity payload; its
// hash still participates in the chain.
func (s *Service) RemoveImmutable(ctx context.Context, id string) error {
	v, err := s.storage.Get(ctx, id)
	if err != nil {
		return aigerrors.Wrap(aigerrors.ErrRemoveImmutableFailed, err)
	}

	for i := range v.Changesets {
		storageID := v.Changesets[i].ImmutableStorageID
		if storageID == nil {
			continue
		}
		if err := s.log.Remove(ctx, s.cfg.NodeIdentity, *storageID); err != nil {
			return aigerrors.Wrap(aigerrors.ErrRemoveImmutableFailed, err)
		}
		v.Changesets[i].ImmutableStorageID = nil
	}

	if err := s.storage.Set(ctx, v); err != nil {
		return aigerrors.Wrap(aigerrors.ErrRemoveImmutableFailed, err)
	}

	s.logger.Info("vertex immutable records removed", zap.String("id", id))
	return nil
}
