package memstore

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	aigerrors "github.com/gtscio/auditable-item-graph/pkg/errors"
	"github.com/gtscio/auditable-item-graph/pkg/vertex"
)

// aliasIndexContains reports whether needle (already lowercased by the
// caller) appears anywhere in aliasIndex, the lowercased "||"-joined
// alias id list.
func aliasIndexContains(aliasIndex, needle string) bool {
	return strings.Contains(aliasIndex, needle)
}

// EntityStorage is an in-memory reference implementation of
// vertex.EntityStorage: a primary map keyed on id. Conditions on "id"
// and "aliasIndex" both require substring containment (spec.md §4.F's
// query({id:"4"}) scenario matches any hex id containing "4"), which
// rules out a hash-bucketed secondary index — every Query call scans
// the primary map.
type EntityStorage struct {
	mu   sync.RWMutex
	byID map[string]*vertex.Vertex
}

// NewEntityStorage returns an empty in-memory entity store.
func NewEntityStorage() *EntityStorage {
	return &EntityStorage{
		byID: make(map[string]*vertex.Vertex),
	}
}

func cloneVertex(v *vertex.Vertex) *vertex.Vertex {
	c := *v
	c.Aliases = append([]vertex.Alias(nil), v.Aliases...)
	c.Resources = append([]vertex.Resource(nil), v.Resources...)
	c.Edges = append([]vertex.Edge(nil), v.Edges...)
	c.Changesets = append([]vertex.Changeset(nil), v.Changesets...)
	return &c
}

func (s *EntityStorage) Get(ctx context.Context, id string) (*vertex.Vertex, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.byID[id]
	if !ok {
		return nil, aigerrors.ErrNotFound
	}
	return cloneVertex(v), nil
}

func (s *EntityStorage) Set(ctx context.Context, v *vertex.Vertex) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[v.ID] = cloneVertex(v)
	return nil
}

// matches reports whether v satisfies any of conditions (always
// OR-joined, per spec.md §4.F). "id" matches by substring containment
// against the URN; "aliasIndex" matches by substring containment
// against the lowercased "||"-joined alias id list.
func (s *EntityStorage) matches(v *vertex.Vertex, conditions vertex.QueryConditions) bool {
	if len(conditions.Conditions) == 0 {
		return true
	}
	for _, cond := range conditions.Conditions {
		switch cond.Property {
		case "id":
			if strings.Contains(v.ID, cond.Value) {
				return true
			}
		case "aliasIndex":
			if v.AliasIndex != nil && aliasIndexContains(*v.AliasIndex, strings.ToLower(cond.Value)) {
				return true
			}
		}
	}
	return false
}

// Query scans every stored vertex, keeping those matching any
// condition (conditions are always OR-joined, per spec.md §4.F),
// sorts by sortOrder.Property/Direction, and returns one page starting
// after cursor.
func (s *EntityStorage) Query(ctx context.Context, conditions vertex.QueryConditions, sortOrder vertex.SortOrder, projection []string, cursor *string, pageSize *int) (vertex.QueryResult, error) {
	if err := ctx.Err(); err != nil {
		return vertex.QueryResult{}, err
	}

	s.mu.RLock()
	matched := make([]*vertex.Vertex, 0, len(s.byID))
	for _, v := range s.byID {
		if s.matches(v, conditions) {
			matched = append(matched, cloneVertex(v))
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		var a, b int64
		switch sortOrder.Property {
		case vertex.OrderByUpdated:
			a, b = matched[i].Updated, matched[j].Updated
		default:
			a, b = matched[i].Created, matched[j].Created
		}
		if sortOrder.Direction == vertex.SortDescending {
			return a > b
		}
		return a < b
	})

	start := 0
	if cursor != nil {
		if n, err := strconv.Atoi(*cursor); err == nil && n > 0 {
			start = n
		}
	}
	if start > len(matched) {
		start = len(matched)
	}

	end := len(matched)
	if pageSize != nil && start+*pageSize < end {
		end = start + *pageSize
	}

	page := matched[start:end]
	if projection != nil {
		page = applyProjection(page, projection)
	}

	var nextCursor *string
	if end < len(matched) {
		c := strconv.Itoa(end)
		nextCursor = &c
	}

	return vertex.QueryResult{Entities: page, Cursor: nextCursor, PageSize: pageSize, TotalEntities: len(matched)}, nil
}

// applyProjection zeroes out vertex fields not named in projection,
// leaving ID always populated so callers can still address the result.
func applyProjection(entities []*vertex.Vertex, projection []string) []*vertex.Vertex {
	want := make(map[string]bool, len(projection))
	for _, p := range projection {
		want[p] = true
	}

	out := make([]*vertex.Vertex, len(entities))
	for i, v := range entities {
		projected := &vertex.Vertex{ID: v.ID}
		if want["nodeIdentity"] {
			projected.NodeIdentity = v.NodeIdentity
		}
		if want["metadata"] {
			projected.Metadata = v.Metadata
			projected.MetadataSchema = v.MetadataSchema
		}
		if want["aliases"] {
			projected.Aliases = v.Aliases
		}
		if want["resources"] {
			projected.Resources = v.Resources
		}
		if want["edges"] {
			projected.Edges = v.Edges
		}
		if want["changesets"] {
			projected.Changesets = v.Changesets
		}
		if want["created"] {
			projected.Created = v.Created
		}
		if want["updated"] {
			projected.Updated = v.Updated
		}
		if want["aliasIndex"] {
			projected.AliasIndex = v.AliasIndex
		}
		out[i] = projected
	}
	return out
}

var _ vertex.EntityStorage = (*EntityStorage)(nil)
