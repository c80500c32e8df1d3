package aig

import (
	"context"

	"go.uber.org/zap"

	aigerrors "github.com/gtscio/auditable-item-graph/pkg/errors"
	"github.com/gtscio/auditable-item-graph/pkg/vertex"
)

// Query looks up vertices by id and/or alias — spec.md §4.F. mode
// selects which of ids' entries are matched against a vertex's id, its
// AliasIndex, or both; every resulting Condition is OR-joined by
// EntityStorage.Query. A nil pageSize falls back to cfg.DefaultPageSize.
func (s *Service) Query(
	ctx context.Context,
	mode vertex.IDMode,
	ids []string,
	sortOrder vertex.SortOrder,
	projection []string,
	cursor *string,
	pageSize *int,
) (vertex.QueryResult, error) {
	if len(ids) == 0 {
		return vertex.QueryResult{}, aigerrors.Wrap(aigerrors.ErrQueryFailed, aigerrors.ErrGuardViolation)
	}

	conditions := make([]vertex.Condition, 0, len(ids)*2)
	for _, needle := range ids {
		if mode == vertex.IDModeID || mode == vertex.IDModeBoth {
			conditions = append(conditions, vertex.Condition{Property: "id", Value: needle})
		}
		if mode == vertex.IDModeAlias || mode == vertex.IDModeBoth {
			conditions = append(conditions, vertex.Condition{Property: "aliasIndex", Value: needle})
		}
	}

	if pageSize == nil {
		size := s.cfg.defaultPageSize()
		pageSize = &size
	}

	result, err := s.storage.Query(ctx, vertex.QueryConditions{Conditions: conditions}, sortOrder, projection, cursor, pageSize)
	if err != nil {
		return vertex.QueryResult{}, aigerrors.Wrap(aigerrors.ErrQueryFailed, err)
	}

	s.logger.Debug("vertex query executed", zap.Int("matched", len(result.Entities)), zap.Int("total", result.TotalEntities))
	return result, nil
}
