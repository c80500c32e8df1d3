package memstore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"

	aigerrors "github.com/gtscio/auditable-item-graph/pkg/errors"
	"github.com/gtscio/auditable-item-graph/pkg/vertex"
)

// ImmutableLogDriver names the storage backend embedded in ids this
// package issues, matching the "immutable:<driver>:<hex>" URN shape.
const ImmutableLogDriver = "mem"

type immutableRecord struct {
	controller string
	data       []byte
}

// ImmutableLog is an in-memory, append-only reference implementation
// of vertex.ImmutableLog, grounded on the teacher's hash-indexed
// append-only log: every record is keyed by a random opaque id issued
// at Store time and never mutated afterward.
type ImmutableLog struct {
	mu      sync.RWMutex
	records map[string]immutableRecord
}

// NewImmutableLog returns an empty in-memory immutable log.
func NewImmutableLog() *ImmutableLog {
	return &ImmutableLog{records: make(map[string]immutableRecord)}
}

func (l *ImmutableLog) Store(ctx context.Context, controller string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return "", fmt.Errorf("memstore: generate immutable record id: %w", err)
	}
	id := fmt.Sprintf("immutable:%s:%s", ImmutableLogDriver, hex.EncodeToString(idBytes))

	l.mu.Lock()
	defer l.mu.Unlock()
	l.records[id] = immutableRecord{controller: controller, data: append([]byte(nil), data...)}
	return id, nil
}

func (l *ImmutableLog) Get(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	record, ok := l.records[id]
	if !ok {
		return nil, fmt.Errorf("memstore: %w: immutable record %q", aigerrors.ErrNotFound, id)
	}
	return append([]byte(nil), record.data...), nil
}

func (l *ImmutableLog) Remove(ctx context.Context, controller, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	record, ok := l.records[id]
	if !ok {
		return fmt.Errorf("memstore: %w: immutable record %q", aigerrors.ErrNotFound, id)
	}
	if record.controller != controller {
		return fmt.Errorf("memstore: %w: controller %q does not own %q", aigerrors.ErrGuardViolation, controller, id)
	}
	delete(l.records, id)
	return nil
}

var _ vertex.ImmutableLog = (*ImmutableLog)(nil)
