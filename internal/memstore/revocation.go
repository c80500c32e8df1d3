package memstore

import "sync"

// RevocationRegistry tracks which issued credential ids have been
// revoked. Revoke signals a revocation and IsRevoked checks one; both
// are methods of this single type.
type RevocationRegistry struct {
	mu      sync.RWMutex
	revoked map[string]bool
}

// NewRevocationRegistry returns an empty registry.
func NewRevocationRegistry() *RevocationRegistry {
	return &RevocationRegistry{revoked: make(map[string]bool)}
}

// Revoke marks id as revoked. Idempotent.
func (r *RevocationRegistry) Revoke(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[id] = true
}

// IsRevoked reports whether id has been revoked.
func (r *RevocationRegistry) IsRevoked(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.revoked[id]
}
