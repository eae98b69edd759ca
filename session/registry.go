package session

import (
	"sync"

	"github.com/kartikbazzad/bundoc-go/internal/metrics"
)

// Registry tracks one ContainerSession per container resource ID for a
// client. Its lifecycle is tied to the owning client; container entries
// persist until the whole registry is cleared.
type Registry struct {
	mu         sync.RWMutex
	containers map[string]*ContainerSession
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{
		containers: make(map[string]*ContainerSession),
	}
}

// SetSessionToken records a container session token value for the given
// container, creating the container entry on first use. The token is
// validated before a fresh entry is inserted, so a malformed value never
// leaves an orphaned empty container behind.
func (r *Registry) SetSessionToken(container, token string) error {
	r.mu.RLock()
	existing, ok := r.containers[container]
	r.mu.RUnlock()
	if ok {
		return r.record(existing.SetSessionToken(token))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check under the write lock; another writer may have created it.
	if existing, ok := r.containers[container]; ok {
		return r.record(existing.SetSessionToken(token))
	}

	fresh := NewContainerSession()
	if err := fresh.SetSessionToken(token); err != nil {
		return r.record(err)
	}
	r.containers[container] = fresh
	return r.record(nil)
}

func (r *Registry) record(err error) error {
	if err != nil {
		metrics.SessionTokenOps.WithLabelValues("set", "error").Inc()
		return err
	}
	metrics.SessionTokenOps.WithLabelValues("set", "ok").Inc()
	return nil
}

// GetSessionToken returns the merged container session token value for a
// container, or false if the container has no tracked tokens.
func (r *Registry) GetSessionToken(container string) (string, bool) {
	r.mu.RLock()
	session, ok := r.containers[container]
	r.mu.RUnlock()
	if !ok {
		return "", false
	}
	return session.GetSessionToken()
}

// GetPartitionSessionToken returns the token tracked for one partition of
// a container, or false if the container or partition is unknown.
func (r *Registry) GetPartitionSessionToken(container, pkRangeID string) (string, bool) {
	r.mu.RLock()
	session, ok := r.containers[container]
	r.mu.RUnlock()
	if !ok {
		return "", false
	}
	return session.GetPartitionSessionToken(pkRangeID)
}

// ClearSession removes all tokens tracked for one container. The container
// entry itself is kept.
func (r *Registry) ClearSession(container string) {
	r.mu.RLock()
	session, ok := r.containers[container]
	r.mu.RUnlock()
	if ok {
		session.ClearSession()
	}
}

// ClearAllSessions drops every container entry.
func (r *Registry) ClearAllSessions() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.containers = make(map[string]*ContainerSession)
}

// ContainerCount returns the number of containers with an entry.
func (r *Registry) ContainerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.containers)
}
