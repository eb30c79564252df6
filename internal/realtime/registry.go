package realtime

import (
	"sync"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/metrics"
)

// Conn is a live connection handle owned by one authenticated user.
type Conn interface {
	UserID() string
	// Send enqueues an event without blocking.
	Send(event string, payload any) error
	Close()
}

// Registry maps user ids to their single active connection.
type Registry interface {
	// Register stores c for userID and returns the handle it displaced, if any.
	Register(userID string, c Conn) Conn
	Lookup(userID string) (Conn, bool)
	Remove(userID string)
	// RemoveIf removes userID only while c is still its registered handle.
	RemoveIf(userID string, c Conn) bool
}

// MemoryRegistry is the process-local Registry.
type MemoryRegistry struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{conns: make(map[string]Conn)}
}

func (r *MemoryRegistry) Register(userID string, c Conn) Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.conns[userID]
	r.conns[userID] = c
	r.updateGauge()
	return prev
}

func (r *MemoryRegistry) Lookup(userID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[userID]
	return c, ok
}

func (r *MemoryRegistry) Remove(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, userID)
	r.updateGauge()
}

func (r *MemoryRegistry) RemoveIf(userID string, c Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.conns[userID]; !ok || cur != c {
		return false
	}
	delete(r.conns, userID)
	r.updateGauge()
	return true
}

// Len returns the number of registered users.
func (r *MemoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// caller holds mu
func (r *MemoryRegistry) updateGauge() {
	metrics.ActiveConnections.Set(float64(len(r.conns)))
}
