package session

import (
	"sync"
	"sync/atomic"
	"weak"
)

// Registry is the set of currently connected Client records, guarded by a
// readers-writers lock as spec.md §5 requires. It holds a strong reference
// to each Client; Insert returns a weak.Pointer handle that callers (the
// network accept path, tests) hand to the dispatcher.
type Registry struct {
	mu      sync.RWMutex
	clients map[uint32]*Client
	nextID  atomic.Uint32
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[uint32]*Client)}
}

// Insert assigns a fresh id, stores c under it, and returns both a weak
// handle to c and c itself; the caller decides how long to keep the strong
// pointer.
func (r *Registry) Insert(name, roles string) (weak.Pointer[Client], *Client) {
	id := r.nextID.Add(1)
	c := New(id, name, roles)

	r.mu.Lock()
	r.clients[id] = c
	r.mu.Unlock()

	return weak.Make(c), c
}

// Remove drops the client with the given id from the registry, clearing
// its vehicles first (matching the original server's RemoveClient, which
// calls ClearCars before erasing). Once Remove returns, the Registry no
// longer holds a strong reference, so any outstanding weak.Pointer to the
// client will eventually observe expiry once the garbage collector runs.
func (r *Registry) Remove(id uint32) {
	r.mu.Lock()
	c, ok := r.clients[id]
	if ok {
		delete(r.clients, id)
	}
	r.mu.Unlock()

	if ok {
		c.Lock()
		c.ClearCars()
		c.Unlock()
	}
}

// Count returns the number of currently registered clients.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// ForEachClient copies the current membership under a read lock, releases
// it, then invokes fn on each client in turn. fn returning false stops the
// iteration early. This is the snapshot-iteration contract of spec.md §3:
// fn never runs while the registry lock is held, so a slow or blocking fn
// cannot stall concurrent Insert/Remove calls.
func (r *Registry) ForEachClient(fn func(*Client) bool) {
	r.mu.RLock()
	snapshot := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		snapshot = append(snapshot, c)
	}
	r.mu.RUnlock()

	for _, c := range snapshot {
		if !fn(c) {
			return
		}
	}
}
