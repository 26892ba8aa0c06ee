package auth

import "sync"

// Registry tracks the single live session handle of each admin username.
// The newest login wins: registering a new handle returns the one it replaced
// so the caller can invalidate it.
type Registry struct {
	mu     sync.Mutex
	active map[string]Handle
}

func NewRegistry() *Registry {
	return &Registry{active: make(map[string]Handle)}
}

// Register makes handle the active session of username. It returns the
// previously registered handle and whether it differs from handle.
func (r *Registry) Register(username string, handle Handle) (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.active[username]
	r.active[username] = handle
	return prev, ok && prev != handle
}

// Remove forgets the active session of username.
func (r *Registry) Remove(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, username)
}

// RemoveIf forgets the active session of username only while it is still handle.
// A session that was already replaced by a newer login must not log the newer one out.
func (r *Registry) RemoveIf(username string, handle Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.active[username]; ok && current == handle {
		delete(r.active, username)
		return true
	}
	return false
}

// Current returns the active handle of username, if any.
func (r *Registry) Current(username string) (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.active[username]
	return h, ok
}

// Len returns the number of usernames with an active session.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}
