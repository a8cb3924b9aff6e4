package intake

import "sync"

// Registry holds at most one active Flow per chat.
type Registry struct {
	mu       sync.Mutex
	sessions map[int64]Flow
}

func NewRegistry() *Registry {
	return &Registry{sessions: map[int64]Flow{}}
}

// Start installs f for chatID, discarding any unfinished session.
// It returns the discarded flow, if any.
func (r *Registry) Start(chatID int64, f Flow) Flow {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.sessions[chatID]
	r.sessions[chatID] = f
	return prev
}

func (r *Registry) Get(chatID int64) (Flow, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.sessions[chatID]
	return f, ok
}

// End removes the chat's session. It reports whether one existed.
func (r *Registry) End(chatID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[chatID]
	delete(r.sessions, chatID)
	return ok
}

// EndIf removes the session only if it is still f.
func (r *Registry) EndIf(chatID int64, f Flow) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.sessions[chatID]; ok && cur == f {
		delete(r.sessions, chatID)
		return true
	}
	return false
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
