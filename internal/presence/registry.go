package presence

import (
	"iter"
	"sync"
)

// Status is a collaborator's presence state. Only online exists: a
// collaborator is either in the roster or gone.
type Status string

const StatusOnline Status = "online"

// Collaborator is a remote participant in the active session.
type Collaborator struct {
	UserID   string
	Username string
	Status   Status
}

// Registry tracks which remote participants are present, keyed by user id,
// preserving insertion order for stable UI rendering.
type Registry struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]Collaborator
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]Collaborator)}
}

// Upsert inserts a collaborator if absent. Re-adding a present id is a no-op:
// there is no liveness state to refresh. An empty username falls back to the
// user id for display.
func (r *Registry) Upsert(userID, username string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[userID]; ok {
		return
	}
	if username == "" {
		username = userID
	}
	r.byID[userID] = Collaborator{UserID: userID, Username: username, Status: StatusOnline}
	r.order = append(r.order, userID)
}

// Remove deletes a collaborator; removing an absent id is a no-op.
func (r *Registry) Remove(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[userID]; !ok {
		return
	}
	delete(r.byID, userID)
	for i, id := range r.order {
		if id == userID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Reset empties the roster, e.g. when the active session changes.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = nil
	r.byID = make(map[string]Collaborator)
}

// Get looks up a collaborator by id.
func (r *Registry) Get(userID string) (Collaborator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[userID]
	return c, ok
}

// Len returns how many collaborators are present.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// All yields the current collaborators in insertion order. The sequence is
// restartable; each iteration sees a consistent snapshot of the roster.
func (r *Registry) All() iter.Seq[Collaborator] {
	return func(yield func(Collaborator) bool) {
		r.mu.RLock()
		collabs := make([]Collaborator, 0, len(r.order))
		for _, id := range r.order {
			collabs = append(collabs, r.byID[id])
		}
		r.mu.RUnlock()

		for _, c := range collabs {
			if !yield(c) {
				return
			}
		}
	}
}
