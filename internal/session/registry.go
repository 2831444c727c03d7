package session

import "sync"

// Meta is the routing metadata tracked per call. The live pipeline state
// (recognizer stream, agent connection, timers) is owned by the
// orchestrator; the registry only holds what the webhook handlers and the
// announcer need to find each other.
type Meta struct {
	CallSID        string
	Caller         string
	ConferenceSID  string
	ConferenceName string
}

// Fields is a partial update; nil pointers leave the stored value alone.
type Fields struct {
	Caller         *string
	ConferenceSID  *string
	ConferenceName *string
}

type Registry interface {
	// Upsert merges fields into the entry for callSID, creating it if
	// needed, and returns the post-merge snapshot.
	Upsert(callSID string, f Fields) Meta
	Get(callSID string) (Meta, bool)
	// Delete removes the entry on explicit call teardown.
	Delete(callSID string)
}

type memoryRegistry struct {
	mu    sync.Mutex
	calls map[string]*Meta
}

func NewRegistry() Registry {
	return &memoryRegistry{calls: make(map[string]*Meta)}
}

func (r *memoryRegistry) Upsert(callSID string, f Fields) Meta {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.calls[callSID]
	if !ok {
		m = &Meta{CallSID: callSID}
		r.calls[callSID] = m
	}
	if f.Caller != nil {
		m.Caller = *f.Caller
	}
	if f.ConferenceSID != nil {
		m.ConferenceSID = *f.ConferenceSID
	}
	if f.ConferenceName != nil {
		m.ConferenceName = *f.ConferenceName
	}
	return *m
}

func (r *memoryRegistry) Get(callSID string) (Meta, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.calls[callSID]
	if !ok {
		return Meta{}, false
	}
	return *m, true
}

func (r *memoryRegistry) Delete(callSID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.calls, callSID)
}

// Str is a convenience for building Fields literals.
func Str(s string) *string { return &s }
