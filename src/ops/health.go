package ops

import (
	"sync"
	"time"
)

// ComponentState is one component's current health as exposed on
// /healthz. Degraded components keep running; the state makes repeated
// upstream failures visible without crashing the process.
type ComponentState struct {
	Degraded bool      `json:"degraded"`
	Reason   string    `json:"reason,omitempty"`
	Since    time.Time `json:"since"`
}

// Health tracks per-component degradation.
type Health struct {
	mu     sync.RWMutex
	states map[string]ComponentState
}

func NewHealth() *Health {
	return &Health{states: make(map[string]ComponentState)}
}

// SetDegraded marks a component degraded with the failure reason.
func (h *Health) SetDegraded(component, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.states[component]; ok && s.Degraded && s.Reason == reason {
		return
	}
	h.states[component] = ComponentState{Degraded: true, Reason: reason, Since: time.Now().UTC()}
}

// SetHealthy clears a component's degraded state.
func (h *Health) SetHealthy(component string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.states[component]; ok && !s.Degraded {
		return
	}
	h.states[component] = ComponentState{Since: time.Now().UTC()}
}

// Healthy reports whether no component is degraded.
func (h *Health) Healthy() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.states {
		if s.Degraded {
			return false
		}
	}
	return true
}

// Snapshot copies the current states for serialization.
func (h *Health) Snapshot() map[string]ComponentState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]ComponentState, len(h.states))
	for k, v := range h.states {
		out[k] = v
	}
	return out
}
