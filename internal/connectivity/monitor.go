package connectivity

import (
	"log"
	"sync"
)

// Monitor tracks the online/offline state of the till and notifies
// subscribers on every transition. It is fed by explicit events (the
// connectivity endpoint); there is no polling. Each notification runs in
// its own goroutine so a slow subscriber (a full drain, say) cannot block
// the next transition.
type Monitor struct {
	mu          sync.Mutex
	online      bool
	subscribers []func(online bool)
}

// NewMonitor creates a monitor with the given initial state.
func NewMonitor(online bool) *Monitor {
	return &Monitor{online: online}
}

// IsOnline reports the current connectivity state.
func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Subscribe registers a listener invoked on every state transition.
func (m *Monitor) Subscribe(fn func(online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

// SetOnline records a connectivity event. Subscribers fire only when the
// state actually changes; repeated events in the same state are ignored.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	subscribers := make([]func(bool), len(m.subscribers))
	copy(subscribers, m.subscribers)
	m.mu.Unlock()

	if online {
		log.Printf("[ConnectivityMonitor] Connectivity regained")
	} else {
		log.Printf("[ConnectivityMonitor] Connectivity lost")
	}

	for _, fn := range subscribers {
		go fn(online)
	}
}
