package subscription

import "sync"

// Hub fans notices out to local listeners of the same user. Slow listeners
// lose notices instead of blocking the sender.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan Notice]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan Notice]struct{})}
}

// Subscribe registers a listener for userID. The returned func must be called
// once the listener is done.
func (h *Hub) Subscribe(userID string, buffer int) (<-chan Notice, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Notice, buffer)
	h.mu.Lock()
	set, ok := h.subs[userID]
	if !ok {
		set = make(map[chan Notice]struct{})
		h.subs[userID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[userID], ch)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			h.mu.Unlock()
		})
	}
}

// Broadcast delivers n to every listener of n.UserID.
func (h *Hub) Broadcast(n Notice) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[n.UserID] {
		select {
		case ch <- n:
		default:
		}
	}
}

func (h *Hub) listenerCount(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}
