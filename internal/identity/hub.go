package identity

import "sync"

// Hub fans provider state out to subscribers, per browser client. Each
// subscriber holds at most one undelivered event; a newer event replaces it.
type Hub struct {
	mu     sync.Mutex
	states map[string]*Session
	subs   map[string]map[*subscriber]struct{}
}

type subscriber struct {
	ch chan Event
}

func NewHub() *Hub {
	return &Hub{
		states: make(map[string]*Session),
		subs:   make(map[string]map[*subscriber]struct{}),
	}
}

// Subscribe registers for clientID's events. The current state is delivered
// immediately. The returned func unsubscribes and closes the channel.
func (h *Hub) Subscribe(clientID string) (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, 1)}

	h.mu.Lock()
	if h.subs[clientID] == nil {
		h.subs[clientID] = make(map[*subscriber]struct{})
	}
	h.subs[clientID][sub] = struct{}{}
	sub.deliver(Event{Session: copySession(h.states[clientID])})
	h.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[clientID], sub)
			if len(h.subs[clientID]) == 0 {
				delete(h.subs, clientID)
			}
			close(sub.ch)
		})
	}
}

// Publish records clientID's new state and notifies its subscribers.
func (h *Hub) Publish(clientID string, session *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if session == nil {
		delete(h.states, clientID)
	} else {
		h.states[clientID] = copySession(session)
	}
	for sub := range h.subs[clientID] {
		sub.deliver(Event{Session: copySession(session)})
	}
}

// Current returns clientID's last published state.
func (h *Hub) Current(clientID string) *Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return copySession(h.states[clientID])
}

// deliver must be called with the hub lock held; the hub is the only sender.
func (s *subscriber) deliver(ev Event) {
	select {
	case <-s.ch:
	default:
	}
	s.ch <- ev
}

func copySession(s *Session) *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
