package session

import (
	"sync"

	"Musarty/logger"
)

// Hub tracks the live sessions so server-wide messages (such as a UI reload)
// can reach every open page.
type Hub struct {
	sessions map[string]*Session

	register   chan *Session
	unregister chan *Session
	broadcast  chan []byte

	mu   sync.RWMutex
	done chan struct{}
	once sync.Once
}

// NewHub creates a Hub. Run must be started before sessions register.
func NewHub() *Hub {
	return &Hub{
		sessions:   make(map[string]*Session),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		broadcast:  make(chan []byte, 16),
		done:       make(chan struct{}),
	}
}

// Run is the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case s := <-h.register:
			h.mu.Lock()
			h.sessions[s.ID] = s
			n := len(h.sessions)
			h.mu.Unlock()
			logger.Info("session registered", logger.String("session", s.ID), logger.Int("sessions", n))

		case s := <-h.unregister:
			h.remove(s)

		case msg := <-h.broadcast:
			h.mu.RLock()
			list := make([]*Session, 0, len(h.sessions))
			for _, s := range h.sessions {
				list = append(list, s)
			}
			h.mu.RUnlock()
			for _, s := range list {
				s.enqueue(msg)
			}

		case <-h.done:
			h.cleanup()
			return
		}
	}
}

// Stop closes every session and ends Run.
func (h *Hub) Stop() {
	h.once.Do(func() { close(h.done) })
}

func (h *Hub) remove(s *Session) {
	h.mu.Lock()
	_, ok := h.sessions[s.ID]
	delete(h.sessions, s.ID)
	n := len(h.sessions)
	h.mu.Unlock()

	s.Close()
	if ok {
		logger.Info("session unregistered", logger.String("session", s.ID), logger.Int("sessions", n))
	}
}

func (h *Hub) cleanup() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.sessions {
		s.Close()
	}
	h.sessions = make(map[string]*Session)
}

// Register adds s to the hub. It returns false once the hub has stopped.
func (h *Hub) Register(s *Session) bool {
	select {
	case h.register <- s:
		return true
	case <-h.done:
		s.Close()
		return false
	}
}

// Unregister removes s from the hub and closes it.
func (h *Hub) Unregister(s *Session) {
	select {
	case h.unregister <- s:
	case <-h.done:
		s.Close()
	}
}

// Broadcast queues an envelope of type t for every session.
func (h *Hub) Broadcast(t MessageType, data interface{}) error {
	raw, err := encode(t, data)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- raw:
	case <-h.done:
	}
	return nil
}

// Count returns the number of registered sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Get returns the session with id.
func (h *Hub) Get(id string) (*Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[id]
	return s, ok
}
