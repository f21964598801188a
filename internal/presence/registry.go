// Package presence maps durable party identities to their current live
// connection. A party with no binding simply cannot be pushed to; nothing
// here retries or queues.
package presence

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Sender is the write side of a live connection.
type Sender interface {
	Send(event string, payload any) error
}

// Session wraps a websocket connection with a write lock, since gorilla
// connections allow only one concurrent writer.
type Session struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func NewSession(conn *websocket.Conn) *Session {
	return &Session{conn: conn}
}

type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

func (s *Session) Send(event string, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(envelope{Event: event, Data: payload})
}

func (s *Session) Close() error {
	return s.conn.Close()
}

// Registry tracks the current session per party. Binding is
// last-writer-wins: a reconnect replaces the old session, and a late
// unbind from the replaced session must not evict the new one.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]Sender
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]Sender)}
}

func (r *Registry) Bind(partyID string, s Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[partyID] = s
}

// Unbind removes the binding that still points at the given session.
// It is a no-op for unknown sessions, so disconnect handling never fails.
func (r *Registry) Unbind(s Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, cur := range r.sessions {
		if cur == s {
			delete(r.sessions, id)
			return
		}
	}
}

func (r *Registry) Lookup(partyID string) (Sender, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[partyID]
	return s, ok
}

// Connected reports whether a party currently has a live connection.
func (r *Registry) Connected(partyID string) bool {
	_, ok := r.Lookup(partyID)
	return ok
}
