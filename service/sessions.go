package service

import "sync"

// DefaultSession names the session of clients that send no id.
const DefaultSession = "default"

// Sessions keeps one Endpoint per session id.
type Sessions struct {
	opts []Option

	mu        sync.Mutex
	endpoints map[string]*Endpoint
}

func NewSessions(opts ...Option) *Sessions {
	return &Sessions{opts: opts, endpoints: map[string]*Endpoint{}}
}

// Get returns the endpoint of id, creating it on first use.
func (s *Sessions) Get(id string) *Endpoint {
	if id == "" {
		id = DefaultSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.endpoints[id]
	if !ok {
		e = New(s.opts...)
		s.endpoints[id] = e
		log.Debug("session opened", "id", id)
	}
	return e
}

// Drop forgets the endpoint of id.
func (s *Sessions) Drop(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.endpoints, id)
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.endpoints)
}
