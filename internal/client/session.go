package client

import "sync"

// State is the client's view of who is signed in. It is persisted as one
// JSON snapshot.
type State struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	Token           string `json:"token"`
	ProfileImageURL string `json:"profileImageURL,omitempty"`
}

type Listener func(State)

// Session is the single writer of State. Readers get copies; changes go
// through SignIn, SetProfileImage and Logout, and every change is pushed to
// the subscribed listeners after the lock is released.
type Session struct {
	mu        sync.RWMutex
	state     State
	listeners []Listener
}

func NewSession(initial State) *Session {
	return &Session{state: initial}
}

func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) IsLoggedIn() bool {
	return s.Snapshot().Token != ""
}

func (s *Session) Token() string {
	return s.Snapshot().Token
}

func (s *Session) Email() string {
	return s.Snapshot().Email
}

func (s *Session) Subscribe(l Listener) {
	if l == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

func (s *Session) SignIn(state State) {
	s.update(func(st *State) { *st = state })
}

func (s *Session) SetProfileImage(url string) {
	s.update(func(st *State) { st.ProfileImageURL = url })
}

func (s *Session) Logout() {
	s.update(func(st *State) { *st = State{} })
}

func (s *Session) update(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	snapshot := s.state
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()
	for _, l := range listeners {
		l(snapshot)
	}
}
