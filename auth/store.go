package auth

import "sync"

// PersistKey namespaces the persisted session.
const PersistKey = "auth"

// User is the identity of a logged-in session.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// State is a copy of the auth store fields.
type State struct {
	User            *User
	IsAuthenticated bool
	IsLoading       bool
	Error           string
}

// Session is the persisted subset of State.
type Session struct {
	User            *User `json:"user"`
	IsAuthenticated bool  `json:"is_authenticated"`
}

// Persister receives the session whenever the user or the authenticated flag change.
// Implementations must not block.
type Persister interface {
	Persist(key string, value any)
}

// Store tracks the login lifecycle: idle, loading, authenticated, failed.
type Store struct {
	mu        sync.RWMutex
	state     State
	persister Persister
}

type Option func(*Store)

func WithPersister(p Persister) Option {
	return func(s *Store) { s.persister = p }
}

func NewStore(opts ...Option) *Store {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a copy; the User pointer is not shared with the store.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}

// LoginStart marks a login attempt in flight. Calling it twice is harmless.
func (s *Store) LoginStart() {
	s.mutate(func(st *State) {
		st.IsLoading = true
		st.Error = ""
	})
}

func (s *Store) LoginSuccess(user User) {
	s.mutate(func(st *State) {
		st.IsLoading = false
		st.User = &user
		st.IsAuthenticated = true
		st.Error = ""
	})
}

// LoginFailure records the message and drops any previous user so that
// an unauthenticated state never carries an identity.
func (s *Store) LoginFailure(message string) {
	s.mutate(func(st *State) {
		st.IsLoading = false
		st.Error = message
		st.IsAuthenticated = false
		st.User = nil
	})
}

// Logout ends the session. IsLoading is left as is.
func (s *Store) Logout() {
	s.mutate(func(st *State) {
		st.User = nil
		st.IsAuthenticated = false
		st.Error = ""
	})
}

func (s *Store) ClearError() {
	s.mutate(func(st *State) {
		st.Error = ""
	})
}

// Restore rehydrates the persisted session at startup without persisting it again.
func (s *Store) Restore(sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = State{}
	if sess.User != nil {
		u := *sess.User
		s.state.User = &u
		s.state.IsAuthenticated = sess.IsAuthenticated
	}
}

func (s *Store) mutate(fn func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := sessionOf(s.state)
	fn(&s.state)
	after := sessionOf(s.state)

	if s.persister != nil && !sameSession(before, after) {
		s.persister.Persist(PersistKey, after)
	}
}

func sessionOf(st State) Session {
	sess := Session{IsAuthenticated: st.IsAuthenticated}
	if st.User != nil {
		u := *st.User
		sess.User = &u
	}
	return sess
}

func sameSession(a, b Session) bool {
	if a.IsAuthenticated != b.IsAuthenticated {
		return false
	}
	if a.User == nil || b.User == nil {
		return a.User == b.User
	}
	return *a.User == *b.User
}
