package notes

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PersistKey namespaces the persisted notes list.
const PersistKey = "notes"

// ErrNoteNotFound is returned by Update and Delete for an unknown id.
var ErrNoteNotFound = errors.New("note not found")

// Persister receives a snapshot every time the notes list changes.
// Implementations must not block.
type Persister interface {
	Persist(key string, value any)
}

// Store is the only owner of the notes list and the current search query.
type Store struct {
	mu    sync.RWMutex
	notes []Note
	query string

	now       func() time.Time
	newID     func() string
	persister Persister
}

type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

func WithPersister(p Persister) Option {
	return func(s *Store) { s.persister = p }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		notes: []Note{},
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add prepends a new note. Callers validate title and description first.
func (s *Store) Add(title, description string) Note {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := Note{
		ID:          s.newID(),
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.notes = slices.Insert(s.notes, 0, n)
	s.persistLocked()
	return n
}

// Update replaces the title and description of the note with the given id.
// ID and CreatedAt are kept; UpdatedAt always moves forward.
func (s *Store) Update(id, title, description string) (Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return Note{}, ErrNoteNotFound
	}

	n := s.notes[i]
	updated := s.now()
	if !updated.After(n.UpdatedAt) {
		updated = n.UpdatedAt.Add(time.Nanosecond)
	}
	n.Title = title
	n.Description = description
	n.UpdatedAt = updated
	s.notes[i] = n

	s.persistLocked()
	return n, nil
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return ErrNoteNotFound
	}
	s.notes = slices.Delete(s.notes, i, i+1)
	s.persistLocked()
	return nil
}

// SetSearchQuery stores the raw query; Filtered applies it.
func (s *Store) SetSearchQuery(query string) {
	s.mu.Lock()
	s.query = query
	s.mu.Unlock()
}

func (s *Store) SearchQuery() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query
}

// Filtered is the view of Notes narrowed by the current search query.
func (s *Store) Filtered() []Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Filter(s.notes, s.query)
}

// Notes returns a copy of every note, newest first.
func (s *Store) Notes() []Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.notes)
}

func (s *Store) Get(id string) (Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(id)
	if i < 0 {
		return Note{}, false
	}
	return s.notes[i], true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notes)
}

// Clear drops every note and the search query. Used on logout.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notes = []Note{}
	s.query = ""
	s.persistLocked()
}

// Restore loads notes read back from storage at startup. It does not persist.
func (s *Store) Restore(notes []Note) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notes = append([]Note{}, notes...)
	s.query = ""
}

func (s *Store) indexLocked(id string) int {
	return slices.IndexFunc(s.notes, func(n Note) bool { return n.ID == id })
}

func (s *Store) persistLocked() {
	if s.persister == nil {
		return
	}
	s.persister.Persist(PersistKey, slices.Clone(s.notes))
}
