// Package memory is an in-process implementation of the goNotes user and
// note stores. It backs local development and tests; data is lost on exit.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	goNotes "github.com/MrEthical07/goNotes"
)

// Store implements goNotes.UserStore, goNotes.NoteStore and
// goNotes.PasswordHashUpdater.
type Store struct {
	mu      sync.RWMutex
	now     func() time.Time
	nextID  int64
	users   map[int64]goNotes.User
	byEmail map[string]int64
	notes   map[int64]map[int64]goNotes.Note
}

// New returns an empty store. A nil now defaults to time.Now.
func New(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		now:     now,
		users:   make(map[int64]goNotes.User),
		byEmail: make(map[string]int64),
		notes:   make(map[int64]map[int64]goNotes.Note),
	}
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (goNotes.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return goNotes.User{}, goNotes.ErrUserNotFound
	}
	return s.users[id], nil
}

func (s *Store) FindUserByID(_ context.Context, id int64) (goNotes.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return goNotes.User{}, goNotes.ErrUserNotFound
	}
	return u, nil
}

// CreateUser allocates the next user id. The email uniqueness check and the
// insert happen under one lock.
func (s *Store) CreateUser(_ context.Context, email, passwordHash string) (goNotes.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[email]; exists {
		return goNotes.User{}, goNotes.ErrDuplicateUser
	}
	s.nextID++
	u := goNotes.User{
		ID:           s.nextID,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    s.now().UTC(),
	}
	s.users[u.ID] = u
	s.byEmail[email] = u.ID
	return u, nil
}

func (s *Store) UpdatePasswordHash(_ context.Context, userID int64, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return goNotes.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	s.users[userID] = u
	return nil
}

// DeleteUser removes a user and their notes. Used by tests and admin tooling.
func (s *Store) DeleteUser(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return goNotes.ErrUserNotFound
	}
	delete(s.users, userID)
	delete(s.byEmail, u.Email)
	delete(s.notes, userID)
	return nil
}

func (s *Store) CreateNote(_ context.Context, userID int64, date, text string) (goNotes.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID := s.notes[userID]
	if byID == nil {
		byID = make(map[int64]goNotes.Note)
		s.notes[userID] = byID
	}
	var maxID int64
	for id := range byID {
		maxID = max(maxID, id)
	}
	n := goNotes.Note{UserID: userID, ID: maxID + 1, Date: date, Text: text}
	byID[n.ID] = n
	return n, nil
}

func (s *Store) GetNote(_ context.Context, userID, noteID int64) (goNotes.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notes[userID][noteID]
	if !ok {
		return goNotes.Note{}, goNotes.ErrNoteNotFound
	}
	return n, nil
}

func (s *Store) ListNotes(_ context.Context, userID int64) ([]goNotes.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]goNotes.Note, 0, len(s.notes[userID]))
	for _, n := range s.notes[userID] {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateNote(_ context.Context, userID, noteID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[userID][noteID]
	if !ok {
		return goNotes.ErrNoteNotFound
	}
	n.Text = text
	s.notes[userID][noteID] = n
	return nil
}

func (s *Store) DeleteNote(_ context.Context, userID, noteID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notes[userID][noteID]; !ok {
		return goNotes.ErrNoteNotFound
	}
	delete(s.notes[userID], noteID)
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }
