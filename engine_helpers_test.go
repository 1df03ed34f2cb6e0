package goNotes

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goNotes/refresh"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeUserStore struct {
	mu                  sync.Mutex
	byID                map[int64]User
	nextID              int64
	err                 error
	findByIDCalls       int
	updatePasswordCalls int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byID: make(map[int64]User)}
}

func (s *fakeUserStore) FindUserByEmail(_ context.Context, email string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return User{}, s.err
	}
	for _, u := range s.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (s *fakeUserStore) FindUserByID(_ context.Context, id int64) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findByIDCalls++
	if s.err != nil {
		return User{}, s.err
	}
	u, ok := s.byID[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (s *fakeUserStore) CreateUser(_ context.Context, email, hash string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return User{}, s.err
	}
	for _, u := range s.byID {
		if u.Email == email {
			return User{}, ErrDuplicateUser
		}
	}
	s.nextID++
	u := User{ID: s.nextID, Email: email, PasswordHash: hash, CreatedAt: time.Now().UTC()}
	s.byID[u.ID] = u
	return u, nil
}

func (s *fakeUserStore) UpdatePasswordHash(_ context.Context, id int64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updatePasswordCalls++
	u, ok := s.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	u.PasswordHash = hash
	s.byID[id] = u
	return nil
}

func (s *fakeUserStore) remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
}

type fakeNoteStore struct {
	mu    sync.Mutex
	notes map[int64]map[int64]Note
	err   error
}

func newFakeNoteStore() *fakeNoteStore {
	return &fakeNoteStore{notes: make(map[int64]map[int64]Note)}
}

func (s *fakeNoteStore) CreateNote(_ context.Context, userID int64, date, text string) (Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return Note{}, s.err
	}
	byID := s.notes[userID]
	if byID == nil {
		byID = make(map[int64]Note)
		s.notes[userID] = byID
	}
	var maxID int64
	for id := range byID {
		if id > maxID {
			maxID = id
		}
	}
	n := Note{UserID: userID, ID: maxID + 1, Date: date, Text: text}
	byID[n.ID] = n
	return n, nil
}

func (s *fakeNoteStore) GetNote(_ context.Context, userID, noteID int64) (Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return Note{}, s.err
	}
	n, ok := s.notes[userID][noteID]
	if !ok {
		return Note{}, ErrNoteNotFound
	}
	return n, nil
}

func (s *fakeNoteStore) ListNotes(_ context.Context, userID int64) ([]Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []Note
	for _, n := range s.notes[userID] {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeNoteStore) UpdateNote(_ context.Context, userID, noteID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	n, ok := s.notes[userID][noteID]
	if !ok {
		return ErrNoteNotFound
	}
	n.Text = text
	s.notes[userID][noteID] = n
	return nil
}

func (s *fakeNoteStore) DeleteNote(_ context.Context, userID, noteID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if _, ok := s.notes[userID][noteID]; !ok {
		return ErrNoteNotFound
	}
	delete(s.notes[userID], noteID)
	return nil
}

// testConfig uses cheap argon2 parameters so tests stay fast.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.SecretKey = []byte("test-secret-key-0123456789abcdef")
	cfg.JWT.AccessTTL = 15 * time.Minute
	cfg.JWT.RefreshTTL = 7 * 24 * time.Hour
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	return cfg
}

type testEngine struct {
	*Engine
	clock    *testClock
	users    *fakeUserStore
	notes    *fakeNoteStore
	registry *refresh.MemoryRegistry
}

func newMemoryEngine(t *testing.T, cfg Config) *testEngine {
	t.Helper()

	clock := newTestClock()
	te := &testEngine{
		clock:    clock,
		users:    newFakeUserStore(),
		notes:    newFakeNoteStore(),
		registry: refresh.NewMemoryRegistry(clock.Now),
	}
	engine, err := New().
		WithConfig(cfg).
		WithRegistry(te.registry).
		WithUserStore(te.users).
		WithNoteStore(te.notes).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	te.Engine = engine
	return te
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func newRedisEngine(t *testing.T, cfg Config, rdb redis.UniversalClient, users *fakeUserStore) *Engine {
	t.Helper()

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserStore(users).
		WithNoteStore(newFakeNoteStore()).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func mustRegister(t *testing.T, e *Engine, email, password string) User {
	t.Helper()
	u, err := e.Register(context.Background(), email, password)
	if err != nil {
		t.Fatalf("register %s failed: %v", email, err)
	}
	return u
}

func mustLogin(t *testing.T, e *Engine, email, password string) TokenPair {
	t.Helper()
	pair, err := e.Login(context.Background(), email, password)
	if err != nil {
		t.Fatalf("login %s failed: %v", email, err)
	}
	return pair
}
