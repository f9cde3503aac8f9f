package manager

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"lecturer-booking-api/internal/store"
)

// In-memory store fakes. They mirror the adapter's contract: lookups match
// any non-empty key, inserts enforce uniqueness, deletes report row counts.

type memLecturerStore struct {
	mu      sync.Mutex
	rows    map[string]store.LecturerRow // by uuid
	updates int
}

func newMemLecturerStore() *memLecturerStore {
	return &memLecturerStore{rows: make(map[string]store.LecturerRow)}
}

func (s *memLecturerStore) FindLecturer(_ context.Context, uuid, username string) (*store.LecturerRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if (uuid != "" && r.UUID == uuid) || (username != "" && r.Username == username) {
			c := r
			return &c, nil
		}
	}
	return nil, nil
}

func (s *memLecturerStore) AllLecturers(_ context.Context) ([]store.LecturerRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.LecturerRow, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, r)
	}
	return out, nil
}

func (s *memLecturerStore) InsertLecturer(_ context.Context, r *store.LecturerRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rows {
		if existing.UUID == r.UUID || existing.Username == r.Username {
			return store.ErrDuplicate
		}
	}
	s.rows[r.UUID] = *r
	return nil
}

func (s *memLecturerStore) UpdateLecturer(_ context.Context, r *store.LecturerRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates++
	if _, ok := s.rows[r.UUID]; ok {
		s.rows[r.UUID] = *r
	}
	return nil
}

func (s *memLecturerStore) DeleteLecturer(_ context.Context, uuid string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[uuid]; !ok {
		return 0, nil
	}
	delete(s.rows, uuid)
	return 1, nil
}

type memUserStore struct {
	mu   sync.Mutex
	rows map[string]store.UserRow
}

func newMemUserStore() *memUserStore {
	return &memUserStore{rows: make(map[string]store.UserRow)}
}

func (s *memUserStore) FindUser(_ context.Context, uuid, username, email string) (*store.UserRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if (uuid != "" && r.UUID == uuid) ||
			(username != "" && r.Username == username) ||
			(email != "" && r.Email == email) {
			c := r
			return &c, nil
		}
	}
	return nil, nil
}

func (s *memUserStore) AllUsers(_ context.Context) ([]store.UserRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.UserRow, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, r)
	}
	return out, nil
}

func (s *memUserStore) InsertUser(_ context.Context, r *store.UserRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rows {
		if existing.UUID == r.UUID || existing.Username == r.Username ||
			(r.Email != "" && existing.Email == r.Email) {
			return store.ErrDuplicate
		}
	}
	s.rows[r.UUID] = *r
	return nil
}

func (s *memUserStore) UpdateUser(_ context.Context, r *store.UserRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, other := range s.rows {
		if id != r.UUID && r.Email != "" && other.Email == r.Email {
			return store.ErrDuplicate
		}
	}
	if existing, ok := s.rows[r.UUID]; ok {
		existing.Type = r.Type
		existing.Email = r.Email
		existing.Password = r.Password
		existing.Reservations = r.Reservations
		s.rows[r.UUID] = existing
	}
	return nil
}

func (s *memUserStore) DeleteUser(_ context.Context, uuid string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[uuid]; !ok {
		return 0, nil
	}
	delete(s.rows, uuid)
	return 1, nil
}

type memTagStore struct {
	mu   sync.Mutex
	rows map[string]store.TagRow
}

func newMemTagStore() *memTagStore {
	return &memTagStore{rows: make(map[string]store.TagRow)}
}

func (s *memTagStore) FindTag(_ context.Context, uuid, name string) (*store.TagRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if (uuid != "" && r.UUID == uuid) || (name != "" && r.Name == name) {
			c := r
			return &c, nil
		}
	}
	return nil, nil
}

func (s *memTagStore) AllTags(_ context.Context) ([]store.TagRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.TagRow, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, r)
	}
	return out, nil
}

func (s *memTagStore) InsertTag(_ context.Context, r *store.TagRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rows {
		if existing.UUID == r.UUID || existing.Name == r.Name {
			return store.ErrDuplicate
		}
	}
	s.rows[r.UUID] = *r
	return nil
}

func newTestManagers() (*LecturerManager, *memLecturerStore, *memTagStore) {
	lst := newMemLecturerStore()
	tst := newMemTagStore()
	tags := NewTagManager(tst, zap.NewNop())
	return NewLecturerManager(lst, tags, zap.NewNop()), lst, tst
}

// gate parks the first guarded call until released, to hold a store operation
// mid-flight from a test.
type gate struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gate) pass() {
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
}

type slowLecturerStore struct {
	*memLecturerStore
	update *gate
}

func (s *slowLecturerStore) UpdateLecturer(ctx context.Context, r *store.LecturerRow) error {
	s.update.pass()
	return s.memLecturerStore.UpdateLecturer(ctx, r)
}

type slowUserStore struct {
	*memUserStore
	find   *gate
	update *gate
}

func (s *slowUserStore) FindUser(ctx context.Context, uuid, username, email string) (*store.UserRow, error) {
	if s.find != nil {
		s.find.pass()
	}
	return s.memUserStore.FindUser(ctx, uuid, username, email)
}

func (s *slowUserStore) UpdateUser(ctx context.Context, r *store.UserRow) error {
	if s.update != nil {
		s.update.pass()
	}
	return s.memUserStore.UpdateUser(ctx, r)
}
