package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lecturer-booking-api/internal/manager"
	"lecturer-booking-api/internal/middleware"
	"lecturer-booking-api/internal/model"
	"lecturer-booking-api/internal/store"
)

const testSecret = "handler-test-secret"

// In-memory store fakes matching the adapter's contract: any non-empty key
// matches, inserts enforce uniqueness, deletes report row counts.

type memLecturerStore struct {
	mu   sync.Mutex
	rows map[string]store.LecturerRow
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

type testEnv struct {
	routes    http.Handler
	lecturers *manager.LecturerManager
	users     *manager.UserManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := zap.NewNop()
	tags := manager.NewTagManager(&memTagStore{rows: make(map[string]store.TagRow)}, log)
	lecturers := manager.NewLecturerManager(&memLecturerStore{rows: make(map[string]store.LecturerRow)}, tags, log)
	users := manager.NewUserManager(&memUserStore{rows: make(map[string]store.UserRow)}, "tda", log)

	h := New(lecturers, users, testSecret, log)
	return &testEnv{
		routes:    h.Routes(middleware.NewRateLimiter(100, 100)),
		lecturers: lecturers,
		users:     users,
	}
}

// seedLecturer creates a lecturer through the manager so the fixture matches
// what the pipeline would store.
func (env *testEnv) seedLecturer(t *testing.T, username, password string) *model.Lecturer {
	t.Helper()
	l, err := env.lecturers.Create(context.Background(), &model.LecturerDraft{
		Username:  username,
		Password:  password,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Contact:   &model.ContactDraft{Emails: []string{username + "@example.com"}},
	})
	require.NoError(t, err)
	return l
}

func (env *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.routes.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}
