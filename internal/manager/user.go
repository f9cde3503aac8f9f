package manager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"lecturer-booking-api/internal/apperr"
	"lecturer-booking-api/internal/auth"
	"lecturer-booking-api/internal/cache"
	"lecturer-booking-api/internal/model"
	"lecturer-booking-api/internal/sanitize"
	"lecturer-booking-api/internal/store"
)

const (
	passwordMaxLen = 128

	adminUsername = "admin"
)

type UserStore interface {
	FindUser(ctx context.Context, uuid, username, email string) (*store.UserRow, error)
	AllUsers(ctx context.Context) ([]store.UserRow, error)
	InsertUser(ctx context.Context, r *store.UserRow) error
	UpdateUser(ctx context.Context, r *store.UserRow) error
	DeleteUser(ctx context.Context, uuid string) (int64, error)
}

type UserManager struct {
	store    UserStore
	cache    *cache.Cache[*model.User]
	locks    *keyedMutex
	inflight sync.WaitGroup
	log      *zap.Logger
}

// NewUserManager also kicks off the admin account bootstrap in the
// background; construction never blocks on the store. The bootstrap holds an
// inflight slot from construction, so Shutdown's wait never races its Add.
func NewUserManager(st UserStore, adminPassword string, log *zap.Logger) *UserManager {
	m := &UserManager{
		store: st,
		cache: cache.New[*model.User](),
		locks: newKeyedMutex(),
		log:   log.Named("users"),
	}
	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()
		m.ensureAdmin(adminPassword)
	}()
	return m
}

// ensureAdmin creates the default administrative account if it is missing.
// The store may still be connecting when this runs, so failures are retried
// with backoff and only ever logged.
func (m *UserManager) ensureAdmin(password string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	for attempt := 1; ; attempt++ {
		existing, err := m.Get(ctx, Identity{Username: adminUsername})
		if err == nil && existing != nil {
			m.log.Debug("admin user already exists")
			return
		}
		if err == nil {
			_, err = m.Create(ctx, &model.UserDraft{
				Type:     model.UserTypeAdmin,
				Username: adminUsername,
				Password: password,
			})
			if err == nil || errors.Is(err, apperr.AlreadyExists("user")) {
				m.log.Info("admin user bootstrapped")
				return
			}
		}

		if attempt >= 5 {
			m.log.Error("admin bootstrap gave up", zap.Error(err))
			return
		}
		m.log.Warn("admin bootstrap failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
}

// Get resolves a user by uuid, username or email, cache first. A miss is
// (nil, nil), not an error.
func (m *UserManager) Get(ctx context.Context, id Identity) (*model.User, error) {
	if u, ok := m.cache.Lookup(id.keys()...); ok {
		m.log.Debug("cache hit", zap.Stringer("identity", id))
		return u, nil
	}

	row, err := m.store.FindUser(ctx, id.UUID, id.Username, id.Email)
	if err != nil {
		return nil, err
	}
	if row == nil {
		m.log.Debug("user not found", zap.Stringer("identity", id))
		return nil, nil
	}

	u, err := readUser(row)
	if err != nil {
		return nil, err
	}
	m.cache.Upsert(u)
	m.log.Debug("loaded user from store", zap.String("uuid", u.UUID))
	return u, nil
}

// List reconstructs every stored user, bypassing the cache.
func (m *UserManager) List(ctx context.Context) ([]*model.User, error) {
	rows, err := m.store.AllUsers(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*model.User, 0, len(rows))
	for i := range rows {
		u, err := readUser(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	m.log.Debug("listed users", zap.Int("count", len(out)))
	return out, nil
}

func (m *UserManager) Create(ctx context.Context, draft *model.UserDraft) (*model.User, error) {
	m.inflight.Add(1)
	defer m.inflight.Done()

	u, err := m.process(draft, nil)
	if err != nil {
		return nil, err
	}

	unlock := m.locks.lock("user:" + u.Username)
	defer unlock()

	existing, err := m.Get(ctx, Identity{Username: u.Username, Email: u.Email})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.AlreadyExists("user")
	}

	if u.UUID, err = m.freshUUID(ctx); err != nil {
		return nil, err
	}

	row, err := userRow(u)
	if err != nil {
		return nil, err
	}
	if err := m.store.InsertUser(ctx, row); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.AlreadyExists("user")
		}
		return nil, err
	}

	m.cache.Upsert(u)
	m.log.Debug("created user", zap.String("uuid", u.UUID), zap.String("username", u.Username))
	return u, nil
}

func (m *UserManager) Edit(ctx context.Context, id Identity, draft *model.UserDraft) (*model.User, error) {
	m.inflight.Add(1)
	defer m.inflight.Done()

	current, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apperr.NotFound("user")
	}

	unlock := m.locks.lock("user:" + current.UUID)
	defer unlock()

	current, err = m.Get(ctx, Identity{UUID: current.UUID})
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apperr.NotFound("user")
	}

	next, err := m.process(draft, current)
	if err != nil {
		return nil, err
	}

	row, err := userRow(next)
	if err != nil {
		return nil, err
	}
	if err := m.store.UpdateUser(ctx, row); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.AlreadyExists("user")
		}
		return nil, err
	}

	m.cache.Upsert(next)
	m.log.Debug("edited user", zap.String("uuid", next.UUID))
	return next, nil
}

func (m *UserManager) Delete(ctx context.Context, id Identity) error {
	m.inflight.Add(1)
	defer m.inflight.Done()

	current, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return apperr.NotFound("user")
	}

	unlock := m.locks.lock("user:" + current.UUID)
	defer unlock()

	n, err := m.store.DeleteUser(ctx, current.UUID)
	if err != nil {
		return err
	}
	if n != 1 {
		return apperr.StoreDesync("user")
	}

	m.cache.Evict(current.UUID, current.Username, current.Email)
	m.log.Debug("deleted user", zap.String("uuid", current.UUID))
	return nil
}

// Shutdown waits for in-flight mutations, then flushes the cache. Safe to
// call more than once.
func (m *UserManager) Shutdown(ctx context.Context) error {
	m.inflight.Wait()

	var errs error
	for _, u := range m.cache.Drain() {
		row, err := userRow(u)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if err := m.store.UpdateUser(ctx, row); err != nil {
			m.log.Warn("flush failed", zap.String("uuid", u.UUID), zap.Error(err))
			errs = multierr.Append(errs, err)
			continue
		}
		m.log.Debug("flushed user", zap.String("uuid", u.UUID))
	}
	return errs
}

func (m *UserManager) freshUUID(ctx context.Context) (string, error) {
	for {
		id := uuid.NewString()
		existing, err := m.Get(ctx, Identity{UUID: id})
		if err != nil {
			return "", err
		}
		if existing == nil {
			return id, nil
		}
	}
}

// process validates an account submission; with existing != nil it merges
// onto a copy, leaving the username untouched.
func (m *UserManager) process(draft *model.UserDraft, existing *model.User) (*model.User, error) {
	merge := existing != nil
	out := &model.User{Type: model.UserTypeUser, CreatedAt: time.Now().UTC()}
	if merge {
		out = existing.Clone()
	}

	switch {
	case draft.Username == "":
		if !merge {
			return nil, apperr.MissingRequiredValue("username")
		}
	case len(draft.Username) < usernameMinLen:
		return nil, apperr.BelowMinimumLength("username")
	case len(draft.Username) > usernameMaxLen:
		return nil, apperr.AboveMaximumLength("username")
	case !merge:
		out.Username = sanitize.Clean(draft.Username)
	default:
		m.log.Debug("skipping username update", zap.String("uuid", out.UUID))
	}

	if draft.Password == "" {
		if !merge {
			return nil, apperr.MissingRequiredValue("password")
		}
	} else {
		if len(draft.Password) > passwordMaxLen {
			return nil, apperr.InvalidValueLength("password", passwordMaxLen)
		}
		hash, err := auth.HashPassword(draft.Password)
		if err != nil {
			return nil, err
		}
		out.Password = hash
	}

	if draft.Email != "" {
		if !sanitize.ValidEmail(draft.Email) {
			return nil, apperr.InvalidValueType("email", "email address")
		}
		out.Email = sanitize.Clean(draft.Email)
	}

	if draft.Type != "" {
		switch draft.Type {
		case model.UserTypeAdmin, model.UserTypeUser:
			out.Type = draft.Type
		default:
			return nil, apperr.InvalidValueType("type", "user type")
		}
	}

	return out, nil
}

func readUser(r *store.UserRow) (*model.User, error) {
	u := &model.User{
		UUID:      r.UUID,
		Type:      model.UserType(r.Type),
		Username:  r.Username,
		Email:     r.Email,
		Password:  r.Password,
		CreatedAt: r.CreatedAt,
	}
	if len(r.Reservations) > 0 {
		if err := json.Unmarshal(r.Reservations, &u.Reservations); err != nil {
			return nil, fmt.Errorf("decode reservations for %s: %w", r.UUID, err)
		}
	}
	return u, nil
}

func userRow(u *model.User) (*store.UserRow, error) {
	resvs := u.Reservations
	if resvs == nil {
		resvs = []model.Reservation{}
	}
	blob, err := json.Marshal(resvs)
	if err != nil {
		return nil, fmt.Errorf("encode reservations for %s: %w", u.UUID, err)
	}
	return &store.UserRow{
		UUID:         u.UUID,
		Type:         string(u.Type),
		Username:     u.Username,
		Email:        u.Email,
		Password:     u.Password,
		CreatedAt:    u.CreatedAt,
		Reservations: blob,
	}, nil
}
