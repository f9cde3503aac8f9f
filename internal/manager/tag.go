package manager

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lecturer-booking-api/internal/cache"
	"lecturer-booking-api/internal/model"
	"lecturer-booking-api/internal/store"
)

type TagStore interface {
	FindTag(ctx context.Context, uuid, name string) (*store.TagRow, error)
	AllTags(ctx context.Context) ([]store.TagRow, error)
	InsertTag(ctx context.Context, r *store.TagRow) error
}

// TagManager creates tags lazily on first reference and never deletes them.
type TagManager struct {
	store TagStore
	cache *cache.Cache[*model.Tag]
	locks *keyedMutex
	log   *zap.Logger
}

func NewTagManager(st TagStore, log *zap.Logger) *TagManager {
	return &TagManager{
		store: st,
		cache: cache.New[*model.Tag](),
		locks: newKeyedMutex(),
		log:   log.Named("tags"),
	}
}

// Get looks a tag up by uuid or name; (nil, nil) when it does not exist.
func (m *TagManager) Get(ctx context.Context, uuid, name string) (*model.Tag, error) {
	if t, ok := m.cache.Lookup(uuid, name); ok {
		return t, nil
	}

	row, err := m.store.FindTag(ctx, uuid, name)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}

	t := &model.Tag{UUID: row.UUID, Name: row.Name}
	m.cache.Upsert(t)
	m.log.Debug("loaded tag from store", zap.String("uuid", t.UUID), zap.String("name", t.Name))
	return t, nil
}

func (m *TagManager) List(ctx context.Context) ([]model.Tag, error) {
	rows, err := m.store.AllTags(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Tag, len(rows))
	for i, r := range rows {
		out[i] = model.Tag{UUID: r.UUID, Name: r.Name}
	}
	return out, nil
}

// GetOrCreate resolves a tag by name, creating it on first reference.
func (m *TagManager) GetOrCreate(ctx context.Context, name string) (*model.Tag, error) {
	unlock := m.locks.lock("tag:" + name)
	defer unlock()

	if t, err := m.Get(ctx, "", name); err != nil || t != nil {
		return t, err
	}

	t := &model.Tag{UUID: uuid.NewString(), Name: name}
	for {
		existing, err := m.Get(ctx, t.UUID, "")
		if err != nil {
			return nil, err
		}
		if existing == nil {
			break
		}
		t.UUID = uuid.NewString()
	}

	err := m.store.InsertTag(ctx, &store.TagRow{UUID: t.UUID, Name: t.Name})
	if errors.Is(err, store.ErrDuplicate) {
		// another create raced us to the name; the store wins
		return m.Get(ctx, "", name)
	}
	if err != nil {
		return nil, err
	}

	m.cache.Upsert(t)
	m.log.Debug("created tag", zap.String("uuid", t.UUID), zap.String("name", t.Name))
	return t, nil
}
