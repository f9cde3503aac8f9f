package manager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

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
	usernameMinLen = 2
	usernameMaxLen = 32
)

type LecturerStore interface {
	FindLecturer(ctx context.Context, uuid, username string) (*store.LecturerRow, error)
	AllLecturers(ctx context.Context) ([]store.LecturerRow, error)
	InsertLecturer(ctx context.Context, r *store.LecturerRow) error
	UpdateLecturer(ctx context.Context, r *store.LecturerRow) error
	DeleteLecturer(ctx context.Context, uuid string) (int64, error)
}

type LecturerManager struct {
	store    LecturerStore
	tags     *TagManager
	cache    *cache.Cache[*model.Lecturer]
	locks    *keyedMutex
	inflight sync.WaitGroup
	log      *zap.Logger
}

func NewLecturerManager(st LecturerStore, tags *TagManager, log *zap.Logger) *LecturerManager {
	return &LecturerManager{
		store: st,
		tags:  tags,
		cache: cache.New[*model.Lecturer](),
		locks: newKeyedMutex(),
		log:   log.Named("lecturers"),
	}
}

// Get resolves a lecturer by uuid or username, cache first. A miss is
// (nil, nil), not an error.
func (m *LecturerManager) Get(ctx context.Context, id Identity) (*model.Lecturer, error) {
	if l, ok := m.cache.Lookup(id.keys()...); ok {
		m.log.Debug("cache hit", zap.Stringer("identity", id))
		return l, nil
	}

	row, err := m.store.FindLecturer(ctx, id.UUID, id.Username)
	if err != nil {
		return nil, err
	}
	if row == nil {
		m.log.Debug("lecturer not found", zap.Stringer("identity", id))
		return nil, nil
	}

	l, err := m.readLecturer(ctx, row)
	if err != nil {
		return nil, err
	}
	m.cache.Upsert(l)
	m.log.Debug("loaded lecturer from store", zap.String("uuid", l.UUID))
	return l, nil
}

// List reconstructs every stored lecturer. It deliberately bypasses the
// cache; unflushed edits surface once they are written through.
func (m *LecturerManager) List(ctx context.Context) ([]*model.Lecturer, error) {
	rows, err := m.store.AllLecturers(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*model.Lecturer, 0, len(rows))
	for i := range rows {
		l, err := m.readLecturer(ctx, &rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	m.log.Debug("listed lecturers", zap.Int("count", len(out)))
	return out, nil
}

func (m *LecturerManager) Create(ctx context.Context, draft *model.LecturerDraft) (*model.Lecturer, error) {
	m.inflight.Add(1)
	defer m.inflight.Done()

	l, err := m.process(ctx, draft, nil)
	if err != nil {
		return nil, err
	}

	unlock := m.locks.lock("lecturer:" + l.Username)
	defer unlock()

	// fast path; the store's unique constraint is the authoritative guard
	existing, err := m.Get(ctx, Identity{Username: l.Username})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.AlreadyExists("lecturer")
	}

	if l.UUID, err = m.freshUUID(ctx); err != nil {
		return nil, err
	}

	row, err := lecturerRow(l)
	if err != nil {
		return nil, err
	}
	if err := m.store.InsertLecturer(ctx, row); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.AlreadyExists("lecturer")
		}
		return nil, err
	}

	m.cache.Upsert(l)
	m.log.Debug("created lecturer", zap.String("uuid", l.UUID), zap.String("username", l.Username))
	return l, nil
}

// Edit merges the provided fields onto the stored lecturer. The username is
// never overwritten; the natural key is immutable after creation.
func (m *LecturerManager) Edit(ctx context.Context, id Identity, draft *model.LecturerDraft) (*model.Lecturer, error) {
	m.inflight.Add(1)
	defer m.inflight.Done()

	current, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apperr.NotFound("lecturer")
	}

	unlock := m.locks.lock("lecturer:" + current.UUID)
	defer unlock()

	// re-read under the lock so the merge starts from the settled state
	current, err = m.Get(ctx, Identity{UUID: current.UUID})
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apperr.NotFound("lecturer")
	}

	next, err := m.process(ctx, draft, current)
	if err != nil {
		return nil, err
	}

	row, err := lecturerRow(next)
	if err != nil {
		return nil, err
	}
	if err := m.store.UpdateLecturer(ctx, row); err != nil {
		return nil, err
	}

	m.cache.Upsert(next)
	m.log.Debug("edited lecturer", zap.String("uuid", next.UUID))
	return next, nil
}

func (m *LecturerManager) Delete(ctx context.Context, id Identity) error {
	m.inflight.Add(1)
	defer m.inflight.Done()

	current, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return apperr.NotFound("lecturer")
	}

	unlock := m.locks.lock("lecturer:" + current.UUID)
	defer unlock()

	n, err := m.store.DeleteLecturer(ctx, current.UUID)
	if err != nil {
		return err
	}
	if n != 1 {
		// existence was just confirmed; the cache no longer mirrors the store
		return apperr.StoreDesync("lecturer")
	}

	m.cache.Evict(current.UUID, current.Username)
	m.log.Debug("deleted lecturer", zap.String("uuid", current.UUID))
	return nil
}

// Shutdown waits for in-flight mutations to settle, then re-persists every
// cached lecturer. Flushing an unchanged entity is an idempotent UPDATE, so
// calling Shutdown twice is harmless.
func (m *LecturerManager) Shutdown(ctx context.Context) error {
	m.inflight.Wait()

	var errs error
	for _, l := range m.cache.Drain() {
		row, err := lecturerRow(l)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if err := m.store.UpdateLecturer(ctx, row); err != nil {
			m.log.Warn("flush failed", zap.String("uuid", l.UUID), zap.Error(err))
			errs = multierr.Append(errs, err)
			continue
		}
		m.log.Debug("flushed lecturer", zap.String("uuid", l.UUID))
	}
	return errs
}

func (m *LecturerManager) freshUUID(ctx context.Context) (string, error) {
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

// lecturerFields is the declarative pipeline table. Fields without an assign
// func get dedicated handling (username bounds + immutability, password
// hashing, contact filtering).
type lecturerField struct {
	name     string
	required bool
	get      func(*model.LecturerDraft) string
	assign   func(*model.Lecturer, string)
}

var lecturerFields = []lecturerField{
	{name: "username", required: true, get: func(d *model.LecturerDraft) string { return d.Username }},
	{name: "password", required: true, get: func(d *model.LecturerDraft) string { return d.Password }},
	{name: "title_before", get: func(d *model.LecturerDraft) string { return d.TitleBefore },
		assign: func(l *model.Lecturer, v string) { l.TitleBefore = v }},
	{name: "first_name", required: true, get: func(d *model.LecturerDraft) string { return d.FirstName },
		assign: func(l *model.Lecturer, v string) { l.FirstName = v }},
	{name: "middle_name", get: func(d *model.LecturerDraft) string { return d.MiddleName },
		assign: func(l *model.Lecturer, v string) { l.MiddleName = v }},
	{name: "last_name", required: true, get: func(d *model.LecturerDraft) string { return d.LastName },
		assign: func(l *model.Lecturer, v string) { l.LastName = v }},
	{name: "title_after", get: func(d *model.LecturerDraft) string { return d.TitleAfter },
		assign: func(l *model.Lecturer, v string) { l.TitleAfter = v }},
	{name: "picture_url", get: func(d *model.LecturerDraft) string { return d.PictureURL },
		assign: func(l *model.Lecturer, v string) { l.PictureURL = v }},
	{name: "location", get: func(d *model.LecturerDraft) string { return d.Location },
		assign: func(l *model.Lecturer, v string) { l.Location = v }},
	{name: "claim", get: func(d *model.LecturerDraft) string { return d.Claim },
		assign: func(l *model.Lecturer, v string) { l.Claim = v }},
	{name: "bio", get: func(d *model.LecturerDraft) string { return d.Bio },
		assign: func(l *model.Lecturer, v string) { l.Bio = v }},
	{name: "price_per_hour", get: func(d *model.LecturerDraft) string { return d.PricePerHour },
		assign: func(l *model.Lecturer, v string) { l.PricePerHour = v }},
}

// process runs the validation/sanitization pipeline. With existing == nil it
// builds a fresh lecturer and enforces required fields; otherwise it merges
// the provided fields onto a copy of existing.
func (m *LecturerManager) process(ctx context.Context, draft *model.LecturerDraft, existing *model.Lecturer) (*model.Lecturer, error) {
	merge := existing != nil
	out := &model.Lecturer{}
	if merge {
		out = existing.Clone()
	}

	for _, f := range lecturerFields {
		v := f.get(draft)
		if v == "" {
			if f.required && !merge {
				m.log.Debug("missing required value", zap.String("field", f.name))
				return nil, apperr.MissingRequiredValue(f.name)
			}
			continue
		}

		switch f.name {
		case "username":
			if len(v) < usernameMinLen {
				return nil, apperr.BelowMinimumLength("username")
			}
			if len(v) > usernameMaxLen {
				return nil, apperr.AboveMaximumLength("username")
			}
			if merge {
				m.log.Debug("skipping username update", zap.String("uuid", out.UUID))
				continue
			}
			out.Username = sanitize.Clean(v)
		case "password":
			hash, err := auth.HashPassword(v)
			if err != nil {
				return nil, err
			}
			out.Password = hash
		default:
			f.assign(out, sanitize.Clean(v))
		}
	}

	if len(draft.Tags) > 0 {
		tags, err := m.resolveTags(ctx, draft.Tags)
		if err != nil {
			return nil, err
		}
		if len(tags) > 0 {
			out.Tags = tags
		}
	}

	var contact *model.Contact
	if draft.Contact != nil {
		emails := filterValid(draft.Contact.Emails, sanitize.ValidEmail)
		phones := filterValid(draft.Contact.TelephoneNumbers, sanitize.ValidPhone)
		if len(emails)+len(phones) > 0 {
			contact = &model.Contact{Emails: emails, TelephoneNumbers: phones}
		}
	}
	if contact != nil {
		out.Contact = contact
	} else if !merge {
		// contact info is mandatory on create; tolerated empty on edit
		return nil, apperr.MissingRequiredValue("contact")
	}

	return out, nil
}

// resolveTags looks each submitted tag up by name, creating missing ones and
// deduplicating within the submission. Unusable entries are skipped.
func (m *LecturerManager) resolveTags(ctx context.Context, drafts []model.TagDraft) ([]model.Tag, error) {
	var out []model.Tag
	for _, td := range drafts {
		name := sanitize.Clean(td.Name)
		if name == "" {
			m.log.Debug("skipping invalid tag entry")
			continue
		}
		dup := false
		for _, t := range out {
			if t.Name == name {
				dup = true
				break
			}
		}
		if dup {
			continue
		}

		tag, err := m.tags.GetOrCreate(ctx, name)
		if err != nil {
			return nil, err
		}
		out = append(out, *tag)
	}
	return out, nil
}

// filterValid keeps values passing valid, sanitized and deduplicated, in
// submission order.
func filterValid(values []string, valid func(string) bool) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, v := range values {
		if !valid(v) {
			continue
		}
		clean := sanitize.Clean(v)
		if _, ok := seen[clean]; ok {
			continue
		}
		seen[clean] = struct{}{}
		out = append(out, clean)
	}
	return out
}

// readLecturer reconstructs an entity from its row, resolving tag references
// and decoding the reservation blob.
func (m *LecturerManager) readLecturer(ctx context.Context, r *store.LecturerRow) (*model.Lecturer, error) {
	l := &model.Lecturer{
		UUID:         r.UUID,
		Username:     r.Username,
		Password:     r.Password,
		TitleBefore:  r.TitleBefore,
		FirstName:    r.FirstName,
		MiddleName:   r.MiddleName,
		LastName:     r.LastName,
		TitleAfter:   r.TitleAfter,
		PictureURL:   r.PictureURL,
		Location:     r.Location,
		Claim:        r.Claim,
		Bio:          r.Bio,
		PricePerHour: r.PricePerHour,
	}

	emails := splitList(r.Emails)
	phones := splitList(r.TelephoneNumbers)
	if len(emails)+len(phones) > 0 {
		l.Contact = &model.Contact{Emails: emails, TelephoneNumbers: phones}
	}

	for _, tagUUID := range splitList(r.Tags) {
		t, err := m.tags.Get(ctx, tagUUID, "")
		if err != nil {
			return nil, err
		}
		if t == nil {
			m.log.Warn("dangling tag reference", zap.String("lecturer", r.UUID), zap.String("tag", tagUUID))
			continue
		}
		l.Tags = append(l.Tags, *t)
	}

	if len(r.Reservations) > 0 {
		if err := json.Unmarshal(r.Reservations, &l.Reservations); err != nil {
			return nil, fmt.Errorf("decode reservations for %s: %w", r.UUID, err)
		}
	}
	return l, nil
}

func lecturerRow(l *model.Lecturer) (*store.LecturerRow, error) {
	resvs := l.Reservations
	if resvs == nil {
		resvs = []model.Reservation{}
	}
	blob, err := json.Marshal(resvs)
	if err != nil {
		return nil, fmt.Errorf("encode reservations for %s: %w", l.UUID, err)
	}

	tagIDs := make([]string, len(l.Tags))
	for i, t := range l.Tags {
		tagIDs[i] = t.UUID
	}

	var emails, phones []string
	if l.Contact != nil {
		emails = l.Contact.Emails
		phones = l.Contact.TelephoneNumbers
	}

	return &store.LecturerRow{
		UUID:             l.UUID,
		Username:         l.Username,
		Password:         l.Password,
		TitleBefore:      l.TitleBefore,
		FirstName:        l.FirstName,
		MiddleName:       l.MiddleName,
		LastName:         l.LastName,
		TitleAfter:       l.TitleAfter,
		PictureURL:       l.PictureURL,
		Location:         l.Location,
		Claim:            l.Claim,
		Bio:              l.Bio,
		PricePerHour:     l.PricePerHour,
		Tags:             strings.Join(tagIDs, ","),
		Emails:           strings.Join(emails, ","),
		TelephoneNumbers: strings.Join(phones, ","),
		Reservations:     blob,
	}, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
