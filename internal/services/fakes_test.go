package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"conferencecentral/internal/domain"
	"conferencecentral/internal/query"
	"conferencecentral/internal/tasks"
)

// testLogger is a no-op logger for service tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const testTimeout = 2 * time.Second

func copyKeys(keys []*domain.Key) []*domain.Key {
	return append([]*domain.Key(nil), keys...)
}

// fakeConferenceRepo is an in-memory ConferenceRepository for tests.
type fakeConferenceRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.Conference
}

func newFakeConferenceRepo(confs ...*domain.Conference) *fakeConferenceRepo {
	f := &fakeConferenceRepo{byID: make(map[string]*domain.Conference)}
	for _, c := range confs {
		f.byID[c.Key.Encode()] = c
	}
	return f
}

func cloneConference(c *domain.Conference) *domain.Conference {
	cp := *c
	cp.Topics = append([]string(nil), c.Topics...)
	return &cp
}

func (f *fakeConferenceRepo) Create(ctx context.Context, c *domain.Conference) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[c.Key.Encode()] = cloneConference(c)
	return nil
}

func (f *fakeConferenceRepo) GetByKey(ctx context.Context, key *domain.Key) (*domain.Conference, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.byID[key.Encode()]; ok {
		return cloneConference(c), nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeConferenceRepo) GetByKeyForUpdate(ctx context.Context, key *domain.Key) (*domain.Conference, error) {
	return f.GetByKey(ctx, key)
}

func (f *fakeConferenceRepo) Update(ctx context.Context, c *domain.Conference) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[c.Key.Encode()]; !ok {
		return domain.ErrNotFound
	}
	f.byID[c.Key.Encode()] = cloneConference(c)
	return nil
}

func (f *fakeConferenceRepo) filter(keep func(*domain.Conference) bool) []*domain.Conference {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Conference, 0)
	for _, c := range f.byID {
		if keep(c) {
			out = append(out, cloneConference(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (f *fakeConferenceRepo) ListByOrganizer(ctx context.Context, userID string) ([]*domain.Conference, error) {
	return f.filter(func(c *domain.Conference) bool { return c.OrganizerUserID == userID }), nil
}

func (f *fakeConferenceRepo) ListByKeys(ctx context.Context, keys []*domain.Key) ([]*domain.Conference, error) {
	return f.filter(func(c *domain.Conference) bool { return domain.ContainsKey(keys, c.Key) }), nil
}

func (f *fakeConferenceRepo) Query(ctx context.Context, plan *query.Plan) ([]*domain.Conference, error) {
	all := f.filter(func(*domain.Conference) bool { return true })
	all = query.ApplyAll(all, plan.Equality)
	return query.ApplyAll(all, plan.Inequality), nil
}

func (f *fakeConferenceRepo) ListNearlySoldOut(ctx context.Context, threshold int) ([]*domain.Conference, error) {
	return f.filter(func(c *domain.Conference) bool {
		return c.SeatsAvailable > 0 && c.SeatsAvailable <= threshold
	}), nil
}

// fakeSessionRepo is an in-memory SessionRepository for tests.
type fakeSessionRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.Session
	createErr error
	updateErr error
}

func newFakeSessionRepo(sessions ...*domain.Session) *fakeSessionRepo {
	f := &fakeSessionRepo{byID: make(map[string]*domain.Session)}
	for _, s := range sessions {
		f.byID[s.Key.Encode()] = s
	}
	return f
}

func cloneSession(s *domain.Session) *domain.Session {
	cp := *s
	cp.Highlights = append([]string(nil), s.Highlights...)
	return &cp
}

func (f *fakeSessionRepo) Create(ctx context.Context, s *domain.Session) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[s.Key.Encode()] = cloneSession(s)
	return nil
}

func (f *fakeSessionRepo) GetByKey(ctx context.Context, key *domain.Key) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.byID[key.Encode()]; ok {
		return cloneSession(s), nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeSessionRepo) Update(ctx context.Context, s *domain.Session) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[s.Key.Encode()]; !ok {
		return domain.ErrNotFound
	}
	f.byID[s.Key.Encode()] = cloneSession(s)
	return nil
}

func (f *fakeSessionRepo) filter(keep func(*domain.Session) bool) []*domain.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Session, 0)
	for _, s := range f.byID {
		if keep(s) {
			out = append(out, cloneSession(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (f *fakeSessionRepo) ListByKeys(ctx context.Context, keys []*domain.Key) ([]*domain.Session, error) {
	return f.filter(func(s *domain.Session) bool { return domain.ContainsKey(keys, s.Key) }), nil
}

func (f *fakeSessionRepo) Query(ctx context.Context, conferenceKey *domain.Key, equality []query.Condition) ([]*domain.Session, error) {
	out := f.filter(func(s *domain.Session) bool {
		return conferenceKey == nil || s.ConferenceKey.Equal(conferenceKey)
	})
	return query.ApplyAll(out, equality), nil
}

// fakeSpeakerRepo is an in-memory SpeakerRepository with optimistic versioning.
type fakeSpeakerRepo struct {
	mu     sync.Mutex
	byID   map[string]*domain.Speaker
	byName map[string]string
	// conflicts forces the next n Update calls to lose the version race.
	conflicts int
	// beforeCreate runs before a Create is applied, to simulate a concurrent writer.
	beforeCreate func()
	creates      int
	updates      int
}

func newFakeSpeakerRepo() *fakeSpeakerRepo {
	return &fakeSpeakerRepo{byID: make(map[string]*domain.Speaker), byName: make(map[string]string)}
}

func cloneSpeaker(s *domain.Speaker) *domain.Speaker {
	cp := *s
	cp.SessionKeys = copyKeys(s.SessionKeys)
	return &cp
}

func (f *fakeSpeakerRepo) put(s *domain.Speaker) {
	f.byID[s.Key.Encode()] = cloneSpeaker(s)
	f.byName[domain.NormalizeSpeakerName(s.Name)] = s.Key.Encode()
}

func (f *fakeSpeakerRepo) Create(ctx context.Context, s *domain.Speaker) error {
	if hook := f.beforeCreate; hook != nil {
		f.beforeCreate = nil
		hook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if _, ok := f.byName[domain.NormalizeSpeakerName(s.Name)]; ok {
		return domain.ErrDuplicate
	}
	f.put(s)
	return nil
}

func (f *fakeSpeakerRepo) GetByKey(ctx context.Context, key *domain.Key) (*domain.Speaker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.byID[key.Encode()]; ok {
		return cloneSpeaker(s), nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeSpeakerRepo) GetByName(ctx context.Context, name string) (*domain.Speaker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byName[domain.NormalizeSpeakerName(name)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneSpeaker(f.byID[id]), nil
}

func (f *fakeSpeakerRepo) Update(ctx context.Context, s *domain.Speaker) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	cur, ok := f.byID[s.Key.Encode()]
	if !ok {
		return domain.ErrNotFound
	}
	if f.conflicts > 0 {
		f.conflicts--
		cur.Version++
		return domain.ErrVersionConflict
	}
	if cur.Version != s.Version {
		return domain.ErrVersionConflict
	}
	s.Version++
	f.put(s)
	return nil
}

// fakeProfileRepo is an in-memory ProfileRepository for tests.
type fakeProfileRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.Profile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{byID: make(map[string]*domain.Profile)}
}

func cloneProfile(p *domain.Profile) *domain.Profile {
	cp := *p
	cp.ConferenceKeysToAttend = copyKeys(p.ConferenceKeysToAttend)
	cp.SessionWishlist = copyKeys(p.SessionWishlist)
	return &cp
}

func (f *fakeProfileRepo) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.byID[userID]; ok {
		return cloneProfile(p), nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeProfileRepo) GetForUpdate(ctx context.Context, userID string) (*domain.Profile, error) {
	return f.Get(ctx, userID)
}

func (f *fakeProfileRepo) CreateIfMissing(ctx context.Context, p *domain.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[p.UserID]; !ok {
		f.byID[p.UserID] = cloneProfile(p)
	}
	return nil
}

func (f *fakeProfileRepo) Update(ctx context.Context, p *domain.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[p.UserID]; !ok {
		return domain.ErrNotFound
	}
	f.byID[p.UserID] = cloneProfile(p)
	return nil
}

// fakeTransactor serializes transactions with a mutex. It does not roll back.
type fakeTransactor struct {
	mu sync.Mutex
}

func (f *fakeTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(ctx)
}

// fakeCache is an in-memory Cache for tests.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]string)}
}

func (f *fakeCache) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	f.entries[key] = value
	return nil
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.entries[key]
	return v, ok, nil
}

func (f *fakeCache) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, key)
	return nil
}

// fakeQueue records enqueued tasks.
type fakeQueue struct {
	mu    sync.Mutex
	tasks []domain.Task
	err   error
}

func (f *fakeQueue) Enqueue(ctx context.Context, t domain.Task) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, t)
	return nil
}

func (f *fakeQueue) featuredPayloads() []domain.FeaturedSpeakerPayload {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.FeaturedSpeakerPayload
	for _, t := range f.tasks {
		if t.Name != domain.TaskSetFeaturedSpeaker {
			continue
		}
		var p domain.FeaturedSpeakerPayload
		if err := tasks.Decode(t, &p); err == nil {
			out = append(out, p)
		}
	}
	return out
}
