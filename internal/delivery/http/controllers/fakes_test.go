package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"conferencecentral/internal/delivery/http/helpers"
	"conferencecentral/internal/delivery/http/middleware"
	"conferencecentral/internal/domain"
	"conferencecentral/internal/query"

	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

var alice = domain.Identity{UserID: "alice", Email: "alice@example.com"}

var (
	confKey    = domain.NewKey(domain.KindConference, "c1", domain.ProfileKey("alice"))
	sessionKey = domain.NewKey(domain.KindSession, "s1", confKey)
	speakerKey = domain.NewKey(domain.KindSpeaker, "sp1", nil)
)

// newRequest builds a request with an optional JSON body and, when id is
// non-nil, an authenticated caller.
func newRequest(method, target, body string, id *domain.Identity) *http.Request {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	if id != nil {
		req = req.WithContext(middleware.SetIdentity(req.Context(), *id))
	}
	return req
}

// serve routes req through a mux so path values are populated.
func serve(pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, data any) *helpers.APIError {
	t.Helper()
	var raw struct {
		Data  json.RawMessage   `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&raw))
	if data != nil && raw.Error == nil {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return raw.Error
}

type fakeConferenceService struct {
	conf        *domain.Conference
	list        []*domain.Conference
	err         error
	lastID      domain.Identity
	lastKey     *domain.Key
	lastCreate  *domain.Conference
	lastUpdate  domain.ConferenceUpdate
	lastFilters []query.Spec
}

func (f *fakeConferenceService) Create(ctx context.Context, id domain.Identity, c *domain.Conference) (*domain.Conference, error) {
	f.lastID, f.lastCreate = id, c
	if f.err != nil {
		return nil, f.err
	}
	c.Key = confKey
	c.SeatsAvailable = c.MaxAttendees
	return c, nil
}

func (f *fakeConferenceService) Get(ctx context.Context, key *domain.Key) (*domain.Conference, error) {
	f.lastKey = key
	return f.conf, f.err
}

func (f *fakeConferenceService) Update(ctx context.Context, id domain.Identity, key *domain.Key, upd domain.ConferenceUpdate) (*domain.Conference, error) {
	f.lastID, f.lastKey, f.lastUpdate = id, key, upd
	return f.conf, f.err
}

func (f *fakeConferenceService) ListCreated(ctx context.Context, id domain.Identity) ([]*domain.Conference, error) {
	f.lastID = id
	return f.list, f.err
}

func (f *fakeConferenceService) ListAttending(ctx context.Context, id domain.Identity) ([]*domain.Conference, error) {
	f.lastID = id
	return f.list, f.err
}

func (f *fakeConferenceService) Query(ctx context.Context, filters []query.Spec) ([]*domain.Conference, error) {
	f.lastFilters = filters
	return f.list, f.err
}

type fakeRegistrationService struct {
	err      error
	removed  bool
	sessions []*domain.Session
	lastKey  *domain.Key
	calls    []string
}

func (f *fakeRegistrationService) Register(ctx context.Context, id domain.Identity, conferenceKey *domain.Key) error {
	f.calls = append(f.calls, "register")
	f.lastKey = conferenceKey
	return f.err
}

func (f *fakeRegistrationService) Unregister(ctx context.Context, id domain.Identity, conferenceKey *domain.Key) (bool, error) {
	f.calls = append(f.calls, "unregister")
	f.lastKey = conferenceKey
	return f.removed, f.err
}

func (f *fakeRegistrationService) AddToWishlist(ctx context.Context, id domain.Identity, sessionKey *domain.Key) error {
	f.calls = append(f.calls, "add")
	f.lastKey = sessionKey
	return f.err
}

func (f *fakeRegistrationService) RemoveFromWishlist(ctx context.Context, id domain.Identity, sessionKey *domain.Key) error {
	f.calls = append(f.calls, "remove")
	f.lastKey = sessionKey
	return f.err
}

func (f *fakeRegistrationService) Wishlist(ctx context.Context, id domain.Identity) ([]*domain.Session, error) {
	f.calls = append(f.calls, "wishlist")
	return f.sessions, f.err
}

type fakeSessionService struct {
	sess       *domain.Session
	list       []*domain.Session
	err        error
	lastType   string
	lastQuery  domain.SessionQuery
	lastUpdate domain.SessionUpdate
	lastCreate *domain.Session
	calls      []string
}

func (f *fakeSessionService) Create(ctx context.Context, id domain.Identity, conferenceKey *domain.Key, s *domain.Session) (*domain.Session, error) {
	f.calls = append(f.calls, "create")
	f.lastCreate = s
	if f.err != nil {
		return nil, f.err
	}
	s.Key = domain.NewKey(domain.KindSession, "new", conferenceKey)
	s.ConferenceKey = conferenceKey
	return s, nil
}

func (f *fakeSessionService) Update(ctx context.Context, id domain.Identity, key *domain.Key, upd domain.SessionUpdate) (*domain.Session, error) {
	f.calls = append(f.calls, "update")
	f.lastUpdate = upd
	return f.sess, f.err
}

func (f *fakeSessionService) ListByConference(ctx context.Context, conferenceKey *domain.Key) ([]*domain.Session, error) {
	f.calls = append(f.calls, "list")
	return f.list, f.err
}

func (f *fakeSessionService) ListByType(ctx context.Context, conferenceKey *domain.Key, typeOfSession string) ([]*domain.Session, error) {
	f.calls = append(f.calls, "listByType")
	f.lastType = typeOfSession
	return f.list, f.err
}

func (f *fakeSessionService) Query(ctx context.Context, q domain.SessionQuery) ([]*domain.Session, error) {
	f.calls = append(f.calls, "query")
	f.lastQuery = q
	return f.list, f.err
}

type fakeSpeakerService struct {
	domain.SpeakerService
	speaker  *domain.Speaker
	sessions []*domain.Session
	featured string
	err      error
}

func (f *fakeSpeakerService) GetBySession(ctx context.Context, sessionKey *domain.Key) (*domain.Speaker, error) {
	return f.speaker, f.err
}

func (f *fakeSpeakerService) ListSessions(ctx context.Context, speakerKey *domain.Key) ([]*domain.Session, error) {
	return f.sessions, f.err
}

func (f *fakeSpeakerService) GetFeaturedSpeaker(ctx context.Context, conferenceKey *domain.Key) (string, error) {
	return f.featured, f.err
}

type fakeProfileService struct {
	profile  *domain.Profile
	err      error
	lastSave domain.ProfileUpdate
}

func (f *fakeProfileService) Get(ctx context.Context, id domain.Identity) (*domain.Profile, error) {
	return f.profile, f.err
}

func (f *fakeProfileService) Save(ctx context.Context, id domain.Identity, upd domain.ProfileUpdate) (*domain.Profile, error) {
	f.lastSave = upd
	return f.profile, f.err
}

type fakeAnnouncementService struct {
	text string
	err  error
}

func (f *fakeAnnouncementService) Refresh(ctx context.Context) (string, error) { return f.text, f.err }
func (f *fakeAnnouncementService) Get(ctx context.Context) (string, error)     { return f.text, f.err }
