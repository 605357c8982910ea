package services

import (
	"context"
	"errors"
	"testing"

	"conferencecentral/internal/domain"
	"conferencecentral/internal/query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionFixture struct {
	conf     *domain.Conference
	confs    *fakeConferenceRepo
	sessions *fakeSessionRepo
	speakers *fakeSpeakerRepo
	queue    *fakeQueue
	svc      domain.SessionService
}

func newSessionFixture(t *testing.T, existing ...*domain.Session) *sessionFixture {
	t.Helper()
	start, err := query.ParseDate("2025-06-01")
	require.NoError(t, err)
	conf := &domain.Conference{
		Key:             testConferenceKey("c1"),
		OrganizerUserID: "organizer",
		Name:            "GopherCon",
		StartDate:       &start,
	}
	f := &sessionFixture{
		conf:     conf,
		confs:    newFakeConferenceRepo(conf),
		sessions: newFakeSessionRepo(existing...),
		speakers: newFakeSpeakerRepo(),
		queue:    &fakeQueue{},
	}
	speakerSvc := NewSpeakerService(f.speakers, f.sessions, newFakeCache(), testLogger, testTimeout)
	f.svc = NewSessionService(f.sessions, f.confs, speakerSvc, f.queue, testLogger, testTimeout)
	return f
}

var organizer = domain.Identity{UserID: "organizer", Email: "org@example.com"}

func TestSessionService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults and featured speaker task", func(t *testing.T) {
		f := newSessionFixture(t)
		got, err := f.svc.Create(ctx, organizer, f.conf.Key, &domain.Session{Name: " Keynote ", Speaker: "Grace Hopper"})
		require.NoError(t, err)

		assert.Equal(t, "Keynote", got.Name)
		assert.True(t, got.Key.Parent.Equal(f.conf.Key))
		assert.Equal(t, domain.DefaultSessionType, got.TypeOfSession)
		assert.Equal(t, domain.DefaultHighlights, got.Highlights)
		assert.Equal(t, "2025-06-01", got.Date.String())
		require.NotNil(t, got.SpeakerKey)

		sp, err := f.speakers.GetByName(ctx, "grace hopper")
		require.NoError(t, err)
		assert.True(t, domain.ContainsKey(sp.SessionKeys, got.Key))

		payloads := f.queue.featuredPayloads()
		require.Len(t, payloads, 1)
		assert.Equal(t, got.SpeakerKey.Encode(), payloads[0].SpeakerKey)
		assert.Equal(t, f.conf.Key.Encode(), payloads[0].ConferenceKey)
	})

	t.Run("no speaker means no task", func(t *testing.T) {
		f := newSessionFixture(t)
		got, err := f.svc.Create(ctx, organizer, f.conf.Key, &domain.Session{Name: "Lunch"})
		require.NoError(t, err)
		assert.Nil(t, got.SpeakerKey)
		assert.Empty(t, f.queue.tasks)
	})

	t.Run("failed insert detaches speaker", func(t *testing.T) {
		f := newSessionFixture(t)
		f.sessions.createErr = errors.New("db down")
		_, err := f.svc.Create(ctx, organizer, f.conf.Key, &domain.Session{Name: "Keynote", Speaker: "Grace Hopper"})
		require.Error(t, err)

		sp, err := f.speakers.GetByName(ctx, "Grace Hopper")
		require.NoError(t, err)
		assert.Empty(t, sp.SessionKeys)
		assert.Empty(t, f.queue.tasks)
	})

	tests := []struct {
		name    string
		id      domain.Identity
		confKey *domain.Key
		session *domain.Session
		wantErr error
	}{
		{name: "not the organizer", id: domain.Identity{UserID: "intruder"}, session: &domain.Session{Name: "x"}, wantErr: domain.ErrForbidden},
		{name: "missing conference", id: organizer, confKey: testConferenceKey("nope"), session: &domain.Session{Name: "x"}, wantErr: domain.ErrNotFound},
		{name: "blank name", id: organizer, session: &domain.Session{Name: "  "}, wantErr: domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSessionFixture(t)
			key := tt.confKey
			if key == nil {
				key = f.conf.Key
			}
			_, err := f.svc.Create(ctx, tt.id, key, tt.session)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSessionService_UpdateSpeaker(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t)

	sess, err := f.svc.Create(ctx, organizer, f.conf.Key, &domain.Session{Name: "Keynote", Speaker: "Grace Hopper"})
	require.NoError(t, err)
	former := sess.SpeakerKey

	newName := "Ada Lovelace"
	updated, err := f.svc.Update(ctx, organizer, sess.Key, domain.SessionUpdate{Speaker: &newName})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", updated.Speaker)
	require.NotNil(t, updated.SpeakerKey)
	assert.False(t, updated.SpeakerKey.Equal(former))

	grace, err := f.speakers.GetByKey(ctx, former)
	require.NoError(t, err)
	assert.Empty(t, grace.SessionKeys)

	// One task from create, then one each for the former and new speaker.
	payloads := f.queue.featuredPayloads()
	require.Len(t, payloads, 3)
	assert.Equal(t, former.Encode(), payloads[1].SpeakerKey)
	assert.Equal(t, updated.SpeakerKey.Encode(), payloads[2].SpeakerKey)
}

func TestSessionService_UpdateSpeakerRollback(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t)

	sess, err := f.svc.Create(ctx, organizer, f.conf.Key, &domain.Session{Name: "Keynote", Speaker: "Ada Lovelace"})
	require.NoError(t, err)
	ada := sess.SpeakerKey

	f.sessions.updateErr = errors.New("db down")
	newName := "Grace Hopper"
	_, err = f.svc.Update(ctx, organizer, sess.Key, domain.SessionUpdate{Speaker: &newName})
	require.Error(t, err)

	grace, err := f.speakers.GetByName(ctx, "Grace Hopper")
	require.NoError(t, err)
	assert.False(t, domain.ContainsKey(grace.SessionKeys, sess.Key))

	stored, err := f.sessions.GetByKey(ctx, sess.Key)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", stored.Speaker)
	assert.True(t, stored.SpeakerKey.Equal(ada))

	adaSpeaker, err := f.speakers.GetByKey(ctx, ada)
	require.NoError(t, err)
	assert.True(t, domain.ContainsKey(adaSpeaker.SessionKeys, sess.Key))
	require.Len(t, f.queue.featuredPayloads(), 1)
}

func TestSessionService_Query(t *testing.T) {
	ctx := context.Background()
	conf := testConferenceKey("c1")
	tod := func(s string) *query.TimeOfDay {
		v, err := query.ParseTimeOfDay(s)
		require.NoError(t, err)
		return &v
	}
	dur := func(n int) *int { return &n }

	existing := []*domain.Session{
		{Key: domain.NewKey(domain.KindSession, "s1", conf), ConferenceKey: conf, Name: "Morning Workshop", TypeOfSession: "workshop", StartTime: tod("09:00"), Duration: dur(120)},
		{Key: domain.NewKey(domain.KindSession, "s2", conf), ConferenceKey: conf, Name: "Evening Workshop", TypeOfSession: "workshop", StartTime: tod("19:30"), Duration: dur(90)},
		{Key: domain.NewKey(domain.KindSession, "s3", conf), ConferenceKey: conf, Name: "Lunch Talk", TypeOfSession: "talk", StartTime: tod("12:00"), Duration: dur(30)},
		{Key: domain.NewKey(domain.KindSession, "s4", conf), ConferenceKey: conf, Name: "Unscheduled", TypeOfSession: "talk"},
	}

	tests := []struct {
		name    string
		filters []query.Spec
		want    []string
		wantErr error
	}{
		{
			name: "no filters lists everything by name",
			want: []string{"Evening Workshop", "Lunch Talk", "Morning Workshop", "Unscheduled"},
		},
		{
			name: "not workshop and before seven pm",
			filters: []query.Spec{
				{Field: "TYPE", Operator: "NE", Value: "workshop"},
				{Field: "START_TIME", Operator: "LT", Value: "19:00"},
			},
			want: []string{"Lunch Talk"},
		},
		{
			name: "equality pushed down with two inequality fields",
			filters: []query.Spec{
				{Field: "TYPE", Operator: "EQ", Value: "workshop"},
				{Field: "START_TIME", Operator: "GTEQ", Value: "09:00"},
				{Field: "DURATION", Operator: "GT", Value: "100"},
			},
			want: []string{"Morning Workshop"},
		},
		{
			name:    "bad value",
			filters: []query.Spec{{Field: "DURATION", Operator: "GT", Value: "long"}},
			wantErr: query.ErrInvalidFilter,
		},
		{
			name:    "unknown field",
			filters: []query.Spec{{Field: "ROOM", Operator: "EQ", Value: "A"}},
			wantErr: query.ErrInvalidFilter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSessionFixture(t, existing...)
			got, err := f.svc.Query(ctx, domain.SessionQuery{ConferenceKey: conf, Filters: tt.filters})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			names := make([]string, 0, len(got))
			for _, s := range got {
				names = append(names, s.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}

	t.Run("by type", func(t *testing.T) {
		f := newSessionFixture(t, existing...)
		got, err := f.svc.ListByType(ctx, conf, "talk")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Lunch Talk", got[0].Name)
	})

	t.Run("unknown conference", func(t *testing.T) {
		f := newSessionFixture(t, existing...)
		_, err := f.svc.ListByConference(ctx, testConferenceKey("nope"))
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}
