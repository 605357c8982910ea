package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"conferencecentral/internal/delivery/http/controllers"
	"conferencecentral/internal/domain"

	"github.com/stretchr/testify/assert"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

type stubVerifier struct{}

func (stubVerifier) Verify(token string) (domain.Identity, error) {
	if token == "good" {
		return domain.Identity{UserID: "alice"}, nil
	}
	return domain.Identity{}, errors.New("bad token")
}

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

type stubAnnouncements struct{}

func (stubAnnouncements) Refresh(context.Context) (string, error) { return "", nil }
func (stubAnnouncements) Get(context.Context) (string, error)     { return "", nil }

type stubProfiles struct{}

func (stubProfiles) Get(_ context.Context, id domain.Identity) (*domain.Profile, error) {
	return domain.NewProfile(id), nil
}

func (stubProfiles) Save(_ context.Context, id domain.Identity, _ domain.ProfileUpdate) (*domain.Profile, error) {
	return domain.NewProfile(id), nil
}

func newTestRouter(health Pinger) http.Handler {
	return NewRouter(RouterDeps{
		Logger:        testLogger,
		Verifier:      stubVerifier{},
		Health:        health,
		Conferences:   controllers.NewConferenceController(testLogger, nil, nil),
		Sessions:      controllers.NewSessionController(testLogger, nil),
		Speakers:      controllers.NewSpeakerController(testLogger, nil),
		Profiles:      controllers.NewProfileController(testLogger, stubProfiles{}, nil),
		Announcements: controllers.NewAnnouncementController(testLogger, stubAnnouncements{}),
	})
}

func TestRouter(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		health     Pinger
		wantStatus int
	}{
		{name: "healthz", method: http.MethodGet, path: "/healthz", wantStatus: http.StatusOK},
		{name: "healthz with store down", method: http.MethodGet, path: "/healthz", health: stubPinger{err: errors.New("down")}, wantStatus: http.StatusServiceUnavailable},
		{name: "public announcement", method: http.MethodGet, path: "/announcement", wantStatus: http.StatusOK},
		{name: "profile requires a token", method: http.MethodGet, path: "/profile", wantStatus: http.StatusUnauthorized},
		{name: "profile rejects a bad token", method: http.MethodGet, path: "/profile", token: "bad", wantStatus: http.StatusUnauthorized},
		{name: "profile with a token", method: http.MethodGet, path: "/profile", token: "good", wantStatus: http.StatusOK},
		{name: "create conference requires a token", method: http.MethodPost, path: "/conference", wantStatus: http.StatusUnauthorized},
		{name: "registration requires a token", method: http.MethodPost, path: "/conference/abc/registration", wantStatus: http.StatusUnauthorized},
		{name: "wishlist requires a token", method: http.MethodPut, path: "/profile/sessions/abc", wantStatus: http.StatusUnauthorized},
		{name: "wrong method", method: http.MethodDelete, path: "/announcement", wantStatus: http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			health := tt.health
			if health == nil {
				health = stubPinger{}
			}
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rr := httptest.NewRecorder()
			newTestRouter(health).ServeHTTP(rr, req)
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}
