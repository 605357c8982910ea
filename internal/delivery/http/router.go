package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"conferencecentral/internal/delivery/http/controllers"
	"conferencecentral/internal/delivery/http/helpers"
	"conferencecentral/internal/delivery/http/middleware"
	"conferencecentral/internal/domain"

	httpSwagger "github.com/swaggo/http-swagger"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps holds what NewRouter needs to mount every route.
type RouterDeps struct {
	Logger        *slog.Logger
	Verifier      domain.TokenVerifier
	Health        Pinger
	Conferences   *controllers.ConferenceController
	Sessions      *controllers.SessionController
	Speakers      *controllers.SpeakerController
	Profiles      *controllers.ProfileController
	Announcements *controllers.AnnouncementController
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(d RouterDeps) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(d.Verifier, d.Logger)

	mux.HandleFunc("GET /healthz", healthz(d.Health))

	// Profile and wishlist
	mux.HandleFunc("GET /profile", auth(d.Profiles.Get))
	mux.HandleFunc("POST /profile", auth(d.Profiles.Save))
	mux.HandleFunc("GET /profile/sessions", auth(d.Profiles.Wishlist))
	mux.HandleFunc("PUT /profile/sessions/{sessionKey}", auth(d.Profiles.AddToWishlist))
	mux.HandleFunc("DELETE /profile/sessions/{sessionKey}", auth(d.Profiles.RemoveFromWishlist))

	// Conferences
	mux.HandleFunc("POST /conference", auth(d.Conferences.Create))
	mux.HandleFunc("GET /conference/{conferenceKey}", d.Conferences.Get)
	mux.HandleFunc("PUT /conference/{conferenceKey}", auth(d.Conferences.Update))
	mux.HandleFunc("POST /conference/{conferenceKey}/registration", auth(d.Conferences.Register))
	mux.HandleFunc("DELETE /conference/{conferenceKey}/registration", auth(d.Conferences.Unregister))
	mux.HandleFunc("GET /conferences/created", auth(d.Conferences.ListCreated))
	mux.HandleFunc("GET /conferences/attending", auth(d.Conferences.ListAttending))
	mux.HandleFunc("POST /conferences/query", d.Conferences.Query)

	// Sessions and speakers
	mux.HandleFunc("POST /conference/{conferenceKey}/sessions", auth(d.Sessions.Create))
	mux.HandleFunc("GET /conference/{conferenceKey}/sessions", d.Sessions.ListByConference)
	mux.HandleFunc("PUT /session/{sessionKey}", auth(d.Sessions.Update))
	mux.HandleFunc("POST /sessions/query", d.Sessions.Query)
	mux.HandleFunc("GET /session/{sessionKey}/speaker", d.Speakers.GetBySession)
	mux.HandleFunc("GET /speaker/{speakerKey}/sessions", d.Speakers.ListSessions)
	mux.HandleFunc("GET /conference/{conferenceKey}/featured-speaker", d.Speakers.FeaturedSpeaker)

	mux.HandleFunc("GET /announcement", d.Announcements.Get)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}

// healthz godoc
// @Summary Liveness and store reachability
// @Tags health
// @Produce json
// @Success 200 {object} helpers.APIResponse
// @Failure 503 {object} helpers.APIResponse "error.code: internal_error"
// @Router /healthz [get]
func healthz(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := p.PingContext(ctx); err != nil {
				helpers.WriteJSONError(w, http.StatusServiceUnavailable, helpers.ErrCodeInternalError, "database unavailable")
				return
			}
		}
		helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
