package controllers

import (
	"log/slog"
	"net/http"

	"conferencecentral/internal/delivery/http/helpers"
	"conferencecentral/internal/domain"
	"conferencecentral/internal/query"
)

// SessionRequest is the request body for POST /conference/{conferenceKey}/sessions.
type SessionRequest struct {
	Name          string           `json:"name"`
	Highlights    []string         `json:"highlights"`
	Speaker       string           `json:"speaker"`
	Duration      *int             `json:"duration"`
	TypeOfSession string           `json:"typeOfSession"`
	Date          *query.Date      `json:"date" swaggertype:"string" example:"2026-05-01"`
	StartTime     *query.TimeOfDay `json:"startTime" swaggertype:"string" example:"14:30"`
}

func (s SessionRequest) Validate() []string {
	var errs []string
	if s.Name == "" {
		errs = append(errs, "name is required")
	}
	if s.Duration != nil && *s.Duration < 0 {
		errs = append(errs, "duration must not be negative")
	}
	return errs
}

// UpdateSessionRequest is the request body for PUT /session/{sessionKey}.
// Omitted fields are unchanged; an empty speaker removes the speaker.
type UpdateSessionRequest struct {
	Name          *string          `json:"name"`
	Highlights    []string         `json:"highlights"`
	Speaker       *string          `json:"speaker"`
	Duration      *int             `json:"duration"`
	TypeOfSession *string          `json:"typeOfSession"`
	Date          *query.Date      `json:"date" swaggertype:"string"`
	StartTime     *query.TimeOfDay `json:"startTime" swaggertype:"string"`
}

func (u UpdateSessionRequest) Validate() []string {
	var errs []string
	if u.Name != nil && *u.Name == "" {
		errs = append(errs, "name must not be empty")
	}
	if u.Duration != nil && *u.Duration < 0 {
		errs = append(errs, "duration must not be negative")
	}
	return errs
}

// SessionQueryRequest is the request body for POST /sessions/query.
type SessionQueryRequest struct {
	ConferenceKey string       `json:"websafeConferenceKey"`
	Filters       []query.Spec `json:"filters"`
}

// SessionSuccessResponse is the success envelope for a single session.
type SessionSuccessResponse struct {
	Data  *domain.Session   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// SessionsSuccessResponse is the success envelope for session lists.
type SessionsSuccessResponse struct {
	Data  []*domain.Session `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type SessionController struct {
	Logger  *slog.Logger
	Service domain.SessionService
}

func NewSessionController(logger *slog.Logger, svc domain.SessionService) *SessionController {
	return &SessionController{Logger: logger, Service: svc}
}

// Create godoc
// @Summary Create a session
// @Description Only the conference organizer may add sessions. Naming a speaker links the session to that speaker and queues a featured-speaker check.
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param conferenceKey path string true "Websafe conference key"
// @Param session body SessionRequest true "Session"
// @Success 201 {object} controllers.SessionSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /conference/{conferenceKey}/sessions [post]
func (c *SessionController) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	confKey, ok := pathKey(w, r, "conferenceKey", domain.KindConference)
	if !ok {
		return
	}
	var req SessionRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	sess, err := c.Service.Create(r.Context(), id, confKey, &domain.Session{
		Name:          req.Name,
		Highlights:    req.Highlights,
		Speaker:       req.Speaker,
		Duration:      req.Duration,
		TypeOfSession: req.TypeOfSession,
		Date:          req.Date,
		StartTime:     req.StartTime,
	})
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, sess)
}

// ListByConference godoc
// @Summary List a conference's sessions
// @Description With ?type= only sessions of that type are returned.
// @Tags sessions
// @Produce json
// @Param conferenceKey path string true "Websafe conference key"
// @Param type query string false "Type of session"
// @Success 200 {object} controllers.SessionsSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /conference/{conferenceKey}/sessions [get]
func (c *SessionController) ListByConference(w http.ResponseWriter, r *http.Request) {
	confKey, ok := pathKey(w, r, "conferenceKey", domain.KindConference)
	if !ok {
		return
	}
	var (
		sessions []*domain.Session
		err      error
	)
	if t := r.URL.Query().Get("type"); t != "" {
		sessions, err = c.Service.ListByType(r.Context(), confKey, t)
	} else {
		sessions, err = c.Service.ListByConference(r.Context(), confKey)
	}
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, sessions)
}

// Update godoc
// @Summary Update a session
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sessionKey path string true "Websafe session key"
// @Param session body UpdateSessionRequest true "Fields to change"
// @Success 200 {object} controllers.SessionSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /session/{sessionKey} [put]
func (c *SessionController) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	key, ok := pathKey(w, r, "sessionKey", domain.KindSession)
	if !ok {
		return
	}
	var req UpdateSessionRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	sess, err := c.Service.Update(r.Context(), id, key, domain.SessionUpdate{
		Name:          req.Name,
		Highlights:    req.Highlights,
		Speaker:       req.Speaker,
		Duration:      req.Duration,
		TypeOfSession: req.TypeOfSession,
		Date:          req.Date,
		StartTime:     req.StartTime,
	})
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, sess)
}

// Query godoc
// @Summary Query sessions
// @Description Filters on highlight, type, date, startTime or duration, optionally within one conference. Several inequality fields may be combined.
// @Tags sessions
// @Accept json
// @Produce json
// @Param query body SessionQueryRequest false "Filters"
// @Success 200 {object} controllers.SessionsSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /sessions/query [post]
func (c *SessionController) Query(w http.ResponseWriter, r *http.Request) {
	var req SessionQueryRequest
	if !helpers.DecodeOptional(w, r, &req) {
		return
	}
	q := domain.SessionQuery{Filters: req.Filters}
	if req.ConferenceKey != "" {
		key, err := domain.ParseKeyOfKind(req.ConferenceKey, domain.KindConference)
		if err != nil {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		q.ConferenceKey = key
	}
	sessions, err := c.Service.Query(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, sessions)
}
