package controllers

import (
	"log/slog"
	"net/http"

	"conferencecentral/internal/delivery/http/helpers"
	"conferencecentral/internal/domain"
	"conferencecentral/internal/query"
)

// ConferenceRequest is the request body for POST /conference.
type ConferenceRequest struct {
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Topics       []string    `json:"topics"`
	City         string      `json:"city"`
	StartDate    *query.Date `json:"startDate" swaggertype:"string" example:"2026-05-01"`
	EndDate      *query.Date `json:"endDate" swaggertype:"string" example:"2026-05-03"`
	MaxAttendees int         `json:"maxAttendees"`
}

// Validate implements Validator.
func (c ConferenceRequest) Validate() []string {
	var errs []string
	if c.Name == "" {
		errs = append(errs, "name is required")
	}
	if c.MaxAttendees < 0 {
		errs = append(errs, "maxAttendees must not be negative")
	}
	return errs
}

// UpdateConferenceRequest is the request body for PUT /conference/{conferenceKey}.
// Omitted fields are unchanged.
type UpdateConferenceRequest struct {
	Name         *string     `json:"name"`
	Description  *string     `json:"description"`
	Topics       []string    `json:"topics"`
	City         *string     `json:"city"`
	StartDate    *query.Date `json:"startDate" swaggertype:"string"`
	EndDate      *query.Date `json:"endDate" swaggertype:"string"`
	MaxAttendees *int        `json:"maxAttendees"`
}

func (u UpdateConferenceRequest) Validate() []string {
	var errs []string
	if u.Name != nil && *u.Name == "" {
		errs = append(errs, "name must not be empty")
	}
	if u.MaxAttendees != nil && *u.MaxAttendees < 0 {
		errs = append(errs, "maxAttendees must not be negative")
	}
	return errs
}

// QueryRequest is the request body for the filtered query endpoints.
type QueryRequest struct {
	Filters []query.Spec `json:"filters"`
}

// ConferenceSuccessResponse is the success envelope for single-conference responses.
type ConferenceSuccessResponse struct {
	Data  *domain.Conference `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// ConferencesSuccessResponse is the success envelope for conference lists.
type ConferencesSuccessResponse struct {
	Data  []*domain.Conference `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

type ConferenceController struct {
	Logger        *slog.Logger
	Service       domain.ConferenceService
	Registrations domain.RegistrationService
}

func NewConferenceController(logger *slog.Logger, svc domain.ConferenceService, registrations domain.RegistrationService) *ConferenceController {
	return &ConferenceController{
		Logger:        logger,
		Service:       svc,
		Registrations: registrations,
	}
}

// Create godoc
// @Summary Create a conference
// @Description Creates a conference organized by the caller. Seats available start at maxAttendees; city and topics get defaults when omitted. A confirmation email is queued.
// @Tags conferences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param conference body ConferenceRequest true "Conference"
// @Success 201 {object} controllers.ConferenceSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /conference [post]
func (c *ConferenceController) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req ConferenceRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	conf, err := c.Service.Create(r.Context(), id, &domain.Conference{
		Name:         req.Name,
		Description:  req.Description,
		Topics:       req.Topics,
		City:         req.City,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		MaxAttendees: req.MaxAttendees,
	})
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, conf)
}

// Get godoc
// @Summary Get a conference
// @Tags conferences
// @Produce json
// @Param conferenceKey path string true "Websafe conference key"
// @Success 200 {object} controllers.ConferenceSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /conference/{conferenceKey} [get]
func (c *ConferenceController) Get(w http.ResponseWriter, r *http.Request) {
	key, ok := pathKey(w, r, "conferenceKey", domain.KindConference)
	if !ok {
		return
	}
	conf, err := c.Service.Get(r.Context(), key)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, conf)
}

// Update godoc
// @Summary Update a conference
// @Description Only the organizer may update. Changing maxAttendees shifts seatsAvailable by the same amount.
// @Tags conferences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param conferenceKey path string true "Websafe conference key"
// @Param conference body UpdateConferenceRequest true "Fields to change"
// @Success 200 {object} controllers.ConferenceSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /conference/{conferenceKey} [put]
func (c *ConferenceController) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	key, ok := pathKey(w, r, "conferenceKey", domain.KindConference)
	if !ok {
		return
	}
	var req UpdateConferenceRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	conf, err := c.Service.Update(r.Context(), id, key, domain.ConferenceUpdate{
		Name:         req.Name,
		Description:  req.Description,
		Topics:       req.Topics,
		City:         req.City,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		MaxAttendees: req.MaxAttendees,
	})
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, conf)
}

// ListCreated godoc
// @Summary Conferences created by the caller
// @Tags conferences
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.ConferencesSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /conferences/created [get]
func (c *ConferenceController) ListCreated(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	confs, err := c.Service.ListCreated(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, confs)
}

// ListAttending godoc
// @Summary Conferences the caller is registered for
// @Tags conferences
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.ConferencesSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /conferences/attending [get]
func (c *ConferenceController) ListAttending(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	confs, err := c.Service.ListAttending(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, confs)
}

// Query godoc
// @Summary Query conferences
// @Description Filters on city, topic, month or maxAttendees. Inequality filters may use only one field.
// @Tags conferences
// @Accept json
// @Produce json
// @Param query body QueryRequest false "Filters"
// @Success 200 {object} controllers.ConferencesSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /conferences/query [post]
func (c *ConferenceController) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !helpers.DecodeOptional(w, r, &req) {
		return
	}
	confs, err := c.Service.Query(r.Context(), req.Filters)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, confs)
}

// Register godoc
// @Summary Register for a conference
// @Tags registration
// @Produce json
// @Security BearerAuth
// @Param conferenceKey path string true "Websafe conference key"
// @Success 200 {object} helpers.APIResponse "data.result is true"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already registered or sold out)"
// @Router /conference/{conferenceKey}/registration [post]
func (c *ConferenceController) Register(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	key, ok := pathKey(w, r, "conferenceKey", domain.KindConference)
	if !ok {
		return
	}
	if err := c.Registrations.Register(r.Context(), id, key); err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ResultResponse{Result: true})
}

// Unregister godoc
// @Summary Unregister from a conference
// @Description data.result is false when the caller was not registered.
// @Tags registration
// @Produce json
// @Security BearerAuth
// @Param conferenceKey path string true "Websafe conference key"
// @Success 200 {object} helpers.APIResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /conference/{conferenceKey}/registration [delete]
func (c *ConferenceController) Unregister(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	key, ok := pathKey(w, r, "conferenceKey", domain.KindConference)
	if !ok {
		return
	}
	removed, err := c.Registrations.Unregister(r.Context(), id, key)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ResultResponse{Result: removed})
}
