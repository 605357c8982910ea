package controllers

import (
	"log/slog"
	"net/http"

	"conferencecentral/internal/delivery/http/helpers"
	"conferencecentral/internal/domain"
)

// SpeakerSuccessResponse is the success envelope for a speaker.
type SpeakerSuccessResponse struct {
	Data  *domain.Speaker   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type SpeakerController struct {
	Logger  *slog.Logger
	Service domain.SpeakerService
}

func NewSpeakerController(logger *slog.Logger, svc domain.SpeakerService) *SpeakerController {
	return &SpeakerController{Logger: logger, Service: svc}
}

// GetBySession godoc
// @Summary Get the speaker of a session
// @Tags speakers
// @Produce json
// @Param sessionKey path string true "Websafe session key"
// @Success 200 {object} controllers.SpeakerSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /session/{sessionKey}/speaker [get]
func (c *SpeakerController) GetBySession(w http.ResponseWriter, r *http.Request) {
	key, ok := pathKey(w, r, "sessionKey", domain.KindSession)
	if !ok {
		return
	}
	sp, err := c.Service.GetBySession(r.Context(), key)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, sp)
}

// ListSessions godoc
// @Summary List a speaker's sessions
// @Tags speakers
// @Produce json
// @Param speakerKey path string true "Websafe speaker key"
// @Success 200 {object} controllers.SessionsSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /speaker/{speakerKey}/sessions [get]
func (c *SpeakerController) ListSessions(w http.ResponseWriter, r *http.Request) {
	key, ok := pathKey(w, r, "speakerKey", domain.KindSpeaker)
	if !ok {
		return
	}
	sessions, err := c.Service.ListSessions(r.Context(), key)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, sessions)
}

// FeaturedSpeaker godoc
// @Summary Featured-speaker announcement of a conference
// @Description data.text is empty when no speaker is featured.
// @Tags speakers
// @Produce json
// @Param conferenceKey path string true "Websafe conference key"
// @Success 200 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /conference/{conferenceKey}/featured-speaker [get]
func (c *SpeakerController) FeaturedSpeaker(w http.ResponseWriter, r *http.Request) {
	key, ok := pathKey(w, r, "conferenceKey", domain.KindConference)
	if !ok {
		return
	}
	text, err := c.Service.GetFeaturedSpeaker(r.Context(), key)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, AnnouncementResponse{Text: text})
}
