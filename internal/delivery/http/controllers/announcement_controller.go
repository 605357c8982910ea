package controllers

import (
	"log/slog"
	"net/http"

	"conferencecentral/internal/delivery/http/helpers"
	"conferencecentral/internal/domain"
)

type AnnouncementController struct {
	Logger  *slog.Logger
	Service domain.AnnouncementService
}

func NewAnnouncementController(logger *slog.Logger, svc domain.AnnouncementService) *AnnouncementController {
	return &AnnouncementController{Logger: logger, Service: svc}
}

// Get godoc
// @Summary Sold-out announcement
// @Description Lists conferences with five or fewer seats left. data.text is empty when there are none.
// @Tags announcements
// @Produce json
// @Success 200 {object} helpers.APIResponse
// @Router /announcement [get]
func (c *AnnouncementController) Get(w http.ResponseWriter, r *http.Request) {
	text, err := c.Service.Get(r.Context())
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, AnnouncementResponse{Text: text})
}
