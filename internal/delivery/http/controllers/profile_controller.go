package controllers

import (
	"log/slog"
	"net/http"

	"conferencecentral/internal/delivery/http/helpers"
	"conferencecentral/internal/domain"
)

// ProfileRequest is the request body for POST /profile. Omitted fields are unchanged.
type ProfileRequest struct {
	DisplayName  *string `json:"displayName"`
	TeeShirtSize *string `json:"teeShirtSize" example:"M_W"`
}

// ProfileSuccessResponse is the success envelope for the caller's profile.
type ProfileSuccessResponse struct {
	Data  *domain.Profile   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type ProfileController struct {
	Logger        *slog.Logger
	Profiles      domain.ProfileService
	Registrations domain.RegistrationService
}

func NewProfileController(logger *slog.Logger, profiles domain.ProfileService, registrations domain.RegistrationService) *ProfileController {
	return &ProfileController{
		Logger:        logger,
		Profiles:      profiles,
		Registrations: registrations,
	}
}

// Get godoc
// @Summary Get the caller's profile
// @Description The profile is created on first access from the token's name and email.
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.ProfileSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /profile [get]
func (c *ProfileController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	p, err := c.Profiles.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, p)
}

// Save godoc
// @Summary Update the caller's profile
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body ProfileRequest false "Fields to change"
// @Success 200 {object} controllers.ProfileSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /profile [post]
func (c *ProfileController) Save(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req ProfileRequest
	if !helpers.DecodeOptional(w, r, &req) {
		return
	}
	p, err := c.Profiles.Save(r.Context(), id, domain.ProfileUpdate{
		DisplayName:  req.DisplayName,
		TeeShirtSize: req.TeeShirtSize,
	})
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, p)
}

// Wishlist godoc
// @Summary Sessions in the caller's wishlist
// @Tags wishlist
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.SessionsSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /profile/sessions [get]
func (c *ProfileController) Wishlist(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	sessions, err := c.Registrations.Wishlist(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, sessions)
}

// AddToWishlist godoc
// @Summary Add a session to the caller's wishlist
// @Tags wishlist
// @Produce json
// @Security BearerAuth
// @Param sessionKey path string true "Websafe session key"
// @Success 200 {object} helpers.APIResponse "data.result is true"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /profile/sessions/{sessionKey} [put]
func (c *ProfileController) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	key, ok := pathKey(w, r, "sessionKey", domain.KindSession)
	if !ok {
		return
	}
	if err := c.Registrations.AddToWishlist(r.Context(), id, key); err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ResultResponse{Result: true})
}

// RemoveFromWishlist godoc
// @Summary Remove a session from the caller's wishlist
// @Tags wishlist
// @Produce json
// @Security BearerAuth
// @Param sessionKey path string true "Websafe session key"
// @Success 200 {object} helpers.APIResponse "data.result is true"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /profile/sessions/{sessionKey} [delete]
func (c *ProfileController) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	key, ok := pathKey(w, r, "sessionKey", domain.KindSession)
	if !ok {
		return
	}
	if err := c.Registrations.RemoveFromWishlist(r.Context(), id, key); err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ResultResponse{Result: true})
}
