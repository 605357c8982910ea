package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"conferencecentral/internal/delivery/http/helpers"
	"conferencecentral/internal/delivery/http/middleware"
	"conferencecentral/internal/domain"
)

// errorStatus maps a service error to its HTTP status and envelope code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrNotInWishlist):
		return http.StatusNotFound, helpers.ErrCodeNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, helpers.ErrCodeForbidden
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, helpers.ErrCodeUnauthorized
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidFilter):
		return http.StatusBadRequest, helpers.ErrCodeBadRequest
	case errors.Is(err, domain.ErrAlreadyRegistered),
		errors.Is(err, domain.ErrNoSeatsAvailable),
		errors.Is(err, domain.ErrAlreadyInWishlist),
		errors.Is(err, domain.ErrDuplicate),
		errors.Is(err, domain.ErrVersionConflict):
		return http.StatusConflict, helpers.ErrCodeConflict
	}
	return http.StatusInternalServerError, helpers.ErrCodeInternalError
}

// writeServiceError writes the envelope for err. Only unexpected errors are logged.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, code := errorStatus(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, status, code, "internal error")
		return
	}
	helpers.WriteJSONError(w, status, code, err.Error())
}

// identity returns the authenticated caller or writes a 401.
func identity(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
	}
	return id, ok
}

// pathKey decodes the websafe key in path parameter name, writing a 400 when
// it is malformed or of another kind.
func pathKey(w http.ResponseWriter, r *http.Request, name string, kind domain.Kind) (*domain.Key, bool) {
	key, err := domain.ParseKeyOfKind(r.PathValue(name), kind)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return nil, false
	}
	return key, true
}

// ResultResponse reports the outcome of a state-changing call.
type ResultResponse struct {
	Result bool `json:"result"`
}

// AnnouncementResponse carries announcement text; empty means there is none.
type AnnouncementResponse struct {
	Text string `json:"text"`
}
