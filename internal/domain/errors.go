package domain

import (
	"errors"

	"conferencecentral/internal/query"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidFilter     = query.ErrInvalidFilter
	ErrAlreadyRegistered = errors.New("already registered for this conference")
	ErrNoSeatsAvailable  = errors.New("no seats available")
	ErrAlreadyInWishlist = errors.New("session already in wishlist")
	ErrNotInWishlist     = errors.New("session not in wishlist")
	// ErrDuplicate is returned by stores when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate")
	// ErrVersionConflict is returned when a conditional write lost a race.
	ErrVersionConflict = errors.New("version conflict")
)
