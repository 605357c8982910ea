package domain

import (
	"context"
	"fmt"
	"strings"
)

type TeeShirtSize string

const (
	TeeShirtNotSpecified TeeShirtSize = "NOT_SPECIFIED"
	TeeShirtXSM          TeeShirtSize = "XS_M"
	TeeShirtXSW          TeeShirtSize = "XS_W"
	TeeShirtSM           TeeShirtSize = "S_M"
	TeeShirtSW           TeeShirtSize = "S_W"
	TeeShirtMM           TeeShirtSize = "M_M"
	TeeShirtMW           TeeShirtSize = "M_W"
	TeeShirtLM           TeeShirtSize = "L_M"
	TeeShirtLW           TeeShirtSize = "L_W"
	TeeShirtXLM          TeeShirtSize = "XL_M"
	TeeShirtXLW          TeeShirtSize = "XL_W"
	TeeShirtXXLM         TeeShirtSize = "XXL_M"
	TeeShirtXXLW         TeeShirtSize = "XXL_W"
	TeeShirtXXXLM        TeeShirtSize = "XXXL_M"
	TeeShirtXXXLW        TeeShirtSize = "XXXL_W"
)

var teeShirtSizes = map[TeeShirtSize]struct{}{
	TeeShirtNotSpecified: {}, TeeShirtXSM: {}, TeeShirtXSW: {}, TeeShirtSM: {}, TeeShirtSW: {},
	TeeShirtMM: {}, TeeShirtMW: {}, TeeShirtLM: {}, TeeShirtLW: {}, TeeShirtXLM: {}, TeeShirtXLW: {},
	TeeShirtXXLM: {}, TeeShirtXXLW: {}, TeeShirtXXXLM: {}, TeeShirtXXXLW: {},
}

// ParseTeeShirtSize validates s against the known sizes.
func ParseTeeShirtSize(s string) (TeeShirtSize, error) {
	size := TeeShirtSize(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := teeShirtSizes[size]; !ok {
		return "", fmt.Errorf("%w: unknown tee shirt size %q", ErrInvalidInput, s)
	}
	return size, nil
}

// Profile is the per-user record holding registrations and the session wishlist.
type Profile struct {
	UserID                 string       `json:"userId"`
	DisplayName            string       `json:"displayName"`
	MainEmail              string       `json:"mainEmail"`
	TeeShirtSize           TeeShirtSize `json:"teeShirtSize"`
	ConferenceKeysToAttend []*Key       `json:"conferenceKeysToAttend"`
	SessionWishlist        []*Key       `json:"sessionKeysWishlist"`
}

// NewProfile returns the profile created on a user's first request.
func NewProfile(id Identity) *Profile {
	return &Profile{
		UserID:                 id.UserID,
		DisplayName:            id.Name(),
		MainEmail:              id.Email,
		TeeShirtSize:           TeeShirtNotSpecified,
		ConferenceKeysToAttend: []*Key{},
		SessionWishlist:        []*Key{},
	}
}

func (p *Profile) Key() *Key { return ProfileKey(p.UserID) }

func (p *Profile) IsAttending(conferenceKey *Key) bool {
	return ContainsKey(p.ConferenceKeysToAttend, conferenceKey)
}

// ProfileUpdate carries user-editable profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	DisplayName  *string
	TeeShirtSize *string
}

type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*Profile, error)
	// GetForUpdate locks the profile row for the surrounding transaction.
	GetForUpdate(ctx context.Context, userID string) (*Profile, error)
	// CreateIfMissing inserts p unless a profile for p.UserID exists.
	CreateIfMissing(ctx context.Context, p *Profile) error
	Update(ctx context.Context, p *Profile) error
}

type ProfileService interface {
	Get(ctx context.Context, id Identity) (*Profile, error)
	Save(ctx context.Context, id Identity, upd ProfileUpdate) (*Profile, error)
}
