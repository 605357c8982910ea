package domain

import (
	"context"
	"strings"

	"conferencecentral/internal/query"
)

const DefaultCity = "Default City"

var DefaultTopics = []string{"Default", "Topic"}

// Conference is an event organized by a user. Its key is parented to
// the organizer's profile key.
type Conference struct {
	Key                  *Key        `json:"websafeKey"`
	OrganizerUserID      string      `json:"organizerUserId"`
	OrganizerDisplayName string      `json:"organizerDisplayName,omitempty"`
	Name                 string      `json:"name"`
	Description          string      `json:"description"`
	Topics               []string    `json:"topics"`
	City                 string      `json:"city"`
	StartDate            *query.Date `json:"startDate"`
	EndDate              *query.Date `json:"endDate"`
	Month                int         `json:"month"`
	MaxAttendees         int         `json:"maxAttendees"`
	SeatsAvailable       int         `json:"seatsAvailable"`
}

// ApplyDefaults fills unset optional fields and derives Month.
func (c *Conference) ApplyDefaults() {
	if strings.TrimSpace(c.City) == "" {
		c.City = DefaultCity
	}
	if len(c.Topics) == 0 {
		c.Topics = append([]string(nil), DefaultTopics...)
	}
	c.DeriveMonth()
}

// DeriveMonth sets Month from StartDate, 0 when there is none.
func (c *Conference) DeriveMonth() {
	if c.StartDate == nil {
		c.Month = 0
		return
	}
	c.Month = c.StartDate.Month()
}

func (c *Conference) FieldValues(field string) []query.Value {
	switch field {
	case "city":
		if c.City != "" {
			return []query.Value{query.StringValue(c.City)}
		}
	case "topics":
		return query.StringValues(c.Topics)
	case "month":
		return []query.Value{query.IntValue(int64(c.Month))}
	case "maxAttendees":
		return []query.Value{query.IntValue(int64(c.MaxAttendees))}
	}
	return nil
}

// ConferenceUpdate carries the fields an organizer may change. Nil
// fields are left unchanged.
type ConferenceUpdate struct {
	Name         *string
	Description  *string
	Topics       []string
	City         *string
	StartDate    *query.Date
	EndDate      *query.Date
	MaxAttendees *int
}

type ConferenceRepository interface {
	Create(ctx context.Context, c *Conference) error
	GetByKey(ctx context.Context, key *Key) (*Conference, error)
	// GetByKeyForUpdate locks the conference row for the surrounding transaction.
	GetByKeyForUpdate(ctx context.Context, key *Key) (*Conference, error)
	Update(ctx context.Context, c *Conference) error
	ListByOrganizer(ctx context.Context, userID string) ([]*Conference, error)
	ListByKeys(ctx context.Context, keys []*Key) ([]*Conference, error)
	Query(ctx context.Context, plan *query.Plan) ([]*Conference, error)
	// ListNearlySoldOut returns conferences with 0 < seatsAvailable <= threshold.
	ListNearlySoldOut(ctx context.Context, threshold int) ([]*Conference, error)
}

type ConferenceService interface {
	Create(ctx context.Context, id Identity, c *Conference) (*Conference, error)
	Get(ctx context.Context, key *Key) (*Conference, error)
	Update(ctx context.Context, id Identity, key *Key, upd ConferenceUpdate) (*Conference, error)
	ListCreated(ctx context.Context, id Identity) ([]*Conference, error)
	ListAttending(ctx context.Context, id Identity) ([]*Conference, error)
	Query(ctx context.Context, filters []query.Spec) ([]*Conference, error)
}
