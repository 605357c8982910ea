package domain

import (
	"context"
	"strings"

	"conferencecentral/internal/query"
)

const DefaultSessionType = "session type"

var DefaultHighlights = []string{"Default", "Highlight"}

// Session is a talk or workshop within a conference. Its key is parented
// to the conference key.
type Session struct {
	Key           *Key             `json:"websafeKey"`
	ConferenceKey *Key             `json:"websafeConferenceKey"`
	Name          string           `json:"name"`
	Highlights    []string         `json:"highlights"`
	Speaker       string           `json:"speaker"`
	SpeakerKey    *Key             `json:"websafeSpeakerKey,omitempty"`
	Duration      *int             `json:"duration"`
	TypeOfSession string           `json:"typeOfSession"`
	Date          *query.Date      `json:"date"`
	StartTime     *query.TimeOfDay `json:"startTime"`
}

func (s *Session) ApplyDefaults() {
	if len(s.Highlights) == 0 {
		s.Highlights = append([]string(nil), DefaultHighlights...)
	}
	if strings.TrimSpace(s.TypeOfSession) == "" {
		s.TypeOfSession = DefaultSessionType
	}
}

func (s *Session) FieldValues(field string) []query.Value {
	switch field {
	case "highlights":
		return query.StringValues(s.Highlights)
	case "typeOfSession":
		if s.TypeOfSession != "" {
			return []query.Value{query.StringValue(s.TypeOfSession)}
		}
	case "date":
		if s.Date != nil {
			return []query.Value{query.DateValue(*s.Date)}
		}
	case "startTime":
		if s.StartTime != nil {
			return []query.Value{query.TimeValue(*s.StartTime)}
		}
	case "duration":
		if s.Duration != nil {
			return []query.Value{query.IntValue(int64(*s.Duration))}
		}
	}
	return nil
}

// SessionUpdate carries the fields an organizer may change. Nil fields
// are left unchanged; an empty Speaker removes the speaker.
type SessionUpdate struct {
	Name          *string
	Highlights    []string
	Speaker       *string
	Duration      *int
	TypeOfSession *string
	Date          *query.Date
	StartTime     *query.TimeOfDay
}

// SessionQuery is a filtered session search, optionally scoped to one conference.
type SessionQuery struct {
	ConferenceKey *Key
	Filters       []query.Spec
}

type SessionRepository interface {
	Create(ctx context.Context, s *Session) error
	GetByKey(ctx context.Context, key *Key) (*Session, error)
	Update(ctx context.Context, s *Session) error
	ListByKeys(ctx context.Context, keys []*Key) ([]*Session, error)
	// Query returns sessions matching every equality condition, ordered by
	// name. A nil conferenceKey searches all conferences.
	Query(ctx context.Context, conferenceKey *Key, equality []query.Condition) ([]*Session, error)
}

type SessionService interface {
	Create(ctx context.Context, id Identity, conferenceKey *Key, s *Session) (*Session, error)
	Update(ctx context.Context, id Identity, key *Key, upd SessionUpdate) (*Session, error)
	ListByConference(ctx context.Context, conferenceKey *Key) ([]*Session, error)
	ListByType(ctx context.Context, conferenceKey *Key, typeOfSession string) ([]*Session, error)
	Query(ctx context.Context, q SessionQuery) ([]*Session, error)
}
