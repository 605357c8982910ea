package domain

import (
	"context"
	"strings"
)

var (
	DefaultSpecialties = []string{"Default", "Specialty"}
	DefaultLanguages   = []string{"Default", "Language"}
)

const DefaultCountry = "Default Country"

// Speaker is a person presenting sessions. Speakers are root entities,
// unique by normalized name.
type Speaker struct {
	Key         *Key     `json:"websafeKey"`
	Name        string   `json:"name"`
	Specialties []string `json:"specialties"`
	City        string   `json:"city"`
	Country     string   `json:"country"`
	Languages   []string `json:"languages"`
	SessionKeys []*Key   `json:"sessionKeys"`
	Version     int      `json:"-"`
}

// NewSpeaker returns a speaker with a fresh key, default profile fields
// and the given sessions.
func NewSpeaker(name string, sessionKeys ...*Key) *Speaker {
	return &Speaker{
		Key:         AllocateKey(KindSpeaker, nil),
		Name:        strings.TrimSpace(name),
		Specialties: append([]string(nil), DefaultSpecialties...),
		City:        DefaultCity,
		Country:     DefaultCountry,
		Languages:   append([]string(nil), DefaultLanguages...),
		SessionKeys: sessionKeys,
		Version:     1,
	}
}

// NormalizeSpeakerName is the identity used to find an existing speaker.
func NormalizeSpeakerName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// SessionsIn returns the speaker's session keys that belong to conferenceKey.
func (s *Speaker) SessionsIn(conferenceKey *Key) []*Key {
	var out []*Key
	for _, k := range s.SessionKeys {
		if k.Parent.Equal(conferenceKey) {
			out = append(out, k)
		}
	}
	return out
}

type SpeakerRepository interface {
	// Create returns ErrDuplicate when a speaker with the same normalized name exists.
	Create(ctx context.Context, s *Speaker) error
	GetByKey(ctx context.Context, key *Key) (*Speaker, error)
	GetByName(ctx context.Context, name string) (*Speaker, error)
	// Update writes s only if its stored version still equals s.Version,
	// returning ErrVersionConflict otherwise. On success s.Version is bumped.
	Update(ctx context.Context, s *Speaker) error
}

type SpeakerService interface {
	// AttachSession finds or creates the speaker named name and adds sessionKey to its sessions.
	AttachSession(ctx context.Context, name string, sessionKey *Key) (*Speaker, error)
	DetachSession(ctx context.Context, speakerKey, sessionKey *Key) error
	// EvaluateFeaturedSpeaker publishes or clears the featured-speaker
	// announcement of conferenceKey for speakerKey.
	EvaluateFeaturedSpeaker(ctx context.Context, speakerKey, conferenceKey *Key) error
	GetFeaturedSpeaker(ctx context.Context, conferenceKey *Key) (string, error)
	Get(ctx context.Context, key *Key) (*Speaker, error)
	GetBySession(ctx context.Context, sessionKey *Key) (*Speaker, error)
	ListSessions(ctx context.Context, speakerKey *Key) ([]*Session, error)
}
