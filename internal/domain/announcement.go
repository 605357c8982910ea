package domain

import "context"

const (
	// SoldOutAnnouncementKey is the cache key of the sold-out announcement.
	SoldOutAnnouncementKey = "RECENT_ANNOUNCEMENTS"
	// SoldOutThreshold is the seat count at or below which a conference is nearly sold out.
	SoldOutThreshold = 5

	SoldOutTemplate         = "Last chance to attend! The following conferences are nearly sold out: %s"
	FeaturedSpeakerTemplate = "You should not miss the following sessions by our featured speaker %s: %s"
)

// FeaturedSpeakerCacheKey is the cache key of a conference's featured-speaker announcement.
func FeaturedSpeakerCacheKey(conferenceKey *Key) string {
	return conferenceKey.Encode()
}

// Cache is a transient string store. Entries may disappear at any time.
type Cache interface {
	Set(ctx context.Context, key, value string) error
	// Get reports false when key is absent.
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, key string) error
}

type AnnouncementService interface {
	// Refresh recomputes the sold-out announcement and returns it ("" when cleared).
	Refresh(ctx context.Context) (string, error)
	Get(ctx context.Context) (string, error)
}
