package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"conferencecentral/internal/domain"
)

// maxSpeakerWriteAttempts bounds the optimistic retry loop on speaker writes.
const maxSpeakerWriteAttempts = 5

// featuredEntry is the cached form of a featured-speaker announcement.
type featuredEntry struct {
	SpeakerKey string `json:"speaker_key"`
	Text       string `json:"text"`
}

type speakerService struct {
	speakerRepo    domain.SpeakerRepository
	sessionRepo    domain.SessionRepository
	cache          domain.Cache
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewSpeakerService(speakerRepo domain.SpeakerRepository,
	sessionRepo domain.SessionRepository,
	cache domain.Cache,
	logger *slog.Logger,
	timeout time.Duration,
) domain.SpeakerService {
	return &speakerService{
		speakerRepo:    speakerRepo,
		sessionRepo:    sessionRepo,
		cache:          cache,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *speakerService) AttachSession(ctx context.Context, name string, sessionKey *domain.Key) (*domain.Speaker, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: speaker name is required", domain.ErrInvalidInput)
	}
	for attempt := 0; attempt < maxSpeakerWriteAttempts; attempt++ {
		sp, err := s.speakerRepo.GetByName(ctx, name)
		if errors.Is(err, domain.ErrNotFound) {
			sp = domain.NewSpeaker(name, sessionKey)
			err = s.speakerRepo.Create(ctx, sp)
			if errors.Is(err, domain.ErrDuplicate) {
				// Created concurrently; append to that one instead.
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("create speaker: %w", err)
			}
			return sp, nil
		}
		if err != nil {
			return nil, fmt.Errorf("get speaker: %w", err)
		}
		if domain.ContainsKey(sp.SessionKeys, sessionKey) {
			return sp, nil
		}
		sp.SessionKeys = append(sp.SessionKeys, sessionKey)
		err = s.speakerRepo.Update(ctx, sp)
		if errors.Is(err, domain.ErrVersionConflict) {
			s.logger.DebugContext(ctx, "speaker write conflict, retrying", "speaker", name, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("update speaker: %w", err)
		}
		return sp, nil
	}
	return nil, fmt.Errorf("attach session to speaker %q: %w", name, domain.ErrVersionConflict)
}

func (s *speakerService) DetachSession(ctx context.Context, speakerKey, sessionKey *domain.Key) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	for attempt := 0; attempt < maxSpeakerWriteAttempts; attempt++ {
		sp, err := s.speakerRepo.GetByKey(ctx, speakerKey)
		if err != nil {
			return fmt.Errorf("get speaker: %w", err)
		}
		if !domain.ContainsKey(sp.SessionKeys, sessionKey) {
			return nil
		}
		sp.SessionKeys = domain.RemoveKey(sp.SessionKeys, sessionKey)
		err = s.speakerRepo.Update(ctx, sp)
		if errors.Is(err, domain.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return fmt.Errorf("update speaker: %w", err)
		}
		return nil
	}
	return fmt.Errorf("detach session from speaker: %w", domain.ErrVersionConflict)
}

func (s *speakerService) EvaluateFeaturedSpeaker(ctx context.Context, speakerKey, conferenceKey *domain.Key) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	sp, err := s.speakerRepo.GetByKey(ctx, speakerKey)
	if err != nil {
		return fmt.Errorf("get speaker: %w", err)
	}
	cacheKey := domain.FeaturedSpeakerCacheKey(conferenceKey)

	keys := sp.SessionsIn(conferenceKey)
	var names []string
	if len(keys) > 1 {
		sessions, err := s.sessionRepo.ListByKeys(ctx, keys)
		if err != nil {
			return fmt.Errorf("list speaker sessions: %w", err)
		}
		byKey := make(map[string]*domain.Session, len(sessions))
		for _, sess := range sessions {
			byKey[sess.Key.Encode()] = sess
		}
		// Keep the order in which sessions were attached.
		for _, k := range keys {
			if sess, ok := byKey[k.Encode()]; ok {
				names = append(names, sess.Name)
			}
		}
	}

	if len(names) > 1 {
		text := fmt.Sprintf(domain.FeaturedSpeakerTemplate, sp.Name, strings.Join(names, ", "))
		b, err := json.Marshal(featuredEntry{SpeakerKey: sp.Key.Encode(), Text: text})
		if err != nil {
			return err
		}
		if err := s.cache.Set(ctx, cacheKey, string(b)); err != nil {
			return fmt.Errorf("set featured speaker: %w", err)
		}
		return nil
	}

	// Below the threshold: clear the announcement only if this speaker owns it.
	raw, ok, err := s.cache.Get(ctx, cacheKey)
	if err != nil {
		return fmt.Errorf("get featured speaker: %w", err)
	}
	if !ok {
		return nil
	}
	var cur featuredEntry
	if json.Unmarshal([]byte(raw), &cur) == nil && cur.SpeakerKey == sp.Key.Encode() {
		if err := s.cache.Delete(ctx, cacheKey); err != nil {
			return fmt.Errorf("clear featured speaker: %w", err)
		}
	}
	return nil
}

func (s *speakerService) GetFeaturedSpeaker(ctx context.Context, conferenceKey *domain.Key) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	raw, ok, err := s.cache.Get(ctx, domain.FeaturedSpeakerCacheKey(conferenceKey))
	if err != nil {
		return "", fmt.Errorf("get featured speaker: %w", err)
	}
	if !ok {
		return "", nil
	}
	var entry featuredEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return raw, nil
	}
	return entry.Text, nil
}

func (s *speakerService) Get(ctx context.Context, key *domain.Key) (*domain.Speaker, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	sp, err := s.speakerRepo.GetByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get speaker: %w", err)
	}
	return sp, nil
}

func (s *speakerService) GetBySession(ctx context.Context, sessionKey *domain.Key) (*domain.Speaker, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	sess, err := s.sessionRepo.GetByKey(ctx, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess.SpeakerKey == nil {
		return nil, fmt.Errorf("session has no speaker: %w", domain.ErrNotFound)
	}
	sp, err := s.speakerRepo.GetByKey(ctx, sess.SpeakerKey)
	if err != nil {
		return nil, fmt.Errorf("get speaker: %w", err)
	}
	return sp, nil
}

func (s *speakerService) ListSessions(ctx context.Context, speakerKey *domain.Key) ([]*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	sp, err := s.speakerRepo.GetByKey(ctx, speakerKey)
	if err != nil {
		return nil, fmt.Errorf("get speaker: %w", err)
	}
	sessions, err := s.sessionRepo.ListByKeys(ctx, sp.SessionKeys)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}
