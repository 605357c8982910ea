package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"conferencecentral/internal/domain"
)

type announcementService struct {
	conferenceRepo domain.ConferenceRepository
	cache          domain.Cache
	contextTimeout time.Duration
}

func NewAnnouncementService(conferenceRepo domain.ConferenceRepository, cache domain.Cache, timeout time.Duration) domain.AnnouncementService {
	return &announcementService{
		conferenceRepo: conferenceRepo,
		cache:          cache,
		contextTimeout: timeout,
	}
}

func (s *announcementService) Refresh(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	confs, err := s.conferenceRepo.ListNearlySoldOut(ctx, domain.SoldOutThreshold)
	if err != nil {
		return "", fmt.Errorf("list nearly sold out: %w", err)
	}
	if len(confs) == 0 {
		if err := s.cache.Delete(ctx, domain.SoldOutAnnouncementKey); err != nil {
			return "", fmt.Errorf("clear announcement: %w", err)
		}
		return "", nil
	}
	names := make([]string, 0, len(confs))
	for _, c := range confs {
		names = append(names, c.Name)
	}
	text := fmt.Sprintf(domain.SoldOutTemplate, strings.Join(names, ", "))
	if err := s.cache.Set(ctx, domain.SoldOutAnnouncementKey, text); err != nil {
		return "", fmt.Errorf("set announcement: %w", err)
	}
	return text, nil
}

func (s *announcementService) Get(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	text, _, err := s.cache.Get(ctx, domain.SoldOutAnnouncementKey)
	if err != nil {
		return "", fmt.Errorf("get announcement: %w", err)
	}
	return text, nil
}
