package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"conferencecentral/internal/domain"
)

type profileService struct {
	profileRepo    domain.ProfileRepository
	contextTimeout time.Duration
}

func NewProfileService(profileRepo domain.ProfileRepository, timeout time.Duration) domain.ProfileService {
	return &profileService{
		profileRepo:    profileRepo,
		contextTimeout: timeout,
	}
}

// ensureProfile returns the caller's profile, creating it on first use.
func ensureProfile(ctx context.Context, repo domain.ProfileRepository, id domain.Identity) (*domain.Profile, error) {
	if id.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	p, err := repo.Get(ctx, id.UserID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if err := repo.CreateIfMissing(ctx, domain.NewProfile(id)); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	p, err = repo.Get(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (s *profileService) Get(ctx context.Context, id domain.Identity) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return ensureProfile(ctx, s.profileRepo, id)
}

func (s *profileService) Save(ctx context.Context, id domain.Identity, upd domain.ProfileUpdate) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	p, err := ensureProfile(ctx, s.profileRepo, id)
	if err != nil {
		return nil, err
	}
	if upd.DisplayName != nil {
		name := strings.TrimSpace(*upd.DisplayName)
		if name == "" {
			return nil, fmt.Errorf("%w: display name must not be empty", domain.ErrInvalidInput)
		}
		p.DisplayName = name
	}
	if upd.TeeShirtSize != nil {
		size, err := domain.ParseTeeShirtSize(*upd.TeeShirtSize)
		if err != nil {
			return nil, err
		}
		p.TeeShirtSize = size
	}
	if err := s.profileRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return p, nil
}
