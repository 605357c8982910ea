package services

import (
	"context"
	"fmt"
	"time"

	"conferencecentral/internal/domain"
)

type registrationService struct {
	transactor     domain.Transactor
	conferenceRepo domain.ConferenceRepository
	sessionRepo    domain.SessionRepository
	profileRepo    domain.ProfileRepository
	contextTimeout time.Duration
}

func NewRegistrationService(transactor domain.Transactor,
	conferenceRepo domain.ConferenceRepository,
	sessionRepo domain.SessionRepository,
	profileRepo domain.ProfileRepository,
	timeout time.Duration,
) domain.RegistrationService {
	return &registrationService{
		transactor:     transactor,
		conferenceRepo: conferenceRepo,
		sessionRepo:    sessionRepo,
		profileRepo:    profileRepo,
		contextTimeout: timeout,
	}
}

// Register and Unregister lock the conference row before the profile row
// so concurrent registrations for one conference serialize on it.
func (s *registrationService) Register(ctx context.Context, id domain.Identity, conferenceKey *domain.Key) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := ensureProfile(ctx, s.profileRepo, id); err != nil {
		return err
	}
	return s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		conf, err := s.conferenceRepo.GetByKeyForUpdate(ctx, conferenceKey)
		if err != nil {
			return fmt.Errorf("get conference: %w", err)
		}
		profile, err := s.profileRepo.GetForUpdate(ctx, id.UserID)
		if err != nil {
			return fmt.Errorf("get profile: %w", err)
		}
		if profile.IsAttending(conf.Key) {
			return domain.ErrAlreadyRegistered
		}
		if conf.SeatsAvailable <= 0 {
			return domain.ErrNoSeatsAvailable
		}
		profile.ConferenceKeysToAttend = append(profile.ConferenceKeysToAttend, conf.Key)
		conf.SeatsAvailable--
		if err := s.profileRepo.Update(ctx, profile); err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		if err := s.conferenceRepo.Update(ctx, conf); err != nil {
			return fmt.Errorf("update conference: %w", err)
		}
		return nil
	})
}

func (s *registrationService) Unregister(ctx context.Context, id domain.Identity, conferenceKey *domain.Key) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := ensureProfile(ctx, s.profileRepo, id); err != nil {
		return false, err
	}
	var removed bool
	err := s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		conf, err := s.conferenceRepo.GetByKeyForUpdate(ctx, conferenceKey)
		if err != nil {
			return fmt.Errorf("get conference: %w", err)
		}
		profile, err := s.profileRepo.GetForUpdate(ctx, id.UserID)
		if err != nil {
			return fmt.Errorf("get profile: %w", err)
		}
		if !profile.IsAttending(conf.Key) {
			return nil
		}
		profile.ConferenceKeysToAttend = domain.RemoveKey(profile.ConferenceKeysToAttend, conf.Key)
		// Capacity may have been lowered below the registered count.
		conf.SeatsAvailable = min(conf.SeatsAvailable+1, conf.MaxAttendees)
		if err := s.profileRepo.Update(ctx, profile); err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		if err := s.conferenceRepo.Update(ctx, conf); err != nil {
			return fmt.Errorf("update conference: %w", err)
		}
		removed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

func (s *registrationService) AddToWishlist(ctx context.Context, id domain.Identity, sessionKey *domain.Key) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := ensureProfile(ctx, s.profileRepo, id); err != nil {
		return err
	}
	if _, err := s.sessionRepo.GetByKey(ctx, sessionKey); err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	return s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		profile, err := s.profileRepo.GetForUpdate(ctx, id.UserID)
		if err != nil {
			return fmt.Errorf("get profile: %w", err)
		}
		if domain.ContainsKey(profile.SessionWishlist, sessionKey) {
			return domain.ErrAlreadyInWishlist
		}
		profile.SessionWishlist = append(profile.SessionWishlist, sessionKey)
		if err := s.profileRepo.Update(ctx, profile); err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		return nil
	})
}

func (s *registrationService) RemoveFromWishlist(ctx context.Context, id domain.Identity, sessionKey *domain.Key) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := ensureProfile(ctx, s.profileRepo, id); err != nil {
		return err
	}
	return s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		profile, err := s.profileRepo.GetForUpdate(ctx, id.UserID)
		if err != nil {
			return fmt.Errorf("get profile: %w", err)
		}
		if !domain.ContainsKey(profile.SessionWishlist, sessionKey) {
			return domain.ErrNotInWishlist
		}
		profile.SessionWishlist = domain.RemoveKey(profile.SessionWishlist, sessionKey)
		if err := s.profileRepo.Update(ctx, profile); err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		return nil
	})
}

func (s *registrationService) Wishlist(ctx context.Context, id domain.Identity) ([]*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	profile, err := ensureProfile(ctx, s.profileRepo, id)
	if err != nil {
		return nil, err
	}
	sessions, err := s.sessionRepo.ListByKeys(ctx, profile.SessionWishlist)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}
