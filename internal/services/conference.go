package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"conferencecentral/internal/domain"
	"conferencecentral/internal/query"
)

type conferenceService struct {
	conferenceRepo domain.ConferenceRepository
	profileRepo    domain.ProfileRepository
	transactor     domain.Transactor
	queue          domain.TaskQueue
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewConferenceService(conferenceRepo domain.ConferenceRepository,
	profileRepo domain.ProfileRepository,
	transactor domain.Transactor,
	queue domain.TaskQueue,
	logger *slog.Logger,
	timeout time.Duration,
) domain.ConferenceService {
	return &conferenceService{
		conferenceRepo: conferenceRepo,
		profileRepo:    profileRepo,
		transactor:     transactor,
		queue:          queue,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func validateDates(start, end *query.Date) error {
	if start != nil && end != nil && end.Compare(*start) < 0 {
		return fmt.Errorf("%w: end date is before start date", domain.ErrInvalidInput)
	}
	return nil
}

func (s *conferenceService) Create(ctx context.Context, id domain.Identity, c *domain.Conference) (*domain.Conference, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return nil, fmt.Errorf("%w: conference name is required", domain.ErrInvalidInput)
	}
	if c.MaxAttendees < 0 {
		return nil, fmt.Errorf("%w: maxAttendees must not be negative", domain.ErrInvalidInput)
	}
	if err := validateDates(c.StartDate, c.EndDate); err != nil {
		return nil, err
	}
	profile, err := ensureProfile(ctx, s.profileRepo, id)
	if err != nil {
		return nil, err
	}

	c.Key = domain.AllocateKey(domain.KindConference, profile.Key())
	c.OrganizerUserID = profile.UserID
	c.OrganizerDisplayName = profile.DisplayName
	c.ApplyDefaults()
	c.SeatsAvailable = c.MaxAttendees

	if err := s.conferenceRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create conference: %w", err)
	}

	payload := domain.ConfirmationEmailPayload{
		Email:          profile.MainEmail,
		DisplayName:    profile.DisplayName,
		ConferenceKey:  c.Key.Encode(),
		ConferenceName: c.Name,
		City:           c.City,
		MaxAttendees:   c.MaxAttendees,
	}
	if c.StartDate != nil {
		payload.StartDate = c.StartDate.String()
	}
	if c.EndDate != nil {
		payload.EndDate = c.EndDate.String()
	}
	if payload.Email != "" {
		enqueue(ctx, s.queue, s.logger, domain.TaskSendConfirmationEmail, payload)
	}
	return c, nil
}

func (s *conferenceService) Get(ctx context.Context, key *domain.Key) (*domain.Conference, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	c, err := s.conferenceRepo.GetByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get conference: %w", err)
	}
	organizer, err := s.profileRepo.Get(ctx, c.OrganizerUserID)
	switch {
	case err == nil:
		c.OrganizerDisplayName = organizer.DisplayName
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("get organizer: %w", err)
	}
	return c, nil
}

func (s *conferenceService) Update(ctx context.Context, id domain.Identity, key *domain.Key, upd domain.ConferenceUpdate) (*domain.Conference, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var updated *domain.Conference
	err := s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.conferenceRepo.GetByKeyForUpdate(ctx, key)
		if err != nil {
			return fmt.Errorf("get conference: %w", err)
		}
		if c.OrganizerUserID != id.UserID {
			return domain.ErrForbidden
		}
		if upd.Name != nil {
			name := strings.TrimSpace(*upd.Name)
			if name == "" {
				return fmt.Errorf("%w: conference name is required", domain.ErrInvalidInput)
			}
			c.Name = name
		}
		if upd.Description != nil {
			c.Description = *upd.Description
		}
		if upd.Topics != nil {
			c.Topics = upd.Topics
		}
		if upd.City != nil {
			c.City = *upd.City
		}
		if upd.StartDate != nil {
			c.StartDate = upd.StartDate
		}
		if upd.EndDate != nil {
			c.EndDate = upd.EndDate
		}
		if err := validateDates(c.StartDate, c.EndDate); err != nil {
			return err
		}
		if upd.MaxAttendees != nil {
			if *upd.MaxAttendees < 0 {
				return fmt.Errorf("%w: maxAttendees must not be negative", domain.ErrInvalidInput)
			}
			// Seats already taken stay taken.
			c.SeatsAvailable = max(c.SeatsAvailable+*upd.MaxAttendees-c.MaxAttendees, 0)
			c.MaxAttendees = *upd.MaxAttendees
		}
		c.ApplyDefaults()
		if err := s.conferenceRepo.Update(ctx, c); err != nil {
			return fmt.Errorf("update conference: %w", err)
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *conferenceService) ListCreated(ctx context.Context, id domain.Identity) ([]*domain.Conference, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	profile, err := ensureProfile(ctx, s.profileRepo, id)
	if err != nil {
		return nil, err
	}
	confs, err := s.conferenceRepo.ListByOrganizer(ctx, profile.UserID)
	if err != nil {
		return nil, fmt.Errorf("list conferences: %w", err)
	}
	for _, c := range confs {
		c.OrganizerDisplayName = profile.DisplayName
	}
	return confs, nil
}

func (s *conferenceService) ListAttending(ctx context.Context, id domain.Identity) ([]*domain.Conference, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	profile, err := ensureProfile(ctx, s.profileRepo, id)
	if err != nil {
		return nil, err
	}
	confs, err := s.conferenceRepo.ListByKeys(ctx, profile.ConferenceKeysToAttend)
	if err != nil {
		return nil, fmt.Errorf("list conferences: %w", err)
	}
	return confs, nil
}

func (s *conferenceService) Query(ctx context.Context, filters []query.Spec) ([]*domain.Conference, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	plan, err := query.Parse(query.ConferenceFields, filters, query.Options{SingleInequalityField: true})
	if err != nil {
		return nil, err
	}
	confs, err := s.conferenceRepo.Query(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("query conferences: %w", err)
	}
	return confs, nil
}
