package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"conferencecentral/internal/domain"
	"conferencecentral/internal/query"
)

type sessionService struct {
	sessionRepo    domain.SessionRepository
	conferenceRepo domain.ConferenceRepository
	speakers       domain.SpeakerService
	queue          domain.TaskQueue
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewSessionService(sessionRepo domain.SessionRepository,
	conferenceRepo domain.ConferenceRepository,
	speakers domain.SpeakerService,
	queue domain.TaskQueue,
	logger *slog.Logger,
	timeout time.Duration,
) domain.SessionService {
	return &sessionService{
		sessionRepo:    sessionRepo,
		conferenceRepo: conferenceRepo,
		speakers:       speakers,
		queue:          queue,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *sessionService) ownedConference(ctx context.Context, id domain.Identity, key *domain.Key) (*domain.Conference, error) {
	conf, err := s.conferenceRepo.GetByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get conference: %w", err)
	}
	if conf.OrganizerUserID != id.UserID {
		return nil, domain.ErrForbidden
	}
	return conf, nil
}

func (s *sessionService) scheduleFeatured(ctx context.Context, speakerKey, conferenceKey *domain.Key) {
	enqueue(ctx, s.queue, s.logger, domain.TaskSetFeaturedSpeaker, domain.FeaturedSpeakerPayload{
		SpeakerKey:    speakerKey.Encode(),
		ConferenceKey: conferenceKey.Encode(),
	})
}

func validateSession(sess *domain.Session) error {
	if strings.TrimSpace(sess.Name) == "" {
		return fmt.Errorf("%w: session name is required", domain.ErrInvalidInput)
	}
	if sess.Duration != nil && *sess.Duration < 0 {
		return fmt.Errorf("%w: duration must not be negative", domain.ErrInvalidInput)
	}
	return nil
}

func (s *sessionService) Create(ctx context.Context, id domain.Identity, conferenceKey *domain.Key, sess *domain.Session) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	conf, err := s.ownedConference(ctx, id, conferenceKey)
	if err != nil {
		return nil, err
	}
	sess.Name = strings.TrimSpace(sess.Name)
	if err := validateSession(sess); err != nil {
		return nil, err
	}

	sess.Key = domain.AllocateKey(domain.KindSession, conf.Key)
	sess.ConferenceKey = conf.Key
	sess.ApplyDefaults()
	if sess.Date == nil {
		sess.Date = conf.StartDate
	}
	sess.Speaker = strings.TrimSpace(sess.Speaker)
	sess.SpeakerKey = nil
	if sess.Speaker != "" {
		sp, err := s.speakers.AttachSession(ctx, sess.Speaker, sess.Key)
		if err != nil {
			return nil, fmt.Errorf("attach speaker: %w", err)
		}
		sess.SpeakerKey = sp.Key
	}

	if err := s.sessionRepo.Create(ctx, sess); err != nil {
		if sess.SpeakerKey != nil {
			if derr := s.speakers.DetachSession(ctx, sess.SpeakerKey, sess.Key); derr != nil {
				s.logger.With("err", derr).ErrorContext(ctx, "detach speaker after failed session create", "session", sess.Key.Encode())
			}
		}
		return nil, fmt.Errorf("create session: %w", err)
	}
	if sess.SpeakerKey != nil {
		s.scheduleFeatured(ctx, sess.SpeakerKey, conf.Key)
	}
	return sess, nil
}

func (s *sessionService) Update(ctx context.Context, id domain.Identity, key *domain.Key, upd domain.SessionUpdate) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	sess, err := s.sessionRepo.GetByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if _, err := s.ownedConference(ctx, id, sess.ConferenceKey); err != nil {
		return nil, err
	}

	if upd.Name != nil {
		sess.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Highlights != nil {
		sess.Highlights = upd.Highlights
	}
	if upd.Duration != nil {
		sess.Duration = upd.Duration
	}
	if upd.TypeOfSession != nil {
		sess.TypeOfSession = *upd.TypeOfSession
	}
	if upd.Date != nil {
		sess.Date = upd.Date
	}
	if upd.StartTime != nil {
		sess.StartTime = upd.StartTime
	}
	if err := validateSession(sess); err != nil {
		return nil, err
	}
	sess.ApplyDefaults()

	var formerSpeaker, attached *domain.Key
	if upd.Speaker != nil {
		name := strings.TrimSpace(*upd.Speaker)
		if domain.NormalizeSpeakerName(name) != domain.NormalizeSpeakerName(sess.Speaker) {
			formerSpeaker = sess.SpeakerKey
			sess.SpeakerKey = nil
			if name != "" {
				sp, err := s.speakers.AttachSession(ctx, name, sess.Key)
				if err != nil {
					return nil, fmt.Errorf("attach speaker: %w", err)
				}
				sess.SpeakerKey = sp.Key
				attached = sp.Key
			}
		}
		sess.Speaker = name
	}

	if err := s.sessionRepo.Update(ctx, sess); err != nil {
		if attached != nil {
			if derr := s.speakers.DetachSession(ctx, attached, sess.Key); derr != nil {
				s.logger.With("err", derr).ErrorContext(ctx, "detach speaker after failed session update", "session", sess.Key.Encode())
			}
		}
		return nil, fmt.Errorf("update session: %w", err)
	}
	if formerSpeaker != nil {
		if err := s.speakers.DetachSession(ctx, formerSpeaker, sess.Key); err != nil {
			s.logger.With("err", err).ErrorContext(ctx, "detach former speaker", "session", sess.Key.Encode())
		}
		s.scheduleFeatured(ctx, formerSpeaker, sess.ConferenceKey)
	}
	if sess.SpeakerKey != nil {
		s.scheduleFeatured(ctx, sess.SpeakerKey, sess.ConferenceKey)
	}
	return sess, nil
}

func (s *sessionService) list(ctx context.Context, conferenceKey *domain.Key, filters []query.Spec) ([]*domain.Session, error) {
	if conferenceKey != nil {
		if _, err := s.conferenceRepo.GetByKey(ctx, conferenceKey); err != nil {
			return nil, fmt.Errorf("get conference: %w", err)
		}
	}
	plan, err := query.Parse(query.SessionFields, filters, query.Options{})
	if err != nil {
		return nil, err
	}
	candidates, err := s.sessionRepo.Query(ctx, conferenceKey, plan.Equality)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	return query.ApplyAll(candidates, plan.Inequality), nil
}

func (s *sessionService) ListByConference(ctx context.Context, conferenceKey *domain.Key) ([]*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.list(ctx, conferenceKey, nil)
}

func (s *sessionService) ListByType(ctx context.Context, conferenceKey *domain.Key, typeOfSession string) ([]*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.list(ctx, conferenceKey, []query.Spec{{Field: "TYPE", Operator: "EQ", Value: typeOfSession}})
}

// Query pushes equality filters to the store and applies every inequality
// filter in memory, so any number of inequality fields may be combined.
func (s *sessionService) Query(ctx context.Context, q domain.SessionQuery) ([]*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.list(ctx, q.ConferenceKey, q.Filters)
}
