package tasks

import (
	"context"

	"conferencecentral/internal/domain"
)

// FeaturedSpeakerHandler recomputes the featured speaker of a conference.
func FeaturedSpeakerHandler(speakers domain.SpeakerService) HandlerFunc {
	return func(ctx context.Context, t domain.Task) error {
		var p domain.FeaturedSpeakerPayload
		if err := Decode(t, &p); err != nil {
			return err
		}
		speakerKey, err := domain.ParseKeyOfKind(p.SpeakerKey, domain.KindSpeaker)
		if err != nil {
			return err
		}
		conferenceKey, err := domain.ParseKeyOfKind(p.ConferenceKey, domain.KindConference)
		if err != nil {
			return err
		}
		return speakers.EvaluateFeaturedSpeaker(ctx, speakerKey, conferenceKey)
	}
}

// ConfirmationEmailHandler mails the organizer of a newly created conference.
func ConfirmationEmailHandler(emails domain.EmailService) HandlerFunc {
	return func(ctx context.Context, t domain.Task) error {
		var p domain.ConfirmationEmailPayload
		if err := Decode(t, &p); err != nil {
			return err
		}
		return emails.SendConferenceConfirmation(ctx, &domain.ConferenceConfirmationEmailData{
			Email:          p.Email,
			DisplayName:    p.DisplayName,
			ConferenceName: p.ConferenceName,
			City:           p.City,
			StartDate:      p.StartDate,
			EndDate:        p.EndDate,
			MaxAttendees:   p.MaxAttendees,
		})
	}
}

// AnnouncementHandler recomputes the sold-out announcement.
func AnnouncementHandler(announcements domain.AnnouncementService) HandlerFunc {
	return func(ctx context.Context, _ domain.Task) error {
		_, err := announcements.Refresh(ctx)
		return err
	}
}

// RegisterHandlers wires every task this service produces.
func RegisterHandlers(d *Dispatcher, speakers domain.SpeakerService, emails domain.EmailService, announcements domain.AnnouncementService) {
	d.Register(domain.TaskSetFeaturedSpeaker, FeaturedSpeakerHandler(speakers))
	d.Register(domain.TaskSendConfirmationEmail, ConfirmationEmailHandler(emails))
	d.Register(domain.TaskRefreshAnnouncement, AnnouncementHandler(announcements))
}
