package domain

import "context"

const (
	TaskSetFeaturedSpeaker    = "set_featured_speaker"
	TaskSendConfirmationEmail = "send_confirmation_email"
	TaskRefreshAnnouncement   = "refresh_announcement"
)

// Task is a unit of deferred work. Payload is encoded by the tasks package.
type Task struct {
	ID      string
	Name    string
	Payload []byte
	// Attempt counts previous failed deliveries, starting at 0.
	Attempt int
}

// TaskQueue accepts tasks for asynchronous execution.
type TaskQueue interface {
	Enqueue(ctx context.Context, t Task) error
}

// TaskHandler executes a task. A nil return acknowledges the task; any
// error asks the transport to retry it.
type TaskHandler interface {
	Handle(ctx context.Context, t Task) error
}

// TaskConsumer delivers queued tasks to a handler until ctx is done.
type TaskConsumer interface {
	Run(ctx context.Context, h TaskHandler) error
}

type FeaturedSpeakerPayload struct {
	SpeakerKey    string `msgpack:"speaker_key"`
	ConferenceKey string `msgpack:"conference_key"`
}

type ConfirmationEmailPayload struct {
	Email          string `msgpack:"email"`
	DisplayName    string `msgpack:"display_name"`
	ConferenceKey  string `msgpack:"conference_key"`
	ConferenceName string `msgpack:"conference_name"`
	City           string `msgpack:"city"`
	StartDate      string `msgpack:"start_date"`
	EndDate        string `msgpack:"end_date"`
	MaxAttendees   int    `msgpack:"max_attendees"`
}
