// Package tasks encodes deferred work and routes queued tasks to their
// handlers. Transports in internal/adapters/queue move tasks between
// producers and a Dispatcher.
package tasks

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"conferencecentral/internal/domain"
)

var (
	// ErrMalformedTask marks a payload that can never be decoded.
	ErrMalformedTask = errors.New("malformed task payload")
	// ErrUnknownTask marks a task no handler is registered for.
	ErrUnknownTask = errors.New("unknown task")
)

// NewTask encodes payload with msgpack into a task named name.
func NewTask(name string, payload any) (domain.Task, error) {
	b, err := msgpack.Marshal(payload)
	if err != nil {
		return domain.Task{}, fmt.Errorf("encode %s payload: %w", name, err)
	}
	return domain.Task{ID: uuid.NewString(), Name: name, Payload: b}, nil
}

// Decode unpacks the task payload into v.
func Decode(t domain.Task, v any) error {
	if err := msgpack.Unmarshal(t.Payload, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedTask, t.Name, err)
	}
	return nil
}

// IsPermanent reports whether retrying a task that failed with err cannot succeed.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrMalformedTask) ||
		errors.Is(err, ErrUnknownTask) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrInvalidInput)
}
