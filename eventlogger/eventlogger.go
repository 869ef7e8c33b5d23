package eventlogger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID        uuid.UUID         `json:"id,omitempty"`
	Type      string            `json:"event_type,omitempty"`
	Data      any               `json:"event_data,omitempty"`
	Metadata  map[string]string `json:"event_metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

type EventOption func(*Event)

func WithType(eventType string) EventOption {
	return func(e *Event) {
		e.Type = eventType
	}
}

func WithData(data any) EventOption {
	return func(e *Event) {
		e.Data = data
	}
}

func WithMetadata(metadata map[string]string) EventOption {
	return func(e *Event) {
		e.Metadata = metadata
	}
}

func NewEvent(opts ...EventOption) Event {
	e := Event{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		Metadata:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// EventLogger persists or forwards a single event.
type EventLogger interface {
	Save(ctx context.Context, e Event) error
}

type multiLogger []EventLogger

// Multi fans every event out to all loggers. A failing logger does not stop
// the others; their errors are joined.
func Multi(loggers ...EventLogger) EventLogger {
	return multiLogger(loggers)
}

func (m multiLogger) Save(ctx context.Context, e Event) error {
	var errs []error
	for _, l := range m {
		if err := l.Save(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
