package eventlogger

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const saveTimeout = 5 * time.Second

// Worker saves events in the background so request handlers never wait on
// the event store. Events are dropped with a warning when the buffer is full.
type Worker struct {
	eventCh chan Event
	logger  EventLogger
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewWorker(logger EventLogger, bufferSize int) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		eventCh: make(chan Event, bufferSize),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// save is never bound to the worker's own context: an event that was
// accepted must still be written while the worker shuts down.
func (w *Worker) save(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := w.logger.Save(ctx, event); err != nil {
		slog.Error("failed to save event", "error", err, "event_type", event.Type)
	}
}

func (w *Worker) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-w.ctx.Done():
				slog.Info("draining events before shutdown", "remaining_events", len(w.eventCh))
				for {
					select {
					case event := <-w.eventCh:
						w.save(event)
					default:
						return
					}
				}
			case event := <-w.eventCh:
				w.save(event)
			}
		}
	}()
}

func (w *Worker) Log(event Event) {
	select {
	case w.eventCh <- event:
	default:
		slog.Warn("event channel full, dropping event", "event_type", event.Type)
	}
}

// Shutdown stops the worker after saving whatever is still buffered.
func (w *Worker) Shutdown() {
	w.cancel()
	w.wg.Wait()
}
