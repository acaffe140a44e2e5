package managers

import (
	"context"
	"time"

	"github.com/publora/publora/pkg/domain"

	"github.com/rs/zerolog/log"
)

// TelemetryPublisher is a fire-and-forget event sink. Events are handed to a
// buffered channel and written out by a single worker; when the buffer is
// full the event is dropped rather than blocking the caller.
type TelemetryPublisher struct {
	events  chan domain.Event
	done    chan struct{}
	stopped chan struct{}
	sink    func(domain.Event)
}

var _ domain.EventPublisher = (*TelemetryPublisher)(nil)

func NewTelemetryPublisher() *TelemetryPublisher {
	return newTelemetryPublisher(logEvent)
}

func newTelemetryPublisher(sink func(domain.Event)) *TelemetryPublisher {
	p := &TelemetryPublisher{
		events:  make(chan domain.Event, 256),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		sink:    sink,
	}

	go p.run()

	return p
}

func (p *TelemetryPublisher) PublishEvent(ctx context.Context, event domain.Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	select {
	case p.events <- event:
	default:
		log.Debug().Str("event_type", string(event.Type)).Msg("Telemetry buffer full, dropping event")
	}

	return nil
}

func (p *TelemetryPublisher) run() {
	for {
		select {
		case event := <-p.events:
			p.sink(event)
		case <-p.done:
			// Flush whatever is still buffered before stopping.
			for {
				select {
				case event := <-p.events:
					p.sink(event)
				default:
					close(p.stopped)
					return
				}
			}
		}
	}
}

// Close stops the worker after draining the buffered events.
func (p *TelemetryPublisher) Close() {
	close(p.done)
	<-p.stopped
}

func logEvent(event domain.Event) {
	log.Info().
		Str("event_type", string(event.Type)).
		Str("team_id", event.TeamID).
		Str("provider", string(event.Provider)).
		Interface("properties", event.Properties).
		Time("occurred_at", event.OccurredAt).
		Msg("Telemetry event")
}
