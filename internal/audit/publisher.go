package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sink receives events in arrival order. Implementations are the in-memory
// store and the Kafka producer.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Publisher buffers events and drains them on a background worker so callers
// never block on sink latency. When the buffer is full the event is dropped
// and counted; audit is best-effort, the domain operation already succeeded.
type Publisher struct {
	sink   Sink
	logger *slog.Logger
	inbox  chan Event
	done   chan struct{}
	closed sync.Once
}

const defaultBuffer = 256

func NewPublisher(sink Sink, logger *slog.Logger) *Publisher {
	p := &Publisher{
		sink:   sink,
		logger: logger,
		inbox:  make(chan Event, defaultBuffer),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

// Emit queues an event for delivery. Safe on a nil publisher so callers can
// treat audit as optional.
func (p *Publisher) Emit(event Event) {
	if p == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.Warn("audit buffer full, dropping event", "action", event.Action)
	}
}

func (p *Publisher) run() {
	defer close(p.done)
	for event := range p.inbox {
		// Each delivery gets its own deadline; a stalled sink must not
		// wedge the worker forever.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := p.sink.Append(ctx, event); err != nil {
			p.logger.Error("audit append failed", "action", event.Action, "error", err)
		}
		cancel()
	}
}

// Close drains queued events and stops the worker. Emit must not be called
// after Close. Safe to call more than once.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	p.closed.Do(func() { close(p.inbox) })
	<-p.done
}
