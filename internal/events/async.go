package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/segyhp/sponsorship-ledger/internal/domain"
	"github.com/segyhp/sponsorship-ledger/internal/metrics"
)

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New("publisher closed")

const drainTimeout = 5 * time.Second

// AsyncPublisher buffers events and forwards them to next from a background worker,
// so callers never wait on the broker. A full buffer drops the event.
type AsyncPublisher struct {
	next    Publisher
	logger  *zap.Logger
	metrics *metrics.Metrics
	inbox   chan domain.Event

	mu      sync.RWMutex
	started bool
	closed  bool
	done    chan struct{}
}

func NewAsyncPublisher(next Publisher, bufferSize int, logger *zap.Logger, m *metrics.Metrics) *AsyncPublisher {
	return &AsyncPublisher{
		next:    next,
		logger:  logger,
		metrics: m,
		inbox:   make(chan domain.Event, bufferSize),
		done:    make(chan struct{}),
	}
}

// Publish enqueues event without blocking. It returns ErrPublisherClosed once Close was
// called or the worker's context ended.
func (p *AsyncPublisher) Publish(_ context.Context, event domain.Event) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	select {
	case p.inbox <- event:
	default:
		p.metrics.EventsDropped.Inc()
		p.logger.Warn("event buffer full, dropping event",
			zap.String("event_id", event.ID.String()),
			zap.String("type", event.Type),
			zap.String("sponsorship_id", event.SponsorshipID.String()),
		)
	}
	return nil
}

// Start launches the worker. It forwards buffered events until Close is called or ctx
// is cancelled, then drains whatever is left in the buffer. Only the first call has effect.
func (p *AsyncPublisher) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.closed {
		return
	}
	p.started = true
	go p.run(ctx)
}

func (p *AsyncPublisher) run(ctx context.Context) {
	defer close(p.done)
	for {
		select {
		case <-ctx.Done():
			p.stopAccepting()
			p.drain()
			return
		case event, ok := <-p.inbox:
			if !ok {
				return
			}
			p.forward(ctx, event)
		}
	}
}

// Close stops accepting events and waits for the worker to flush the buffer. Without a
// worker the buffered events are counted as dropped.
func (p *AsyncPublisher) Close() {
	started := p.stopAccepting()
	if started {
		<-p.done
		return
	}

	if pending := len(p.inbox); pending > 0 {
		p.metrics.EventsDropped.Add(float64(pending))
		p.logger.Warn("publisher closed before start, dropping buffered events", zap.Int("count", pending))
	}
}

// stopAccepting marks the publisher closed and closes the inbox once.
func (p *AsyncPublisher) stopAccepting() (started bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.inbox)
	}
	return p.started
}

func (p *AsyncPublisher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case event, ok := <-p.inbox:
			if !ok {
				return
			}
			p.forward(ctx, event)
		default:
			return
		}
	}
}

func (p *AsyncPublisher) forward(ctx context.Context, event domain.Event) {
	if err := p.next.Publish(ctx, event); err != nil {
		p.logger.Error("publish event",
			zap.String("event_id", event.ID.String()),
			zap.String("type", event.Type),
			zap.String("sponsorship_id", event.SponsorshipID.String()),
			zap.Error(err),
		)
	}
}
