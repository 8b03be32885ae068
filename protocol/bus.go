package protocol

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/researchmesh/core"
	"github.com/hupe1980/researchmesh/logging"
)

// DefaultQueueCapacity bounds the number of undelivered messages a Bus holds
// before Send starts failing with core.ErrQueueFull.
const DefaultQueueCapacity = 1024

// BusOptions configures a Bus.
type BusOptions struct {
	// QueueCapacity bounds the delivery queue. Defaults to DefaultQueueCapacity.
	QueueCapacity int
	// Logger receives bus diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Bus is an in-process, strictly FIFO delivery queue for agent-to-agent
// messages plus an append-only traffic log used for statistics and auditing.
// Each message is delivered to exactly one Receive (or WaitForCorrelated)
// call; the bus is not a broadcast fan-out.
type Bus struct {
	queue  chan core.Message
	logger logging.Logger

	mu  sync.Mutex
	log []core.Message
}

// NewBus constructs an empty bus.
func NewBus(optFns ...func(o *BusOptions)) *Bus {
	opts := BusOptions{QueueCapacity: DefaultQueueCapacity, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.QueueCapacity <= 0 {
		opts.QueueCapacity = DefaultQueueCapacity
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Bus{
		queue:  make(chan core.Message, opts.QueueCapacity),
		logger: opts.Logger,
	}
}

// Send enqueues the message for delivery and records it in the traffic log,
// returning the message id. When a request-like message carries no
// correlation id, its own id becomes its correlation identity so responders
// can address replies. Send never blocks; a full queue is reported as
// core.ErrQueueFull.
func (b *Bus) Send(msg core.Message) (string, error) {
	if msg.ID == "" {
		msg.ID = core.NewID()
	}
	if msg.CorrelationID == "" && msg.Type.RequestLike() {
		msg.CorrelationID = msg.ID
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	select {
	case b.queue <- msg:
	default:
		return "", fmt.Errorf("send %s from %q: %w", msg.Type, msg.Sender, core.ErrQueueFull)
	}
	b.log = append(b.log, msg)

	b.logger.Debug("message sent",
		"message_id", msg.ID, "type", string(msg.Type),
		"sender", msg.Sender, "receiver", msg.Receiver)
	return msg.ID, nil
}

// Receive removes and returns the oldest undelivered message. It blocks until
// a message arrives, the timeout elapses or ctx is done; both of the latter
// yield an explicit empty outcome (ok == false), not an error. A timeout
// of zero or less waits indefinitely (bounded only by ctx).
func (b *Bus) Receive(ctx context.Context, timeout time.Duration) (core.Message, bool) {
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case msg := <-b.queue:
			return msg, true
		case <-timer.C:
			return core.Message{}, false
		case <-ctx.Done():
			return core.Message{}, false
		}
	}
	select {
	case msg := <-b.queue:
		return msg, true
	case <-ctx.Done():
		return core.Message{}, false
	}
}

// WaitForCorrelated receives messages until one whose CorrelationID matches
// arrives or the timeout elapses. Non-matching messages consumed while
// searching are discarded, not re-queued: any party interested in them must
// consume from its own bus instance.
func (b *Bus) WaitForCorrelated(ctx context.Context, correlationID string, timeout time.Duration) (core.Message, bool) {
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return core.Message{}, false
		}
		msg, ok := b.Receive(ctx, remaining)
		if !ok {
			return core.Message{}, false
		}
		if msg.CorrelationID == correlationID {
			return msg, true
		}
		b.logger.Debug("discarding uncorrelated message",
			"message_id", msg.ID, "wanted", correlationID, "got", msg.CorrelationID)
	}
}

// TrafficLog returns a snapshot of every message ever sent, oldest first.
func (b *Bus) TrafficLog() []core.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	snapshot := make([]core.Message, len(b.log))
	copy(snapshot, b.log)
	return snapshot
}

// Pending returns the number of undelivered messages currently queued.
func (b *Bus) Pending() int {
	return len(b.queue)
}
