package protocol

import (
	"context"
	"sync"

	"github.com/hupe1980/researchmesh/core"
)

// Handler processes a delivered message. Returning an error is logged, not
// fatal; retry policy belongs to the handler itself.
type Handler func(ctx context.Context, msg core.Message) error

type handlerRegistry struct {
	mu       sync.RWMutex
	handlers map[core.MessageType][]Handler
}

func (r *handlerRegistry) add(msgType core.MessageType, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handlers == nil {
		r.handlers = make(map[core.MessageType][]Handler)
	}
	r.handlers[msgType] = append(r.handlers[msgType], h)
}

func (r *handlerRegistry) forType(msgType core.MessageType) []Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handlers[msgType]
}

// RegisterHandler subscribes h to every delivered message of the given type.
// Handlers run sequentially in registration order on the Process goroutine.
func (c *Coordinator) RegisterHandler(msgType core.MessageType, h Handler) {
	c.handlers.add(msgType, h)
}

// Process consumes messages from the bus and routes them to registered
// handlers until ctx is done. Messages without a handler are dropped after a
// debug log. Handler panics are recovered so one faulty handler cannot take
// down the dispatch loop. Run it as a background goroutine; it competes with
// direct Receive callers for the same single-consumer queue.
func (c *Coordinator) Process(ctx context.Context) {
	for {
		msg, ok := c.bus.Receive(ctx, 0)
		if !ok {
			return
		}
		handlers := c.handlers.forType(msg.Type)
		if len(handlers) == 0 {
			c.logger.Debug("no handler for message", "message_id", msg.ID, "type", string(msg.Type))
			continue
		}
		for _, h := range handlers {
			c.dispatch(ctx, h, msg)
		}
	}
}

func (c *Coordinator) dispatch(ctx context.Context, h Handler, msg core.Message) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("message handler panicked", "message_id", msg.ID, "type", string(msg.Type), "panic", r)
		}
	}()
	if err := h(ctx, msg); err != nil {
		c.logger.Error("message handler failed", "message_id", msg.ID, "type", string(msg.Type), "error", err)
	}
}
