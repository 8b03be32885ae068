package protocol

import (
	"github.com/hupe1980/researchmesh/core"
	"github.com/hupe1980/researchmesh/logging"
)

// DefaultLogLimit bounds Log views when the caller does not choose a limit.
const DefaultLogLimit = 100

// TrafficStatistics aggregates counts over the full traffic log, not just
// undelivered messages.
type TrafficStatistics struct {
	TotalMessages int                      `json:"total_messages"`
	ByType        map[core.MessageType]int `json:"by_type"`
	BySender      map[string]int           `json:"by_sender"`
	ByReceiver    map[string]int           `json:"by_receiver"`
}

// LogFilter narrows a traffic log view. Empty fields match everything.
type LogFilter struct {
	Sender   string
	Receiver string
	// Limit caps the number of returned messages, keeping the most recent.
	// Zero or negative applies DefaultLogLimit.
	Limit int
}

// CoordinatorOptions configures a Coordinator.
type CoordinatorOptions struct {
	// Logger receives coordination diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Coordinator is the typed façade over a Bus: it builds well-formed protocol
// messages for the common exchanges (research requests and results, status
// updates, errors) and exposes traffic statistics and log views.
type Coordinator struct {
	bus      *Bus
	logger   logging.Logger
	handlers handlerRegistry
}

// NewCoordinator wraps the given bus. A nil bus gets a default one.
func NewCoordinator(bus *Bus, optFns ...func(o *CoordinatorOptions)) *Coordinator {
	opts := CoordinatorOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if bus == nil {
		bus = NewBus()
	}
	return &Coordinator{bus: bus, logger: opts.Logger}
}

// Bus returns the underlying bus for direct Receive / WaitForCorrelated use.
func (c *Coordinator) Bus() *Bus { return c.bus }

// Send passes an already constructed message through to the bus.
func (c *Coordinator) Send(msg core.Message) (string, error) {
	return c.bus.Send(msg)
}

// SendResearchRequest asks another agent to perform research work. The query
// plus any extra parameters form the payload; the request is high priority
// and correlates replies via its own message id.
func (c *Coordinator) SendResearchRequest(from, to, query string, extra map[string]any) (string, error) {
	payload := map[string]any{"query": query}
	for k, v := range extra {
		payload[k] = v
	}
	msg := core.NewMessage(from, to, core.MessageTypeResearchRequest, core.PriorityHigh, payload)
	return c.bus.Send(msg)
}

// SendResearchResults returns results to a requester. correlationID should
// be the id of the originating request; empty means an unsolicited result.
func (c *Coordinator) SendResearchResults(from, to string, results map[string]any, correlationID string) (string, error) {
	msg := core.NewMessage(from, to, core.MessageTypeResearchResults, core.PriorityNormal, results)
	msg.CorrelationID = correlationID
	return c.bus.Send(msg)
}

// SendStatusUpdate reports progress to another agent at low priority.
func (c *Coordinator) SendStatusUpdate(from, to, status string, progress map[string]any) (string, error) {
	msg := core.NewMessage(from, to, core.MessageTypeStatusUpdate, core.PriorityLow, map[string]any{
		"status":   status,
		"progress": progress,
	})
	return c.bus.Send(msg)
}

// SendError reports a collaborator failure at urgent priority, optionally
// correlated to the request that triggered it.
func (c *Coordinator) SendError(from, to, errorMessage, correlationID string) (string, error) {
	msg := core.NewMessage(from, to, core.MessageTypeError, core.PriorityUrgent, map[string]any{
		"error": errorMessage,
	})
	msg.CorrelationID = correlationID
	return c.bus.Send(msg)
}

// Statistics computes counts over the full traffic log.
func (c *Coordinator) Statistics() TrafficStatistics {
	stats := TrafficStatistics{
		ByType:     make(map[core.MessageType]int),
		BySender:   make(map[string]int),
		ByReceiver: make(map[string]int),
	}
	for _, msg := range c.bus.TrafficLog() {
		stats.TotalMessages++
		stats.ByType[msg.Type]++
		stats.BySender[msg.Sender]++
		stats.ByReceiver[msg.Receiver]++
	}
	return stats
}

// Log returns a filtered, length-bounded view of the traffic log, most
// recent last.
func (c *Coordinator) Log(filter LogFilter) []core.Message {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	var matched []core.Message
	for _, msg := range c.bus.TrafficLog() {
		if filter.Sender != "" && msg.Sender != filter.Sender {
			continue
		}
		if filter.Receiver != "" && msg.Receiver != filter.Receiver {
			continue
		}
		matched = append(matched, msg)
	}
	if len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	return matched
}
