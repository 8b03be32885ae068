package core

import (
	"time"

	"github.com/google/uuid"
)

// MessageType categorizes agent-to-agent messages.
type MessageType string

const (
	// MessageTypeResearchRequest asks another agent to perform research work.
	MessageTypeResearchRequest MessageType = "research_request"
	// MessageTypeResearchResults carries results back to a requester.
	MessageTypeResearchResults MessageType = "research_results"
	// MessageTypeStatusUpdate reports progress without expecting a reply.
	MessageTypeStatusUpdate MessageType = "status_update"
	// MessageTypeError reports a failure in a collaborator.
	MessageTypeError MessageType = "error"
	// MessageTypeValidationRequest asks a peer to validate findings.
	MessageTypeValidationRequest MessageType = "validation_request"
	// MessageTypeValidationResponse answers a validation request.
	MessageTypeValidationResponse MessageType = "validation_response"
)

// MessageTypes lists every known message type.
func MessageTypes() []MessageType {
	return []MessageType{
		MessageTypeResearchRequest,
		MessageTypeResearchResults,
		MessageTypeStatusUpdate,
		MessageTypeError,
		MessageTypeValidationRequest,
		MessageTypeValidationResponse,
	}
}

// RequestLike reports whether a message of this type opens a
// request/response exchange and therefore needs a correlation identity.
func (t MessageType) RequestLike() bool {
	return t == MessageTypeResearchRequest || t == MessageTypeValidationRequest
}

// Priority is an advisory importance level carried on each message. It is
// for the receiver's own use and never changes delivery order.
type Priority string

const (
	// PriorityLow marks background traffic such as status updates.
	PriorityLow Priority = "low"
	// PriorityNormal is the default priority.
	PriorityNormal Priority = "normal"
	// PriorityHigh marks traffic the receiver should favor.
	PriorityHigh Priority = "high"
	// PriorityUrgent marks traffic requiring immediate attention.
	PriorityUrgent Priority = "urgent"
)

// DefaultTimeoutSeconds is the advisory response deadline attached to a
// message when the sender does not choose one.
const DefaultTimeoutSeconds = 300

// Message is the unit of agent-to-agent communication. After construction it
// is immutable: the bus delivers it at most once and thereafter it exists only
// in the append-only traffic log.
type Message struct {
	ID             string         `json:"message_id"`
	Sender         string         `json:"sender"`
	Receiver       string         `json:"receiver"`
	Type           MessageType    `json:"message_type"`
	Priority       Priority       `json:"priority"`
	Payload        map[string]any `json:"payload"`
	Timestamp      time.Time      `json:"timestamp"`
	CorrelationID  string         `json:"correlation_id,omitempty"`
	TimeoutSeconds int            `json:"timeout_seconds"`
}

// NewMessage constructs a message with a fresh id and UTC timestamp.
func NewMessage(sender, receiver string, msgType MessageType, priority Priority, payload map[string]any) Message {
	if payload == nil {
		payload = map[string]any{}
	}
	return Message{
		ID:             NewID(),
		Sender:         sender,
		Receiver:       receiver,
		Type:           msgType,
		Priority:       priority,
		Payload:        payload,
		Timestamp:      time.Now().UTC(),
		TimeoutSeconds: DefaultTimeoutSeconds,
	}
}

// NewID returns a new globally unique identifier string.
func NewID() string { return uuid.NewString() }
