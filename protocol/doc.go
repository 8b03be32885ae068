// Package protocol implements the agent-to-agent coordination protocol: a
// strictly FIFO, single-consumer message Bus with an append-only traffic log,
// and a Coordinator façade offering typed send helpers, request/response
// correlation and aggregate traffic statistics.
//
// Delivery is exactly-once per message and never priority-ordered; the
// Priority field is advisory for the receiver. Multiple logical subscribers
// need their own Bus instances or an external fan-out layer.
package protocol
