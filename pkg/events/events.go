// Package events defines the audit events the query pipeline emits.
package events

import (
	"context"
	"time"
)

const (
	TypeQueryAnswered = "QUERY_ANSWERED"
	TypeQueryRejected = "QUERY_REJECTED"
)

type Event interface {
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
	// DedupKey identifies the event for at-most-once storage; empty when
	// the event has no natural identity.
	DedupKey() string
}

// Publisher delivers events to whatever bus is configured.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Record is the one Event implementation; decoders rebuild it from the wire.
type Record struct {
	Type       string
	Key        string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (r Record) EventType() string               { return r.Type }
func (r Record) Payload() map[string]interface{} { return r.Data }
func (r Record) Timestamp() time.Time            { return r.OccurredAt }
func (r Record) DedupKey() string                { return r.Key }

// QueryAnswered is emitted once per pipeline run that produced a response.
func QueryAnswered(queryId, sessionId, responseId, mode, state, status string, references int, latency time.Duration) Event {
	return Record{
		Type: TypeQueryAnswered,
		Key:  TypeQueryAnswered + ":" + queryId,
		Data: map[string]interface{}{
			"query_id":          queryId,
			"session_id":        sessionId,
			"response_id":       responseId,
			"context_mode":      mode,
			"terminal_state":    state,
			"validation_status": status,
			"references":        references,
			"latency_ms":        latency.Milliseconds(),
		},
		OccurredAt: time.Now(),
	}
}

// QueryRejected is emitted when input validation stops a run. Rejected
// input never gets a query id, so these are not deduplicated.
func QueryRejected(mode string, problems []string) Event {
	return Record{
		Type: TypeQueryRejected,
		Data: map[string]interface{}{
			"context_mode": mode,
			"problems":     problems,
		},
		OccurredAt: time.Now(),
	}
}
