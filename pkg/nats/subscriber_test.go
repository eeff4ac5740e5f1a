package nats

import (
	"encoding/json"
	"testing"
	"time"

	"book-rag-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeReadsEnvelope(t *testing.T) {
	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	raw, err := json.Marshal(envelope{Type: events.TypeQueryRejected, OccurredAt: at, Data: map[string]interface{}{"context_mode": "FULL_CORPUS"}})
	require.NoError(t, err)

	ev, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, events.TypeQueryRejected, ev.EventType())
	assert.True(t, at.Equal(ev.Timestamp()))
	assert.Equal(t, "FULL_CORPUS", ev.Payload()["context_mode"])

	_, err = Decode([]byte("{"))
	assert.Error(t, err)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "audit.QUERY_ANSWERED", Subject(events.TypeQueryAnswered))
}

func TestDecodeKeepsDedupKey(t *testing.T) {
	ev := events.QueryAnswered("q1", "s1", "r1", "FULL_CORPUS", "DONE", "PASSED", 2, time.Second)
	raw, err := json.Marshal(envelope{Type: ev.EventType(), Key: ev.DedupKey(), OccurredAt: ev.Timestamp(), Data: ev.Payload()})
	require.NoError(t, err)

	decoded, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "QUERY_ANSWERED:q1", decoded.DedupKey())
	assert.Empty(t, events.QueryRejected("FULL_CORPUS", nil).DedupKey())
}
