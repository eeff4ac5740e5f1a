package entity

import (
	"time"

	"github.com/google/uuid"
)

type SessionQuery struct {
	QueryId   uuid.UUID `json:"query_id"`
	Timestamp time.Time `json:"timestamp"`
}

type ConversationSession struct {
	Id           uuid.UUID              `json:"session_id"`
	UserId       *uuid.UUID             `json:"user_id,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	LastActivity time.Time              `json:"last_activity"`
	Queries      []SessionQuery         `json:"queries"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// Clone returns a deep enough copy for handing out of a cache: the query
// slice and metadata map are not shared with the receiver.
func (s *ConversationSession) Clone() *ConversationSession {
	if s == nil {
		return nil
	}
	c := *s
	if s.UserId != nil {
		u := *s.UserId
		c.UserId = &u
	}
	c.Queries = append([]SessionQuery(nil), s.Queries...)
	if s.Metadata != nil {
		c.Metadata = make(map[string]interface{}, len(s.Metadata))
		for k, v := range s.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
