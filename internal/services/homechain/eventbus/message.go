package eventbus

import (
	"encoding/json"
	"time"

	"github.com/louisbranch/homechain/internal/services/homechain/domain/event"
)

// Message is the wire form of a journal event.
type Message struct {
	Seq           uint64          `json:"seq"`
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Timestamp     time.Time       `json:"timestamp"`
	ActorType     string          `json:"actor_type"`
	ActorID       string          `json:"actor_id,omitempty"`
	RequestID     string          `json:"request_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	CausationID   string          `json:"causation_id,omitempty"`
	EntityType    string          `json:"entity_type"`
	EntityID      string          `json:"entity_id"`
	Payload       json.RawMessage `json:"payload"`
}

// NewMessage converts a journal event to its wire form.
func NewMessage(evt event.Event) Message {
	payload := json.RawMessage(evt.PayloadJSON)
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	return Message{
		Seq:           evt.Seq,
		ID:            evt.ID,
		Type:          string(evt.Type),
		Timestamp:     evt.Timestamp.UTC(),
		ActorType:     string(evt.ActorType),
		ActorID:       evt.ActorID,
		RequestID:     evt.RequestID,
		CorrelationID: evt.CorrelationID,
		CausationID:   evt.CausationID,
		EntityType:    evt.EntityType,
		EntityID:      evt.EntityID,
		Payload:       payload,
	}
}

// Event converts the message back to a journal event.
func (m Message) Event() event.Event {
	return event.Event{
		Seq:           m.Seq,
		ID:            m.ID,
		Type:          event.Type(m.Type),
		Timestamp:     m.Timestamp.UTC(),
		ActorType:     event.ActorType(m.ActorType),
		ActorID:       m.ActorID,
		RequestID:     m.RequestID,
		CorrelationID: m.CorrelationID,
		CausationID:   m.CausationID,
		EntityType:    m.EntityType,
		EntityID:      m.EntityID,
		PayloadJSON:   []byte(m.Payload),
	}
}
