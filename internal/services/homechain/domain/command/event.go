package command

import (
	"time"

	"github.com/louisbranch/homechain/internal/services/homechain/domain/event"
)

// NewEvent builds an event.Event by copying the envelope fields from a
// command. Callers supply the event type, entity addressing, payload, and
// timestamp; the journal assigns ID and Seq on append.
func NewEvent(cmd Command, eventType event.Type, entityType, entityID string, payloadJSON []byte, now time.Time) event.Event {
	return event.Event{
		Type:          eventType,
		Timestamp:     now,
		ActorType:     event.ActorType(cmd.ActorType),
		ActorID:       cmd.ActorID,
		RequestID:     cmd.RequestID,
		CorrelationID: cmd.CorrelationID,
		CausationID:   cmd.CausationID,
		EntityType:    entityType,
		EntityID:      entityID,
		PayloadJSON:   payloadJSON,
	}
}
