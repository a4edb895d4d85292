package event

import (
	"context"
	"time"
)

// Type identifies the event type string.
type Type string

// ActorType mirrors the command actor role that caused the event.
type ActorType string

const (
	ActorTypeSystem       ActorType = "system"
	ActorTypePerson       ActorType = "person"
	ActorTypeBank         ActorType = "bank"
	ActorTypeSurveyor     ActorType = "surveyor"
	ActorTypeInsurer      ActorType = "insurer"
	ActorTypeEstateAgent  ActorType = "estate_agent"
	ActorTypeRegulator    ActorType = "regulator"
	ActorTypeLandRegistry ActorType = "land_registry"
)

// Event is a committed change to one registry entity.
type Event struct {
	// Seq is the journal position, assigned on append.
	Seq uint64
	// ID is the globally unique event id, assigned on append.
	ID            string
	Type          Type
	Timestamp     time.Time
	ActorType     ActorType
	ActorID       string
	RequestID     string
	CorrelationID string
	CausationID   string
	EntityType    string
	EntityID      string
	PayloadJSON   []byte
}

// Bus publishes committed events to interested consumers.
type Bus interface {
	Publish(ctx context.Context, events ...Event) error
}

// BusFunc adapts a function to the Bus interface.
type BusFunc func(ctx context.Context, events ...Event) error

// Publish implements Bus.
func (fn BusFunc) Publish(ctx context.Context, events ...Event) error {
	return fn(ctx, events...)
}
