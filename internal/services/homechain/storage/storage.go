package storage

import (
	"context"
	"time"

	apperrors "github.com/louisbranch/homechain/internal/platform/errors"
	"github.com/louisbranch/homechain/internal/services/homechain/domain/event"
	"github.com/louisbranch/homechain/internal/services/homechain/domain/participant"
	"github.com/louisbranch/homechain/internal/services/homechain/domain/property"
)

// ErrNotFound indicates a requested registry record is missing.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// PersonRegistry stores people and the mortgage each holds.
type PersonRegistry interface {
	GetPerson(ctx context.Context, id string) (participant.Person, error)
	// PutPerson overwrites the full person record, creating it if missing.
	PutPerson(ctx context.Context, p participant.Person) error
	ListPersons(ctx context.Context) ([]participant.Person, error)
}

// InstitutionRegistry stores banks, surveyors, insurers, and other businesses.
type InstitutionRegistry interface {
	GetInstitution(ctx context.Context, id string) (participant.Institution, error)
	PutInstitution(ctx context.Context, inst participant.Institution) error
	ListInstitutions(ctx context.Context) ([]participant.Institution, error)
}

// PropertyRegistry stores properties together with their offers.
type PropertyRegistry interface {
	GetProperty(ctx context.Context, id string) (property.Property, error)
	// PutProperty overwrites the full property snapshot, offers included.
	PutProperty(ctx context.Context, p property.Property) error
	ListProperties(ctx context.Context) ([]property.Property, error)
}

// Journal is the append-only event log. It doubles as the outbox: events
// stay unpublished until the bus acknowledges them.
type Journal interface {
	// AppendEvents stores events in order and returns them with Seq set.
	AppendEvents(ctx context.Context, events ...event.Event) ([]event.Event, error)
	// ListEvents returns events ordered by sequence ascending.
	ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error)
	// ListUnpublished returns the oldest events not yet marked published.
	ListUnpublished(ctx context.Context, limit int) ([]event.Event, error)
	MarkPublished(ctx context.Context, at time.Time, seqs ...uint64) error
}

// Registries is the set of registries visible inside one unit of work.
type Registries interface {
	PersonRegistry
	InstitutionRegistry
	PropertyRegistry
	Journal
}

// Store opens units of work over the registries.
//
// Calls made directly on the Store commit on their own. Transact runs fn
// against a transaction-scoped view and commits only if fn returns nil;
// concurrent Transact calls are serialized.
type Store interface {
	Registries
	Transact(ctx context.Context, fn func(ctx context.Context, tx Registries) error) error
	Close() error
}
