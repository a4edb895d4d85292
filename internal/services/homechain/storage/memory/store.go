// Package memory provides an in-process implementation of the registry store.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/homechain/internal/services/homechain/domain/event"
	"github.com/louisbranch/homechain/internal/services/homechain/domain/participant"
	"github.com/louisbranch/homechain/internal/services/homechain/domain/property"
	"github.com/louisbranch/homechain/internal/services/homechain/storage"
)

// Store keeps registries in memory. Transact works on a private copy that
// replaces the shared state only when fn succeeds.
type Store struct {
	txMu sync.Mutex

	mu    sync.RWMutex
	state *state
}

var _ storage.Store = (*Store)(nil)

type journalEntry struct {
	evt         event.Event
	publishedAt time.Time
}

type state struct {
	persons      map[string]participant.Person
	institutions map[string]participant.Institution
	properties   map[string]property.Property
	journal      []journalEntry
}

// New returns an empty store.
func New() *Store {
	return &Store{state: &state{
		persons:      make(map[string]participant.Person),
		institutions: make(map[string]participant.Institution),
		properties:   make(map[string]property.Property),
	}}
}

// Transact runs fn against a copy of the registries and commits it on success.
func (s *Store) Transact(ctx context.Context, fn func(ctx context.Context, tx storage.Registries) error) error {
	if fn == nil {
		return errors.New("transaction function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	working := s.state.clone()
	s.mu.RUnlock()

	if err := fn(ctx, &view{state: working}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.state = working
	s.mu.Unlock()
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

func (s *Store) write(ctx context.Context, fn func(v *view) error) error {
	return s.Transact(ctx, func(_ context.Context, tx storage.Registries) error {
		return fn(tx.(*view))
	})
}

// GetPerson returns a person by id.
func (s *Store) GetPerson(ctx context.Context, id string) (participant.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&view{state: s.state}).GetPerson(ctx, id)
}

// PutPerson stores a person.
func (s *Store) PutPerson(ctx context.Context, p participant.Person) error {
	return s.write(ctx, func(v *view) error { return v.PutPerson(ctx, p) })
}

// ListPersons returns all persons ordered by id.
func (s *Store) ListPersons(ctx context.Context) ([]participant.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&view{state: s.state}).ListPersons(ctx)
}

// GetInstitution returns an institution by id.
func (s *Store) GetInstitution(ctx context.Context, id string) (participant.Institution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&view{state: s.state}).GetInstitution(ctx, id)
}

// PutInstitution stores an institution.
func (s *Store) PutInstitution(ctx context.Context, inst participant.Institution) error {
	return s.write(ctx, func(v *view) error { return v.PutInstitution(ctx, inst) })
}

// ListInstitutions returns all institutions ordered by id.
func (s *Store) ListInstitutions(ctx context.Context) ([]participant.Institution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&view{state: s.state}).ListInstitutions(ctx)
}

// GetProperty returns a property by id.
func (s *Store) GetProperty(ctx context.Context, id string) (property.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&view{state: s.state}).GetProperty(ctx, id)
}

// PutProperty stores a property snapshot.
func (s *Store) PutProperty(ctx context.Context, p property.Property) error {
	return s.write(ctx, func(v *view) error { return v.PutProperty(ctx, p) })
}

// ListProperties returns all properties ordered by id.
func (s *Store) ListProperties(ctx context.Context) ([]property.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&view{state: s.state}).ListProperties(ctx)
}

// AppendEvents appends events to the journal.
func (s *Store) AppendEvents(ctx context.Context, events ...event.Event) ([]event.Event, error) {
	var out []event.Event
	err := s.write(ctx, func(v *view) error {
		var err error
		out, err = v.AppendEvents(ctx, events...)
		return err
	})
	return out, err
}

// ListEvents returns journal events after afterSeq.
func (s *Store) ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&view{state: s.state}).ListEvents(ctx, afterSeq, limit)
}

// ListUnpublished returns the oldest unpublished events.
func (s *Store) ListUnpublished(ctx context.Context, limit int) ([]event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&view{state: s.state}).ListUnpublished(ctx, limit)
}

// MarkPublished flags events as delivered to the bus.
func (s *Store) MarkPublished(ctx context.Context, at time.Time, seqs ...uint64) error {
	return s.write(ctx, func(v *view) error { return v.MarkPublished(ctx, at, seqs...) })
}

// view implements storage.Registries over one state snapshot.
type view struct {
	state *state
}

func (v *view) GetPerson(_ context.Context, id string) (participant.Person, error) {
	p, ok := v.state.persons[strings.TrimSpace(id)]
	if !ok {
		return participant.Person{}, storage.ErrNotFound
	}
	return p.Clone(), nil
}

func (v *view) PutPerson(_ context.Context, p participant.Person) error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("person id is required")
	}
	v.state.persons[p.ID] = p.Clone()
	return nil
}

func (v *view) ListPersons(context.Context) ([]participant.Person, error) {
	out := make([]participant.Person, 0, len(v.state.persons))
	for _, p := range v.state.persons {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v *view) GetInstitution(_ context.Context, id string) (participant.Institution, error) {
	inst, ok := v.state.institutions[strings.TrimSpace(id)]
	if !ok {
		return participant.Institution{}, storage.ErrNotFound
	}
	return inst, nil
}

func (v *view) PutInstitution(_ context.Context, inst participant.Institution) error {
	if strings.TrimSpace(inst.ID) == "" {
		return errors.New("institution id is required")
	}
	if !inst.Kind.Valid() {
		return fmt.Errorf("institution kind %q is invalid", inst.Kind)
	}
	v.state.institutions[inst.ID] = inst
	return nil
}

func (v *view) ListInstitutions(context.Context) ([]participant.Institution, error) {
	out := make([]participant.Institution, 0, len(v.state.institutions))
	for _, inst := range v.state.institutions {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v *view) GetProperty(_ context.Context, id string) (property.Property, error) {
	p, ok := v.state.properties[strings.TrimSpace(id)]
	if !ok {
		return property.Property{}, storage.ErrNotFound
	}
	return p.Clone(), nil
}

func (v *view) PutProperty(_ context.Context, p property.Property) error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("property id is required")
	}
	v.state.properties[p.ID] = p.Clone()
	return nil
}

func (v *view) ListProperties(context.Context) ([]property.Property, error) {
	out := make([]property.Property, 0, len(v.state.properties))
	for _, p := range v.state.properties {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v *view) AppendEvents(_ context.Context, events ...event.Event) ([]event.Event, error) {
	out := make([]event.Event, 0, len(events))
	for _, evt := range events {
		evt.Seq = uint64(len(v.state.journal)) + 1
		evt.PayloadJSON = append([]byte(nil), evt.PayloadJSON...)
		v.state.journal = append(v.state.journal, journalEntry{evt: evt})
		out = append(out, evt)
	}
	return out, nil
}

func (v *view) ListEvents(_ context.Context, afterSeq uint64, limit int) ([]event.Event, error) {
	var out []event.Event
	for _, entry := range v.state.journal {
		if entry.evt.Seq <= afterSeq {
			continue
		}
		out = append(out, entry.evt)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (v *view) ListUnpublished(_ context.Context, limit int) ([]event.Event, error) {
	var out []event.Event
	for _, entry := range v.state.journal {
		if !entry.publishedAt.IsZero() {
			continue
		}
		out = append(out, entry.evt)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (v *view) MarkPublished(_ context.Context, at time.Time, seqs ...uint64) error {
	for _, seq := range seqs {
		if seq == 0 || seq > uint64(len(v.state.journal)) {
			return fmt.Errorf("event %d: %w", seq, storage.ErrNotFound)
		}
		entry := &v.state.journal[seq-1]
		if entry.publishedAt.IsZero() {
			entry.publishedAt = at.UTC()
		}
	}
	return nil
}

func (s *state) clone() *state {
	out := &state{
		persons:      make(map[string]participant.Person, len(s.persons)),
		institutions: make(map[string]participant.Institution, len(s.institutions)),
		properties:   make(map[string]property.Property, len(s.properties)),
		journal:      append([]journalEntry(nil), s.journal...),
	}
	for id, p := range s.persons {
		out.persons[id] = p.Clone()
	}
	for id, inst := range s.institutions {
		out.institutions[id] = inst
	}
	for id, p := range s.properties {
		out.properties[id] = p.Clone()
	}
	return out
}
