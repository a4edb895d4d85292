package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/louisbranch/homechain/internal/services/homechain/domain/command"
	"github.com/louisbranch/homechain/internal/services/homechain/domain/event"
	"github.com/louisbranch/homechain/internal/services/homechain/domain/participant"
	"github.com/louisbranch/homechain/internal/services/homechain/domain/property"
	"github.com/louisbranch/homechain/internal/services/homechain/storage"
	"github.com/louisbranch/homechain/internal/services/homechain/storage/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingBus struct {
	mu     sync.Mutex
	events []event.Event
	err    error
}

func (b *recordingBus) Publish(_ context.Context, events ...event.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.events = append(b.events, events...)
	return nil
}

func (b *recordingBus) types() []event.Type {
	b.mu.Lock()
	defer b.mu.Unlock()
	types := make([]event.Type, 0, len(b.events))
	for _, evt := range b.events {
		types = append(types, evt.Type)
	}
	return types
}

type observation struct {
	cmdType string
	outcome string
}

type recordingObserver struct {
	seen []observation
}

func (o *recordingObserver) ObserveTransaction(cmdType, outcome string, _ time.Duration) {
	o.seen = append(o.seen, observation{cmdType: cmdType, outcome: outcome})
}

// failingStore fails every append after the entity writes succeeded.
type failingStore struct {
	*memory.Store
}

func (s failingStore) Transact(ctx context.Context, fn func(ctx context.Context, tx storage.Registries) error) error {
	return s.Store.Transact(ctx, func(ctx context.Context, tx storage.Registries) error {
		return fn(ctx, failingAppend{Registries: tx})
	})
}

type failingAppend struct {
	storage.Registries
}

func (failingAppend) AppendEvents(context.Context, ...event.Event) ([]event.Event, error) {
	return nil, errors.New("disk full")
}

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	for i, name := range [][2]string{{"Alice", "Smith"}, {"Bob", "Jones"}, {"Carol", "Watson"}, {"Raj", "Gupta"}} {
		require.NoError(t, store.PutPerson(ctx, participant.Person{
			ID:        fmt.Sprintf("PERSON_%d", i+1),
			FirstName: name[0],
			LastName:  name[1],
		}))
	}
	require.NoError(t, store.PutInstitution(ctx, participant.Institution{ID: "BANK_1", Kind: participant.KindBank, Name: "First Bank"}))
	require.NoError(t, store.PutInstitution(ctx, participant.Institution{ID: "SURVEYOR_1", Kind: participant.KindSurveyor, Name: "Survey Co"}))
	require.NoError(t, store.PutProperty(ctx, property.Property{
		ID:       "PROPERTY_1",
		Address1: "1 New Road",
		County:   "London",
		Postcode: "AB12 3CD",
		Bedrooms: 1,
		Status:   property.StatusNA,
		OwnerID:  "PERSON_1",
	}))
	return store
}

func newTestProcessor(t *testing.T, store storage.Store, bus event.Bus, opts ...Option) *Processor {
	t.Helper()
	var n int
	base := []Option{
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(func() (string, error) {
			n++
			return fmt.Sprintf("evt-%d", n), nil
		}),
	}
	p, err := NewProcessor(store, bus, append(base, opts...)...)
	require.NoError(t, err)
	return p
}

func amount(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestProcessorCompletesSale(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	bus := &recordingBus{}
	p := newTestProcessor(t, store, bus)

	steps := []struct {
		tx        Transaction
		actorType command.ActorType
		actorID   string
	}{
		{RegisterForSale{PropertyID: "PROPERTY_1", SellerID: "PERSON_1"}, command.ActorTypeEstateAgent, "BUSINESS_1"},
		{ApplyForMortgage{ApplicantID: "PERSON_3", BankID: "BANK_1"}, command.ActorTypePerson, "PERSON_3"},
		{ApproveInPrinciple{ApplicantID: "PERSON_3", Amount: amount(300000)}, command.ActorTypeBank, "BANK_1"},
		{MakeOffer{PropertyID: "PROPERTY_1", BuyerID: "PERSON_3", Amount: amount(280000)}, command.ActorTypePerson, "PERSON_3"},
		{AcceptOffer{PropertyID: "PROPERTY_1", OfferID: "1"}, command.ActorTypePerson, "PERSON_1"},
		{PerformSurvey{PropertyID: "PROPERTY_1"}, command.ActorTypeSurveyor, "SURVEYOR_1"},
		{ProvideInsurance{PropertyID: "PROPERTY_1"}, command.ActorTypeInsurer, "INSURER_1"},
		{ApproveMortgage{PropertyID: "PROPERTY_1"}, command.ActorTypeBank, "BANK_1"},
		{CompleteSale{PropertyID: "PROPERTY_1"}, command.ActorTypeLandRegistry, "LAND_REGISTRY"},
	}
	for _, step := range steps {
		result, err := p.Submit(ctx, step.tx, step.actorType, step.actorID)
		require.NoError(t, err, "submit %s", step.tx.CommandType())
		require.Len(t, result.Events, 1)
	}

	sold, err := store.GetProperty(ctx, "PROPERTY_1")
	require.NoError(t, err)
	assert.Equal(t, property.StatusNA, sold.Status)
	assert.Equal(t, "PERSON_3", sold.OwnerID)
	assert.True(t, sold.SurveyPerformed)
	assert.True(t, sold.Insurance)
	assert.Equal(t, 1, sold.SaleCycle)
	require.Len(t, sold.Offers, 1)
	assert.True(t, sold.Offers[0].Accepted)

	buyer, err := store.GetPerson(ctx, "PERSON_3")
	require.NoError(t, err)
	require.NotNil(t, buyer.Mortgage)
	assert.Equal(t, participant.MortgageApproved, buyer.Mortgage.Status)
	assert.True(t, buyer.Mortgage.Amount.Equal(amount(280000)), "mortgage amount = %s", buyer.Mortgage.Amount)

	journal, err := store.ListEvents(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, journal, len(steps))
	last := journal[len(journal)-1]
	assert.Equal(t, property.EventTypeSold, last.Type)
	var sale property.SoldPayload
	decodePayload(t, last, &sale)
	assert.True(t, sale.Price.Equal(amount(280000)))
	assert.Equal(t, "PERSON_1", sale.PreviousOwnerID)

	assert.Equal(t, []event.Type{
		property.EventTypeForSale,
		participant.EventTypeMortgageApplied,
		participant.EventTypeMortgageApprovedInPrinciple,
		property.EventTypeOfferMade,
		property.EventTypeOfferAccepted,
		property.EventTypeSurveyPerformed,
		property.EventTypeInsuranceProvided,
		participant.EventTypeMortgageApproved,
		property.EventTypeSold,
	}, bus.types())

	unpublished, err := store.ListUnpublished(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, unpublished)
}

func TestProcessorRejectionLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	bus := &recordingBus{}
	obs := &recordingObserver{}
	p := newTestProcessor(t, store, bus, WithObserver(obs))

	before, err := store.GetProperty(ctx, "PROPERTY_1")
	require.NoError(t, err)

	_, err = p.Submit(ctx, AcceptOffer{PropertyID: "PROPERTY_1", OfferID: "1"}, command.ActorTypePerson, "PERSON_1")
	var precondition *PreconditionError
	require.ErrorAs(t, err, &precondition)
	assert.Equal(t, RejectionPropertyNotForSale, precondition.Code)
	assert.Equal(t, "Property must be for sale", precondition.Reason)
	assert.ErrorIs(t, err, ErrPreconditionViolation)
	assert.True(t, IsNonRetryable(err))
	assert.False(t, IsRetryable(err))

	after, err := store.GetProperty(ctx, "PROPERTY_1")
	require.NoError(t, err)
	assert.Equal(t, before, after)

	journal, err := store.ListEvents(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, journal)
	assert.Empty(t, bus.types())
	assert.Equal(t, []observation{{cmdType: string(CommandTypeAcceptOffer), outcome: string(OutcomeRejected)}}, obs.seen)
}

func TestProcessorOfferBoundaries(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	p := newTestProcessor(t, store, &recordingBus{})

	_, err := p.Submit(ctx, RegisterForSale{PropertyID: "PROPERTY_1", SellerID: "PERSON_1"}, command.ActorTypePerson, "PERSON_1")
	require.NoError(t, err)
	_, err = p.Submit(ctx, ApplyForMortgage{ApplicantID: "PERSON_3", BankID: "BANK_1"}, command.ActorTypePerson, "PERSON_3")
	require.NoError(t, err)
	_, err = p.Submit(ctx, ApproveInPrinciple{ApplicantID: "PERSON_3", Amount: amount(300000)}, command.ActorTypeBank, "BANK_1")
	require.NoError(t, err)

	_, err = p.Submit(ctx, MakeOffer{PropertyID: "PROPERTY_1", BuyerID: "PERSON_3", Amount: amount(300001)}, command.ActorTypePerson, "PERSON_3")
	var precondition *PreconditionError
	require.ErrorAs(t, err, &precondition)
	assert.Equal(t, RejectionOfferExceedsFunding, precondition.Code)

	for i := 1; i <= 2; i++ {
		result, err := p.Submit(ctx, MakeOffer{PropertyID: "PROPERTY_1", BuyerID: "PERSON_3", Amount: amount(300000)}, command.ActorTypePerson, "PERSON_3")
		require.NoError(t, err)
		var made property.OfferMadePayload
		decodePayload(t, result.Events[0], &made)
		assert.Equal(t, fmt.Sprint(i), made.OfferID)
	}

	_, err = p.Submit(ctx, ApplyForMortgage{ApplicantID: "PERSON_4", BankID: "BANK_1"}, command.ActorTypePerson, "PERSON_4")
	require.NoError(t, err)
	_, err = p.Submit(ctx, ApplyForMortgage{ApplicantID: "PERSON_4", BankID: "BANK_1"}, command.ActorTypePerson, "PERSON_4")
	require.ErrorAs(t, err, &precondition)
	assert.Equal(t, RejectionMortgageApplicationInProgress, precondition.Code)
}

func TestProcessorRollsBackOnAppendFailure(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	bus := &recordingBus{}
	obs := &recordingObserver{}
	p := newTestProcessor(t, failingStore{Store: store}, bus, WithObserver(obs))

	_, err := p.Submit(ctx, RegisterForSale{PropertyID: "PROPERTY_1", SellerID: "PERSON_1"}, command.ActorTypePerson, "PERSON_1")
	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "append events", storeErr.Op)
	assert.True(t, IsRetryable(err))

	got, err := store.GetProperty(ctx, "PROPERTY_1")
	require.NoError(t, err)
	assert.Equal(t, property.StatusNA, got.Status)
	assert.Empty(t, bus.types())
	assert.Equal(t, string(OutcomeFailed), obs.seen[0].outcome)
}

func TestProcessorUnregisteredEventIsNotRetryable(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	bus := &recordingBus{}
	obs := &recordingObserver{}
	p := newTestProcessor(t, store, bus, WithObserver(obs))
	p.registries.Events = event.NewRegistry()

	_, err := p.Submit(ctx, RegisterForSale{PropertyID: "PROPERTY_1", SellerID: "PERSON_1"}, command.ActorTypePerson, "PERSON_1")
	require.ErrorIs(t, err, ErrInternal)
	require.ErrorIs(t, err, event.ErrTypeUnknown)
	var storeErr *StoreError
	assert.False(t, errors.As(err, &storeErr))
	assert.True(t, IsNonRetryable(err))
	assert.False(t, IsRetryable(err))
	assert.Equal(t, string(OutcomeFailed), obs.seen[0].outcome)

	got, err := store.GetProperty(ctx, "PROPERTY_1")
	require.NoError(t, err)
	assert.Equal(t, property.StatusNA, got.Status)
	assert.Empty(t, bus.types())
}

func TestProcessorPublishFailureKeepsCommit(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	bus := &recordingBus{err: errors.New("broker down")}
	core, logs := observer.New(zap.WarnLevel)
	p := newTestProcessor(t, store, bus, WithLogger(zap.New(core)))

	result, err := p.Submit(ctx, RegisterForSale{PropertyID: "PROPERTY_1", SellerID: "PERSON_1"}, command.ActorTypePerson, "PERSON_1")
	require.NoError(t, err)
	require.Len(t, result.Events, 1)
	assert.Equal(t, uint64(1), result.Events[0].Seq)
	assert.Equal(t, "evt-1", result.Events[0].ID)

	got, err := store.GetProperty(ctx, "PROPERTY_1")
	require.NoError(t, err)
	assert.Equal(t, property.StatusForSale, got.Status)

	unpublished, err := store.ListUnpublished(ctx, 0)
	require.NoError(t, err)
	require.Len(t, unpublished, 1)
	assert.Equal(t, property.EventTypeForSale, unpublished[0].Type)
	assert.Equal(t, 1, logs.FilterMessage("publish deferred to outbox").Len())
}

func TestProcessorNotFound(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	obs := &recordingObserver{}
	p := newTestProcessor(t, store, &recordingBus{}, WithObserver(obs))

	_, err := p.Submit(ctx, PerformSurvey{PropertyID: "PROPERTY_404"}, command.ActorTypeSurveyor, "SURVEYOR_1")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, property.EntityType, notFound.EntityType)
	assert.Equal(t, "PROPERTY_404", notFound.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = p.Submit(ctx, ApplyForMortgage{ApplicantID: "PERSON_3", BankID: "BANK_9"}, command.ActorTypePerson, "PERSON_3")
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "institution", notFound.EntityType)

	assert.Equal(t, string(OutcomeNotFound), obs.seen[0].outcome)
}

func TestProcessorRejectsInvalidEnvelopes(t *testing.T) {
	ctx := context.Background()
	obs := &recordingObserver{}
	p := newTestProcessor(t, seededStore(t), &recordingBus{}, WithObserver(obs))

	_, err := p.Process(ctx, command.Command{Type: "property.demolish", ActorType: command.ActorTypeSystem, PayloadJSON: []byte(`{}`)})
	assert.ErrorIs(t, err, command.ErrTypeUnknown)

	_, err = p.Process(ctx, command.Command{Type: CommandTypeMakeOffer, ActorType: command.ActorTypePerson, ActorID: "PERSON_3", PayloadJSON: []byte(`{"property_id":"PROPERTY_1","buyer_id":"PERSON_3","amount":"-5"}`)})
	assert.ErrorIs(t, err, command.ErrPayloadInvalid)
	assert.True(t, IsNonRetryable(err))

	_, err = p.Process(ctx, command.Command{Type: CommandTypePerformSurvey, ActorType: command.ActorTypeSurveyor, PayloadJSON: []byte(`{"property_id":"PROPERTY_1"}`)})
	assert.ErrorIs(t, err, command.ErrActorIDRequired)

	for _, seen := range obs.seen {
		assert.Equal(t, string(OutcomeInvalid), seen.outcome)
	}
}

func TestProcessorRelistAfterSale(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	p := newTestProcessor(t, store, &recordingBus{})

	sold := property.Property{
		ID:        "PROPERTY_1",
		Status:    property.StatusNA,
		OwnerID:   "PERSON_3",
		SaleCycle: 1,
		Offers:    []property.Offer{{ID: "1", BuyerID: "PERSON_3", Amount: amount(280000), Accepted: true}},
	}
	require.NoError(t, store.PutProperty(ctx, sold))

	_, err := p.Submit(ctx, RegisterForSale{PropertyID: "PROPERTY_1", SellerID: "PERSON_3"}, command.ActorTypePerson, "PERSON_3")
	require.NoError(t, err)

	_, err = p.Submit(ctx, ApproveMortgage{PropertyID: "PROPERTY_1"}, command.ActorTypeBank, "BANK_1")
	var precondition *PreconditionError
	require.ErrorAs(t, err, &precondition)
	assert.Equal(t, RejectionPropertyOffersRequired, precondition.Code)

	require.NoError(t, store.PutPerson(ctx, participant.Person{ID: "PERSON_4", Mortgage: &participant.Mortgage{
		Status: participant.MortgageInPrinciple,
		BankID: "BANK_1",
		Amount: amount(500000),
	}}))
	result, err := p.Submit(ctx, MakeOffer{PropertyID: "PROPERTY_1", BuyerID: "PERSON_4", Amount: amount(310000)}, command.ActorTypePerson, "PERSON_4")
	require.NoError(t, err)
	var made property.OfferMadePayload
	decodePayload(t, result.Events[0], &made)
	assert.Equal(t, "2", made.OfferID)

	_, err = p.Submit(ctx, AcceptOffer{PropertyID: "PROPERTY_1", OfferID: "2"}, command.ActorTypePerson, "PERSON_3")
	require.NoError(t, err)
}

func TestProcessorRejectsOfferFromEarlierSale(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	p := newTestProcessor(t, store, &recordingBus{})

	require.NoError(t, store.PutProperty(ctx, property.Property{
		ID:        "PROPERTY_1",
		Status:    property.StatusNA,
		OwnerID:   "PERSON_3",
		SaleCycle: 1,
		Offers:    []property.Offer{{ID: "1", BuyerID: "PERSON_3", Amount: amount(280000), Accepted: true}},
	}))
	_, err := p.Submit(ctx, RegisterForSale{PropertyID: "PROPERTY_1", SellerID: "PERSON_3"}, command.ActorTypePerson, "PERSON_3")
	require.NoError(t, err)

	_, err = p.Submit(ctx, AcceptOffer{PropertyID: "PROPERTY_1", OfferID: "1"}, command.ActorTypePerson, "PERSON_3")
	var precondition *PreconditionError
	require.ErrorAs(t, err, &precondition)
	assert.Equal(t, RejectionOfferNotFound, precondition.Code)
	assert.Equal(t, "1", precondition.Metadata["offer_id"])

	got, err := store.GetProperty(ctx, "PROPERTY_1")
	require.NoError(t, err)
	assert.Equal(t, property.StatusForSale, got.Status)
	assert.Len(t, got.Offers, 1)
}

func TestNewProcessorRequiresDependencies(t *testing.T) {
	_, err := NewProcessor(nil, &recordingBus{})
	require.Error(t, err)
	_, err = NewProcessor(memory.New(), nil)
	require.Error(t, err)
}
