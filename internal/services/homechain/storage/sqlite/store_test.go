package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	sqlitemigrate "github.com/louisbranch/homechain/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/homechain/internal/services/homechain/domain/event"
	"github.com/louisbranch/homechain/internal/services/homechain/domain/participant"
	"github.com/louisbranch/homechain/internal/services/homechain/domain/property"
	"github.com/louisbranch/homechain/internal/services/homechain/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "homechain.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := Open("  ")
	require.Error(t, err)
}

func TestOpenIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "homechain.db")
	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.PutPerson(context.Background(), participant.Person{ID: "PERSON_1", FirstName: "Alice"}))
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	defer second.Close()

	applied, err := sqlitemigrate.Applied(context.Background(), second.sqlDB)
	require.NoError(t, err)
	assert.Len(t, applied, 1)

	got, err := second.GetPerson(context.Background(), "PERSON_1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.FirstName)
}

func TestPersonRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTempStore(t)

	_, err := store.GetPerson(ctx, "PERSON_3")
	require.ErrorIs(t, err, storage.ErrNotFound)

	input := participant.Person{ID: "PERSON_3", FirstName: "Carol", LastName: "Watson", Email: "carol@example.com"}
	require.NoError(t, store.PutPerson(ctx, input))
	got, err := store.GetPerson(ctx, " PERSON_3 ")
	require.NoError(t, err)
	assert.Equal(t, input, got)
	assert.Nil(t, got.Mortgage)

	input.Mortgage = &participant.Mortgage{Status: participant.MortgageInPrinciple, BankID: "BANK_1", Amount: decimal.RequireFromString("300000.50")}
	require.NoError(t, store.PutPerson(ctx, input))
	got, err = store.GetPerson(ctx, "PERSON_3")
	require.NoError(t, err)
	require.NotNil(t, got.Mortgage)
	assert.Equal(t, participant.MortgageInPrinciple, got.Mortgage.Status)
	assert.Equal(t, "BANK_1", got.Mortgage.BankID)
	assert.True(t, got.Mortgage.Amount.Equal(input.Mortgage.Amount))

	input.Mortgage.Status = "LAPSED"
	require.Error(t, store.PutPerson(ctx, input))
}

func TestInstitutionRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTempStore(t)

	bank := participant.Institution{ID: "BANK_1", Kind: participant.KindBank, Name: "First Bank", Email: "loans@firstbank.example"}
	agent := participant.Institution{ID: "BUSINESS_1", Kind: participant.KindEstateAgent, Name: "Homes Ltd", BusinessName: "Homes Ltd", CompanyNumber: "01234567"}
	require.NoError(t, store.PutInstitution(ctx, agent))
	require.NoError(t, store.PutInstitution(ctx, bank))
	require.Error(t, store.PutInstitution(ctx, participant.Institution{ID: "X", Kind: "pawnbroker"}))

	got, err := store.GetInstitution(ctx, "BUSINESS_1")
	require.NoError(t, err)
	assert.Equal(t, agent, got)

	all, err := store.ListInstitutions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []participant.Institution{bank, agent}, all)
}

func TestPropertyOffersKeepSequenceOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTempStore(t)

	p := property.Property{
		ID:       "PROPERTY_1",
		Address1: "1 New Road",
		County:   "London",
		Postcode: "AB12 3CD",
		Bedrooms: 3,
		Status:   property.StatusSoldSTC,
		OwnerID:  "PERSON_1",
		Offers: []property.Offer{
			{ID: "1", BuyerID: "PERSON_3", Amount: decimal.NewFromInt(250000)},
			{ID: "2", BuyerID: "PERSON_4", Amount: decimal.NewFromInt(280000), Accepted: true},
		},
		SurveyPerformed: true,
		SaleCycle:       0,
	}
	require.NoError(t, store.PutProperty(ctx, p))

	got, err := store.GetProperty(ctx, "PROPERTY_1")
	require.NoError(t, err)
	assert.Equal(t, p.Status, got.Status)
	assert.True(t, got.SurveyPerformed)
	assert.False(t, got.Insurance)
	require.Len(t, got.Offers, 2)
	assert.Equal(t, "1", got.Offers[0].ID)
	assert.Equal(t, "2", got.Offers[1].ID)
	assert.True(t, got.Offers[1].Accepted)
	assert.True(t, got.Offers[1].Amount.Equal(decimal.NewFromInt(280000)))

	p.Status = property.StatusNA
	p.OwnerID = "PERSON_4"
	p.SaleCycle = 1
	p.Offers = append(p.Offers, property.Offer{ID: "3", BuyerID: "PERSON_2", Amount: decimal.NewFromInt(1), Cycle: 1})
	require.NoError(t, store.PutProperty(ctx, p))

	all, err := store.ListProperties(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "PERSON_4", all[0].OwnerID)
	assert.Equal(t, 1, all[0].SaleCycle)
	require.Len(t, all[0].Offers, 3)
	assert.Equal(t, 1, all[0].Offers[2].Cycle)

	p.Offers = append(p.Offers, property.Offer{ID: "3", Amount: decimal.NewFromInt(1)})
	require.Error(t, store.PutProperty(ctx, p))
}

func TestTransactRollsBack(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTempStore(t)
	require.NoError(t, store.PutProperty(ctx, property.Property{ID: "PROPERTY_1", Status: property.StatusNA}))

	boom := errors.New("boom")
	err := store.Transact(ctx, func(ctx context.Context, tx storage.Registries) error {
		p, err := tx.GetProperty(ctx, "PROPERTY_1")
		if err != nil {
			return err
		}
		p.Status = property.StatusForSale
		if err := tx.PutProperty(ctx, p); err != nil {
			return err
		}
		if _, err := tx.AppendEvents(ctx, testEvent("evt-1")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.GetProperty(ctx, "PROPERTY_1")
	require.NoError(t, err)
	assert.Equal(t, property.StatusNA, got.Status)
	events, err := store.ListEvents(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestTransactCommits(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTempStore(t)
	require.NoError(t, store.PutProperty(ctx, property.Property{ID: "PROPERTY_1", Status: property.StatusNA}))

	var appended []event.Event
	err := store.Transact(ctx, func(ctx context.Context, tx storage.Registries) error {
		p, err := tx.GetProperty(ctx, "PROPERTY_1")
		if err != nil {
			return err
		}
		p.Status = property.StatusForSale
		if err := tx.PutProperty(ctx, p); err != nil {
			return err
		}
		appended, err = tx.AppendEvents(ctx, testEvent("evt-1"), testEvent("evt-2"))
		return err
	})
	require.NoError(t, err)
	require.Len(t, appended, 2)
	assert.Equal(t, uint64(1), appended[0].Seq)
	assert.Equal(t, uint64(2), appended[1].Seq)

	got, err := store.GetProperty(ctx, "PROPERTY_1")
	require.NoError(t, err)
	assert.Equal(t, property.StatusForSale, got.Status)
}

func TestJournalOutbox(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTempStore(t)

	appended, err := store.AppendEvents(ctx, testEvent("evt-1"), testEvent("evt-2"), testEvent("evt-3"))
	require.NoError(t, err)
	require.Len(t, appended, 3)

	_, err = store.AppendEvents(ctx, testEvent("evt-1"))
	require.Error(t, err)

	events, err := store.ListEvents(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "evt-2", events[0].ID)
	assert.Equal(t, property.EventTypeForSale, events[0].Type)
	assert.Equal(t, event.ActorTypePerson, events[0].ActorType)
	assert.JSONEq(t, `{"property_id":"PROPERTY_1","seller_id":"PERSON_1"}`, string(events[0].PayloadJSON))
	assert.True(t, events[0].Timestamp.Equal(appended[1].Timestamp))

	require.NoError(t, store.MarkPublished(ctx, time.Now(), 1, 3))
	unpublished, err := store.ListUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, unpublished, 1)
	assert.Equal(t, uint64(2), unpublished[0].Seq)

	require.ErrorIs(t, store.MarkPublished(ctx, time.Now(), 42), storage.ErrNotFound)
}

func TestCancelledContext(t *testing.T) {
	t.Parallel()
	store := openTempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.GetPerson(ctx, "PERSON_1")
	require.ErrorIs(t, err, context.Canceled)
	require.Error(t, store.Transact(ctx, func(context.Context, storage.Registries) error { return nil }))
}

func testEvent(id string) event.Event {
	return event.Event{
		ID:          id,
		Type:        property.EventTypeForSale,
		Timestamp:   time.Date(2026, 5, 1, 10, 0, 0, 123456789, time.UTC),
		ActorType:   event.ActorTypePerson,
		ActorID:     "PERSON_1",
		EntityType:  property.EntityType,
		EntityID:    "PROPERTY_1",
		PayloadJSON: []byte(`{"property_id":"PROPERTY_1","seller_id":"PERSON_1"}`),
	}
}
