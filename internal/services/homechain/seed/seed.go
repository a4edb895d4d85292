package seed

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/louisbranch/homechain/internal/services/homechain/storage"
)

// Report counts the records a seed run created and left alone.
type Report struct {
	Created int
	Skipped int
}

// Seed writes every fixture record that is not already in the store, in
// one unit of work. Existing records are never overwritten, so reruns are
// safe. rng draws bedrooms and company numbers left blank in the fixture.
func Seed(ctx context.Context, store storage.Store, fixture Fixture, rng *rand.Rand) (Report, error) {
	if store == nil {
		return Report{}, errors.New("store is required")
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if err := fixture.validate(); err != nil {
		return Report{}, err
	}

	var report Report
	err := store.Transact(ctx, func(ctx context.Context, tx storage.Registries) error {
		report = Report{}
		for _, rec := range fixture.Persons {
			created, err := putIfMissing(ctx, rec.ID, tx.GetPerson, func() error {
				return tx.PutPerson(ctx, rec.person())
			})
			if err != nil {
				return err
			}
			report.count(created)
		}
		for _, rec := range fixture.Institutions {
			created, err := putIfMissing(ctx, rec.ID, tx.GetInstitution, func() error {
				return tx.PutInstitution(ctx, rec.institution(rng))
			})
			if err != nil {
				return err
			}
			report.count(created)
		}
		for _, rec := range fixture.Properties {
			created, err := putIfMissing(ctx, rec.ID, tx.GetProperty, func() error {
				return tx.PutProperty(ctx, rec.property(rng))
			})
			if err != nil {
				return err
			}
			report.count(created)
		}
		return nil
	})
	if err != nil {
		return Report{}, err
	}
	return report, nil
}

func (r *Report) count(created bool) {
	if created {
		r.Created++
	} else {
		r.Skipped++
	}
}

func putIfMissing[T any](ctx context.Context, id string, get func(context.Context, string) (T, error), put func() error) (bool, error) {
	_, err := get(ctx, id)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, storage.ErrNotFound):
		return true, put()
	default:
		return false, err
	}
}
