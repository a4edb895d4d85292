package property

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/louisbranch/homechain/internal/services/homechain/domain/event"
)

var (
	// ErrOfferOutOfSequence indicates an offer.made event whose id is not the next id.
	ErrOfferOutOfSequence = errors.New("offer id out of sequence")
	// ErrOfferMissing indicates an offer.accepted event for an unknown offer.
	ErrOfferMissing = errors.New("offer not found")
)

// Fold applies a property event and returns the new state. The input is not modified.
func Fold(p Property, evt event.Event) (Property, error) {
	p = p.Clone()
	switch evt.Type {
	case EventTypeForSale:
		p.Status = StatusForSale
	case EventTypeOfferMade:
		var payload OfferMadePayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return Property{}, fmt.Errorf("decode %s: %w", evt.Type, err)
		}
		if want := NextOfferID(p); payload.OfferID != want {
			return Property{}, fmt.Errorf("%w: got %s, want %s", ErrOfferOutOfSequence, payload.OfferID, want)
		}
		p.Offers = append(p.Offers, NewOffer(p, payload.BuyerID, payload.Amount))
	case EventTypeOfferAccepted:
		var payload OfferAcceptedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return Property{}, fmt.Errorf("decode %s: %w", evt.Type, err)
		}
		idx := p.OfferIndex(payload.OfferID)
		if idx < 0 {
			return Property{}, fmt.Errorf("%w: %s", ErrOfferMissing, payload.OfferID)
		}
		offer := p.Offers[idx]
		offer.Accepted = true
		p.Offers[idx] = offer
		p.Status = StatusSoldSTC
	case EventTypeSurveyPerformed:
		p.SurveyPerformed = true
	case EventTypeInsuranceProvided:
		p.Insurance = true
	case EventTypeSold:
		var payload SoldPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return Property{}, fmt.Errorf("decode %s: %w", evt.Type, err)
		}
		p.Status = StatusNA
		p.OwnerID = payload.BuyerID
		p.SaleCycle++
	}
	return p, nil
}
