package property

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Status is the sale status of a property.
type Status string

const (
	StatusNA      Status = "NA"
	StatusForSale Status = "FOR_SALE"
	StatusSoldSTC Status = "SOLD_STC"
)

// Valid reports whether the status is known.
func (s Status) Valid() bool {
	switch s {
	case StatusNA, StatusForSale, StatusSoldSTC:
		return true
	}
	return false
}

// Offer is a bid made by a buyer on a property.
type Offer struct {
	// ID is the 1-based position of the offer in the property's offer sequence.
	ID       string
	Amount   decimal.Decimal
	BuyerID  string
	Accepted bool
	// Cycle is the sale cycle the offer was made in.
	Cycle int
}

// NewOffer builds the next offer for p. The id is never reused.
func NewOffer(p Property, buyerID string, amount decimal.Decimal) Offer {
	return Offer{
		ID:      NextOfferID(p),
		Amount:  amount,
		BuyerID: buyerID,
		Cycle:   p.SaleCycle,
	}
}

// NextOfferID returns the id the next offer on p receives.
func NextOfferID(p Property) string {
	return strconv.Itoa(len(p.Offers) + 1)
}

// Property is a sellable asset held in the registry.
type Property struct {
	ID       string
	Address1 string
	Address2 string
	County   string
	Postcode string
	Bedrooms int
	Status   Status
	OwnerID  string
	Offers   []Offer
	// SurveyPerformed and Insurance gate sale completion.
	SurveyPerformed bool
	Insurance       bool
	// SaleCycle counts completed sales.
	SaleCycle int
}

// Clone returns a copy that shares no mutable state with p.
func (p Property) Clone() Property {
	if p.Offers != nil {
		p.Offers = append([]Offer(nil), p.Offers...)
	}
	return p
}

// OfferIndex returns the position of the offer with id, or -1.
func (p Property) OfferIndex(id string) int {
	for i := range p.Offers {
		if p.Offers[i].ID == id {
			return i
		}
	}
	return -1
}

// HasCurrentOffers reports whether any offer was made in the current sale cycle.
func (p Property) HasCurrentOffers() bool {
	for i := range p.Offers {
		if p.Offers[i].Cycle == p.SaleCycle {
			return true
		}
	}
	return false
}

// AcceptedOffer returns the first accepted offer of the current sale cycle,
// scanning in sequence order.
func (p Property) AcceptedOffer() (Offer, bool) {
	for _, offer := range p.Offers {
		if offer.Cycle == p.SaleCycle && offer.Accepted {
			return offer, true
		}
	}
	return Offer{}, false
}
