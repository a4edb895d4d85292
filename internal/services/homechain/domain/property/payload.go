package property

import "github.com/shopspring/decimal"

// ForSalePayload captures the payload for property.for_sale events.
type ForSalePayload struct {
	PropertyID string `json:"property_id"`
	SellerID   string `json:"seller_id"`
}

// OfferMadePayload captures the payload for offer.made events.
type OfferMadePayload struct {
	PropertyID string          `json:"property_id"`
	OfferID    string          `json:"offer_id"`
	BuyerID    string          `json:"buyer_id"`
	Amount     decimal.Decimal `json:"amount"`
}

// OfferAcceptedPayload captures the payload for offer.accepted events.
type OfferAcceptedPayload struct {
	PropertyID string          `json:"property_id"`
	OfferID    string          `json:"offer_id"`
	BuyerID    string          `json:"buyer_id"`
	Amount     decimal.Decimal `json:"amount"`
}

// SurveyPerformedPayload captures the payload for property.survey_performed events.
type SurveyPerformedPayload struct {
	PropertyID string `json:"property_id"`
}

// InsuranceProvidedPayload captures the payload for property.insurance_provided events.
type InsuranceProvidedPayload struct {
	PropertyID string `json:"property_id"`
}

// SoldPayload captures the payload for property.sold events.
type SoldPayload struct {
	PropertyID      string          `json:"property_id"`
	BuyerID         string          `json:"buyer_id"`
	PreviousOwnerID string          `json:"previous_owner_id"`
	OfferID         string          `json:"offer_id"`
	Price           decimal.Decimal `json:"price"`
}
