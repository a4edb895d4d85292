package participant

import "github.com/shopspring/decimal"

// MortgageAppliedPayload captures the payload for mortgage.applied events.
type MortgageAppliedPayload struct {
	PersonID string `json:"person_id"`
	BankID   string `json:"bank_id"`
}

// MortgageApprovedInPrinciplePayload captures the payload for
// mortgage.approved_in_principle events.
type MortgageApprovedInPrinciplePayload struct {
	PersonID string          `json:"person_id"`
	BankID   string          `json:"bank_id"`
	Amount   decimal.Decimal `json:"amount"`
}

// MortgageRejectedPayload captures the payload for mortgage.rejected events.
type MortgageRejectedPayload struct {
	PersonID string `json:"person_id"`
	BankID   string `json:"bank_id"`
}

// MortgageApprovedPayload captures the payload for mortgage.approved events.
// Amount is the accepted offer amount on PropertyID.
type MortgageApprovedPayload struct {
	PersonID   string          `json:"person_id"`
	BankID     string          `json:"bank_id"`
	PropertyID string          `json:"property_id"`
	OfferID    string          `json:"offer_id"`
	Amount     decimal.Decimal `json:"amount"`
}
