package participant

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/louisbranch/homechain/internal/services/homechain/domain/event"
)

// EntityType addresses person events.
const EntityType = "person"

const (
	EventTypeMortgageApplied             event.Type = "mortgage.applied"
	EventTypeMortgageApprovedInPrinciple event.Type = "mortgage.approved_in_principle"
	EventTypeMortgageRejected            event.Type = "mortgage.rejected"
	EventTypeMortgageApproved            event.Type = "mortgage.approved"
)

// RegisterEvents registers person events with the shared registry.
func RegisterEvents(registry *event.Registry) error {
	if registry == nil {
		return errors.New("event registry is required")
	}
	definitions := []event.Definition{
		{Type: EventTypeMortgageApplied, EntityType: EntityType, ValidatePayload: validateAppliedPayload},
		{Type: EventTypeMortgageApprovedInPrinciple, EntityType: EntityType, ValidatePayload: validateInPrinciplePayload},
		{Type: EventTypeMortgageRejected, EntityType: EntityType, ValidatePayload: validateRejectedPayload},
		{Type: EventTypeMortgageApproved, EntityType: EntityType, ValidatePayload: validateApprovedPayload},
	}
	for _, def := range definitions {
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}

func validateAppliedPayload(raw json.RawMessage) error {
	var payload MortgageAppliedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	return requireIDs(payload.PersonID, payload.BankID)
}

func validateInPrinciplePayload(raw json.RawMessage) error {
	var payload MortgageApprovedInPrinciplePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	if !payload.Amount.IsPositive() {
		return errors.New("amount must be positive")
	}
	return requireIDs(payload.PersonID, payload.BankID)
}

func validateRejectedPayload(raw json.RawMessage) error {
	var payload MortgageRejectedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	return requireIDs(payload.PersonID, payload.BankID)
}

func validateApprovedPayload(raw json.RawMessage) error {
	var payload MortgageApprovedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	if !payload.Amount.IsPositive() {
		return errors.New("amount must be positive")
	}
	if strings.TrimSpace(payload.PropertyID) == "" {
		return errors.New("property_id is required")
	}
	return requireIDs(payload.PersonID, payload.BankID)
}

func requireIDs(personID, bankID string) error {
	if strings.TrimSpace(personID) == "" {
		return errors.New("person_id is required")
	}
	if strings.TrimSpace(bankID) == "" {
		return errors.New("bank_id is required")
	}
	return nil
}
