package property

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/louisbranch/homechain/internal/services/homechain/domain/event"
)

// EntityType addresses property events.
const EntityType = "property"

const (
	EventTypeForSale           event.Type = "property.for_sale"
	EventTypeOfferMade         event.Type = "offer.made"
	EventTypeOfferAccepted     event.Type = "offer.accepted"
	EventTypeSurveyPerformed   event.Type = "property.survey_performed"
	EventTypeInsuranceProvided event.Type = "property.insurance_provided"
	EventTypeSold              event.Type = "property.sold"
)

// RegisterEvents registers property events with the shared registry.
func RegisterEvents(registry *event.Registry) error {
	if registry == nil {
		return errors.New("event registry is required")
	}
	definitions := []event.Definition{
		{Type: EventTypeForSale, EntityType: EntityType, ValidatePayload: validateForSalePayload},
		{Type: EventTypeOfferMade, EntityType: EntityType, ValidatePayload: validateOfferMadePayload},
		{Type: EventTypeOfferAccepted, EntityType: EntityType, ValidatePayload: validateOfferAcceptedPayload},
		{Type: EventTypeSurveyPerformed, EntityType: EntityType, ValidatePayload: validatePropertyOnly},
		{Type: EventTypeInsuranceProvided, EntityType: EntityType, ValidatePayload: validatePropertyOnly},
		{Type: EventTypeSold, EntityType: EntityType, ValidatePayload: validateSoldPayload},
	}
	for _, def := range definitions {
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}

func validateForSalePayload(raw json.RawMessage) error {
	var payload ForSalePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	if err := requireID("property_id", payload.PropertyID); err != nil {
		return err
	}
	return requireID("seller_id", payload.SellerID)
}

func validateOfferMadePayload(raw json.RawMessage) error {
	var payload OfferMadePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	return validateOffer(payload.PropertyID, payload.OfferID, payload.BuyerID, payload.Amount.IsPositive())
}

func validateOfferAcceptedPayload(raw json.RawMessage) error {
	var payload OfferAcceptedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	return validateOffer(payload.PropertyID, payload.OfferID, payload.BuyerID, payload.Amount.IsPositive())
}

func validatePropertyOnly(raw json.RawMessage) error {
	var payload SurveyPerformedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	return requireID("property_id", payload.PropertyID)
}

func validateSoldPayload(raw json.RawMessage) error {
	var payload SoldPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	if err := requireID("property_id", payload.PropertyID); err != nil {
		return err
	}
	if err := requireID("buyer_id", payload.BuyerID); err != nil {
		return err
	}
	if !payload.Price.IsPositive() {
		return errors.New("price must be positive")
	}
	return nil
}

func validateOffer(propertyID, offerID, buyerID string, positive bool) error {
	if err := requireID("property_id", propertyID); err != nil {
		return err
	}
	if err := requireID("offer_id", offerID); err != nil {
		return err
	}
	if err := requireID("buyer_id", buyerID); err != nil {
		return err
	}
	if !positive {
		return errors.New("amount must be positive")
	}
	return nil
}

func requireID(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New(field + " is required")
	}
	return nil
}
