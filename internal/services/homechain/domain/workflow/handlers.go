package workflow

import (
	"encoding/json"
	"time"

	"github.com/louisbranch/homechain/internal/services/homechain/domain/command"
	"github.com/louisbranch/homechain/internal/services/homechain/domain/event"
	"github.com/louisbranch/homechain/internal/services/homechain/domain/participant"
	"github.com/louisbranch/homechain/internal/services/homechain/domain/property"
)

func decideRegisterForSale(cmd command.Command, p property.Property, seller participant.Person, now time.Time) command.Decision {
	return accept(cmd, property.EventTypeForSale, property.EntityType, p.ID, property.ForSalePayload{
		PropertyID: p.ID,
		SellerID:   seller.ID,
	}, now)
}

func decideApplyForMortgage(cmd command.Command, applicant participant.Person, bank participant.Institution, now time.Time) command.Decision {
	if applicant.MortgageIs(participant.MortgagePending) {
		return reject(RejectionMortgageApplicationInProgress)
	}
	if bank.Kind != participant.KindBank {
		return rejectWith(RejectionMortgageLenderInvalid, map[string]string{"id": bank.ID})
	}
	return accept(cmd, participant.EventTypeMortgageApplied, participant.EntityType, applicant.ID, participant.MortgageAppliedPayload{
		PersonID: applicant.ID,
		BankID:   bank.ID,
	}, now)
}

func decideApproveInPrinciple(cmd command.Command, tx ApproveInPrinciple, applicant participant.Person, now time.Time) command.Decision {
	if !applicant.MortgageIs(participant.MortgagePending) {
		return reject(RejectionMortgageApplicationRequired)
	}
	return accept(cmd, participant.EventTypeMortgageApprovedInPrinciple, participant.EntityType, applicant.ID, participant.MortgageApprovedInPrinciplePayload{
		PersonID: applicant.ID,
		BankID:   applicant.Mortgage.BankID,
		Amount:   tx.Amount,
	}, now)
}

func decideRejectMortgage(cmd command.Command, applicant participant.Person, now time.Time) command.Decision {
	if !applicant.MortgageIs(participant.MortgagePending) {
		return reject(RejectionMortgageApplicationRequired)
	}
	return accept(cmd, participant.EventTypeMortgageRejected, participant.EntityType, applicant.ID, participant.MortgageRejectedPayload{
		PersonID: applicant.ID,
		BankID:   applicant.Mortgage.BankID,
	}, now)
}

func decideMakeOffer(cmd command.Command, tx MakeOffer, buyer participant.Person, p property.Property, now time.Time) command.Decision {
	if !buyer.MortgageIs(participant.MortgageInPrinciple) {
		return reject(RejectionMortgageFundingRequired)
	}
	if tx.Amount.GreaterThan(buyer.Mortgage.Amount) {
		return reject(RejectionOfferExceedsFunding)
	}
	if p.Status != property.StatusForSale {
		return reject(RejectionPropertyNotForSale)
	}
	offer := property.NewOffer(p, buyer.ID, tx.Amount)
	return accept(cmd, property.EventTypeOfferMade, property.EntityType, p.ID, property.OfferMadePayload{
		PropertyID: p.ID,
		OfferID:    offer.ID,
		BuyerID:    offer.BuyerID,
		Amount:     offer.Amount,
	}, now)
}

func decideAcceptOffer(cmd command.Command, tx AcceptOffer, p property.Property, now time.Time) command.Decision {
	if p.Status != property.StatusForSale {
		return reject(RejectionPropertyNotForSale)
	}
	idx := p.OfferIndex(tx.OfferID)
	// Offers from earlier sale cycles stay on record but cannot be accepted.
	if idx < 0 || p.Offers[idx].Cycle != p.SaleCycle {
		return rejectWith(RejectionOfferNotFound, map[string]string{"property_id": p.ID, "offer_id": tx.OfferID})
	}
	if _, ok := p.AcceptedOffer(); ok {
		return reject(RejectionOfferAlreadyAccepted)
	}
	offer := p.Offers[idx]
	return accept(cmd, property.EventTypeOfferAccepted, property.EntityType, p.ID, property.OfferAcceptedPayload{
		PropertyID: p.ID,
		OfferID:    offer.ID,
		BuyerID:    offer.BuyerID,
		Amount:     offer.Amount,
	}, now)
}

func decidePerformSurvey(cmd command.Command, p property.Property, now time.Time) command.Decision {
	return accept(cmd, property.EventTypeSurveyPerformed, property.EntityType, p.ID, property.SurveyPerformedPayload{
		PropertyID: p.ID,
	}, now)
}

func decideProvideInsurance(cmd command.Command, p property.Property, now time.Time) command.Decision {
	return accept(cmd, property.EventTypeInsuranceProvided, property.EntityType, p.ID, property.InsuranceProvidedPayload{
		PropertyID: p.ID,
	}, now)
}

// decideApproveMortgage approves the buyer of the accepted offer for the
// offer amount. buyer is nil when no offer has been accepted.
func decideApproveMortgage(cmd command.Command, p property.Property, buyer *participant.Person, now time.Time) command.Decision {
	if !p.HasCurrentOffers() {
		return reject(RejectionPropertyOffersRequired)
	}
	offer, ok := p.AcceptedOffer()
	if !ok || buyer == nil {
		return reject(RejectionPropertyAcceptedOfferRequired)
	}
	if !buyer.MortgageIs(participant.MortgageInPrinciple) {
		return reject(RejectionMortgageInPrincipleRequired)
	}
	return accept(cmd, participant.EventTypeMortgageApproved, participant.EntityType, buyer.ID, participant.MortgageApprovedPayload{
		PersonID:   buyer.ID,
		BankID:     buyer.Mortgage.BankID,
		PropertyID: p.ID,
		OfferID:    offer.ID,
		Amount:     offer.Amount,
	}, now)
}

func decideCompleteSale(cmd command.Command, p property.Property, buyer *participant.Person, now time.Time) command.Decision {
	if p.Status != property.StatusSoldSTC {
		return reject(RejectionPropertyNotSoldSTC)
	}
	if !p.SurveyPerformed {
		return reject(RejectionPropertySurveyRequired)
	}
	if !p.Insurance {
		return reject(RejectionPropertyInsuranceRequired)
	}
	offer, ok := p.AcceptedOffer()
	if !ok || buyer == nil {
		return reject(RejectionPropertyAcceptedOfferRequired)
	}
	if !buyer.MortgageIs(participant.MortgageApproved) {
		return reject(RejectionMortgageApprovalRequired)
	}
	return accept(cmd, property.EventTypeSold, property.EntityType, p.ID, property.SoldPayload{
		PropertyID:      p.ID,
		BuyerID:         buyer.ID,
		PreviousOwnerID: p.OwnerID,
		OfferID:         offer.ID,
		Price:           offer.Amount,
	}, now)
}

// accept wraps payload in the single event of an accepted decision. Event
// payloads hold only strings and decimals, which always encode.
func accept(cmd command.Command, eventType event.Type, entityType, entityID string, payload any, now time.Time) command.Decision {
	payloadJSON, _ := json.Marshal(payload)
	return command.Accept(command.NewEvent(cmd, eventType, entityType, entityID, payloadJSON, now.UTC()))
}
