package workflow

import "github.com/louisbranch/homechain/internal/services/homechain/domain/command"

const (
	RejectionMortgageApplicationInProgress = "MORTGAGE_APPLICATION_IN_PROGRESS"
	RejectionMortgageApplicationRequired   = "MORTGAGE_APPLICATION_REQUIRED"
	RejectionMortgageFundingRequired       = "MORTGAGE_FUNDING_REQUIRED"
	RejectionMortgageInPrincipleRequired   = "MORTGAGE_IN_PRINCIPLE_REQUIRED"
	RejectionMortgageApprovalRequired      = "MORTGAGE_APPROVAL_REQUIRED"
	RejectionMortgageLenderInvalid         = "MORTGAGE_LENDER_INVALID"
	RejectionOfferExceedsFunding           = "OFFER_EXCEEDS_FUNDING"
	RejectionOfferNotFound                 = "OFFER_NOT_FOUND"
	RejectionOfferAlreadyAccepted          = "OFFER_ALREADY_ACCEPTED"
	RejectionPropertyNotForSale            = "PROPERTY_NOT_FOR_SALE"
	RejectionPropertyOffersRequired        = "PROPERTY_OFFERS_REQUIRED"
	RejectionPropertyAcceptedOfferRequired = "PROPERTY_ACCEPTED_OFFER_REQUIRED"
	RejectionPropertyNotSoldSTC            = "PROPERTY_NOT_SOLD_STC"
	RejectionPropertySurveyRequired        = "PROPERTY_SURVEY_REQUIRED"
	RejectionPropertyInsuranceRequired     = "PROPERTY_INSURANCE_REQUIRED"
)

var rejectionMessages = map[string]string{
	RejectionMortgageApplicationInProgress: "Existing application in progress",
	RejectionMortgageApplicationRequired:   "Must apply for mortgage first",
	RejectionMortgageFundingRequired:       "Must get funding first",
	RejectionMortgageInPrincipleRequired:   "Must have in principle mortgage before full approval",
	RejectionMortgageApprovalRequired:      "Mortgage must be approved before sale",
	RejectionMortgageLenderInvalid:         "Mortgage lender must be a bank",
	RejectionOfferExceedsFunding:           "Cannot make an offer greater than funding amount",
	RejectionOfferNotFound:                 "Offer not found",
	RejectionOfferAlreadyAccepted:          "Property already has an accepted offer",
	RejectionPropertyNotForSale:            "Property must be for sale",
	RejectionPropertyOffersRequired:        "Property must have offers",
	RejectionPropertyAcceptedOfferRequired: "Property must have accepted offer",
	RejectionPropertyNotSoldSTC:            "Property must be sold stc",
	RejectionPropertySurveyRequired:        "Survey must be performed",
	RejectionPropertyInsuranceRequired:     "Insurance must be present",
}

func reject(code string) command.Decision {
	return command.Reject(command.Rejection{Code: code, Message: rejectionMessages[code]})
}

func rejectWith(code string, metadata map[string]string) command.Decision {
	return command.Reject(command.Rejection{Code: code, Message: rejectionMessages[code], Metadata: metadata})
}
