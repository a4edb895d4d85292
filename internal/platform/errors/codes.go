// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Transaction envelope errors
	CodeTransactionTypeUnknown    Code = "TRANSACTION_TYPE_UNKNOWN"
	CodeTransactionPayloadInvalid Code = "TRANSACTION_PAYLOAD_INVALID"
	CodeTransactionActorInvalid   Code = "TRANSACTION_ACTOR_INVALID"

	// Mortgage errors
	CodeMortgageApplicationInProgress Code = "MORTGAGE_APPLICATION_IN_PROGRESS"
	CodeMortgageApplicationRequired   Code = "MORTGAGE_APPLICATION_REQUIRED"
	CodeMortgageFundingRequired       Code = "MORTGAGE_FUNDING_REQUIRED"
	CodeMortgageInPrincipleRequired   Code = "MORTGAGE_IN_PRINCIPLE_REQUIRED"
	CodeMortgageApprovalRequired      Code = "MORTGAGE_APPROVAL_REQUIRED"
	CodeMortgageLenderInvalid         Code = "MORTGAGE_LENDER_INVALID"

	// Offer errors
	CodeOfferExceedsFunding  Code = "OFFER_EXCEEDS_FUNDING"
	CodeOfferNotFound        Code = "OFFER_NOT_FOUND"
	CodeOfferAlreadyAccepted Code = "OFFER_ALREADY_ACCEPTED"

	// Property errors
	CodePropertyNotForSale            Code = "PROPERTY_NOT_FOR_SALE"
	CodePropertyOffersRequired        Code = "PROPERTY_OFFERS_REQUIRED"
	CodePropertyAcceptedOfferRequired Code = "PROPERTY_ACCEPTED_OFFER_REQUIRED"
	CodePropertyNotSoldSTC            Code = "PROPERTY_NOT_SOLD_STC"
	CodePropertySurveyRequired        Code = "PROPERTY_SURVEY_REQUIRED"
	CodePropertyInsuranceRequired     Code = "PROPERTY_INSURANCE_REQUIRED"

	// Storage and transport errors
	CodeNotFound         Code = "NOT_FOUND"
	CodeStoreUnavailable Code = "STORE_UNAVAILABLE"
	CodeRateLimited      Code = "RATE_LIMITED"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeTransactionTypeUnknown,
		CodeTransactionPayloadInvalid,
		CodeTransactionActorInvalid,
		CodeMortgageLenderInvalid:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeMortgageApplicationInProgress,
		CodeMortgageApplicationRequired,
		CodeMortgageFundingRequired,
		CodeMortgageInPrincipleRequired,
		CodeMortgageApprovalRequired,
		CodeOfferExceedsFunding,
		CodeOfferAlreadyAccepted,
		CodePropertyNotForSale,
		CodePropertyOffersRequired,
		CodePropertyAcceptedOfferRequired,
		CodePropertyNotSoldSTC,
		CodePropertySurveyRequired,
		CodePropertyInsuranceRequired:
		return codes.FailedPrecondition

	// NotFound - resource doesn't exist
	case CodeNotFound,
		CodeOfferNotFound:
		return codes.NotFound

	case CodeRateLimited:
		return codes.ResourceExhausted

	// Unavailable - infrastructure failure, caller may retry
	case CodeStoreUnavailable:
		return codes.Unavailable

	default:
		return codes.Internal
	}
}
