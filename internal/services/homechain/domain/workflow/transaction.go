package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/homechain/internal/services/homechain/domain/command"
	"github.com/shopspring/decimal"
)

const (
	CommandTypeRegisterForSale    command.Type = "property.register_for_sale"
	CommandTypeApplyForMortgage   command.Type = "mortgage.apply"
	CommandTypeApproveInPrinciple command.Type = "mortgage.approve_in_principle"
	CommandTypeRejectMortgage     command.Type = "mortgage.reject"
	CommandTypeMakeOffer          command.Type = "offer.make"
	CommandTypeAcceptOffer        command.Type = "offer.accept"
	CommandTypePerformSurvey      command.Type = "property.perform_survey"
	CommandTypeProvideInsurance   command.Type = "property.provide_insurance"
	CommandTypeApproveMortgage    command.Type = "mortgage.approve"
	CommandTypeCompleteSale       command.Type = "property.complete_sale"
)

// Transaction is the closed set of transaction payloads the processor accepts.
type Transaction interface {
	CommandType() command.Type
	validate() error
}

// RegisterForSale lists a property for sale.
type RegisterForSale struct {
	PropertyID string `json:"property_id"`
	SellerID   string `json:"seller_id"`
}

// ApplyForMortgage opens a mortgage application with a bank.
type ApplyForMortgage struct {
	ApplicantID string `json:"applicant_id"`
	BankID      string `json:"bank_id"`
}

// ApproveInPrinciple grants a pending application up to Amount.
type ApproveInPrinciple struct {
	ApplicantID string          `json:"applicant_id"`
	Amount      decimal.Decimal `json:"amount"`
}

// RejectMortgage declines a pending application.
type RejectMortgage struct {
	ApplicantID string `json:"applicant_id"`
}

// MakeOffer bids Amount on a property.
type MakeOffer struct {
	PropertyID string          `json:"property_id"`
	BuyerID    string          `json:"buyer_id"`
	Amount     decimal.Decimal `json:"amount"`
}

// AcceptOffer accepts one offer on a property.
type AcceptOffer struct {
	PropertyID string `json:"property_id"`
	OfferID    string `json:"offer_id"`
}

// PerformSurvey records that a property has been surveyed.
type PerformSurvey struct {
	PropertyID string `json:"property_id"`
}

// ProvideInsurance records that a property is insured.
type ProvideInsurance struct {
	PropertyID string `json:"property_id"`
}

// ApproveMortgage fully approves the mortgage of the accepted offer's buyer.
type ApproveMortgage struct {
	PropertyID string `json:"property_id"`
}

// CompleteSale transfers a property to the accepted offer's buyer.
type CompleteSale struct {
	PropertyID string `json:"property_id"`
}

func (RegisterForSale) CommandType() command.Type    { return CommandTypeRegisterForSale }
func (ApplyForMortgage) CommandType() command.Type   { return CommandTypeApplyForMortgage }
func (ApproveInPrinciple) CommandType() command.Type { return CommandTypeApproveInPrinciple }
func (RejectMortgage) CommandType() command.Type     { return CommandTypeRejectMortgage }
func (MakeOffer) CommandType() command.Type          { return CommandTypeMakeOffer }
func (AcceptOffer) CommandType() command.Type        { return CommandTypeAcceptOffer }
func (PerformSurvey) CommandType() command.Type      { return CommandTypePerformSurvey }
func (ProvideInsurance) CommandType() command.Type   { return CommandTypeProvideInsurance }
func (ApproveMortgage) CommandType() command.Type    { return CommandTypeApproveMortgage }
func (CompleteSale) CommandType() command.Type       { return CommandTypeCompleteSale }

func (t RegisterForSale) validate() error {
	return requireIDs("property_id", t.PropertyID, "seller_id", t.SellerID)
}

func (t ApplyForMortgage) validate() error {
	return requireIDs("applicant_id", t.ApplicantID, "bank_id", t.BankID)
}

func (t ApproveInPrinciple) validate() error {
	if err := requireIDs("applicant_id", t.ApplicantID); err != nil {
		return err
	}
	return requirePositive(t.Amount)
}

func (t RejectMortgage) validate() error {
	return requireIDs("applicant_id", t.ApplicantID)
}

func (t MakeOffer) validate() error {
	if err := requireIDs("property_id", t.PropertyID, "buyer_id", t.BuyerID); err != nil {
		return err
	}
	return requirePositive(t.Amount)
}

func (t AcceptOffer) validate() error {
	return requireIDs("property_id", t.PropertyID, "offer_id", t.OfferID)
}

func (t PerformSurvey) validate() error    { return requireIDs("property_id", t.PropertyID) }
func (t ProvideInsurance) validate() error { return requireIDs("property_id", t.PropertyID) }
func (t ApproveMortgage) validate() error  { return requireIDs("property_id", t.PropertyID) }
func (t CompleteSale) validate() error     { return requireIDs("property_id", t.PropertyID) }

// newTransaction returns an empty payload for a command type.
func newTransaction(cmdType command.Type) (Transaction, bool) {
	switch cmdType {
	case CommandTypeRegisterForSale:
		return &RegisterForSale{}, true
	case CommandTypeApplyForMortgage:
		return &ApplyForMortgage{}, true
	case CommandTypeApproveInPrinciple:
		return &ApproveInPrinciple{}, true
	case CommandTypeRejectMortgage:
		return &RejectMortgage{}, true
	case CommandTypeMakeOffer:
		return &MakeOffer{}, true
	case CommandTypeAcceptOffer:
		return &AcceptOffer{}, true
	case CommandTypePerformSurvey:
		return &PerformSurvey{}, true
	case CommandTypeProvideInsurance:
		return &ProvideInsurance{}, true
	case CommandTypeApproveMortgage:
		return &ApproveMortgage{}, true
	case CommandTypeCompleteSale:
		return &CompleteSale{}, true
	}
	return nil, false
}

// Decode maps a command envelope onto its transaction payload. Identifiers
// are trimmed.
func Decode(cmd command.Command) (Transaction, error) {
	target, ok := newTransaction(cmd.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %s", command.ErrTypeUnknown, cmd.Type)
	}
	raw := cmd.PayloadJSON
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return nil, fmt.Errorf("%w: %w", command.ErrPayloadInvalid, err)
	}
	tx := deref(target)
	if err := tx.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", command.ErrPayloadInvalid, err)
	}
	return tx, nil
}

// NewCommand wraps a transaction in a command envelope.
func NewCommand(tx Transaction, actorType command.ActorType, actorID string) (command.Command, error) {
	if tx == nil {
		return command.Command{}, errors.New("transaction is required")
	}
	payload, err := json.Marshal(tx)
	if err != nil {
		return command.Command{}, fmt.Errorf("encode %s: %w", tx.CommandType(), err)
	}
	return command.Command{
		Type:        tx.CommandType(),
		ActorType:   actorType,
		ActorID:     actorID,
		PayloadJSON: payload,
	}, nil
}

// RegisterCommands registers every transaction type with the shared registry.
func RegisterCommands(registry *command.Registry) error {
	if registry == nil {
		return errors.New("command registry is required")
	}
	for _, cmdType := range CommandTypes() {
		if err := registry.Register(command.Definition{
			Type: cmdType,
			ValidatePayload: func(raw json.RawMessage) error {
				_, err := Decode(command.Command{Type: cmdType, PayloadJSON: raw})
				return err
			},
		}); err != nil {
			return err
		}
	}
	return nil
}

// CommandTypes lists the transaction types in lifecycle order.
func CommandTypes() []command.Type {
	return []command.Type{
		CommandTypeRegisterForSale,
		CommandTypeApplyForMortgage,
		CommandTypeApproveInPrinciple,
		CommandTypeRejectMortgage,
		CommandTypeMakeOffer,
		CommandTypeAcceptOffer,
		CommandTypePerformSurvey,
		CommandTypeProvideInsurance,
		CommandTypeApproveMortgage,
		CommandTypeCompleteSale,
	}
}

func deref(tx Transaction) Transaction {
	switch t := tx.(type) {
	case *RegisterForSale:
		t.PropertyID, t.SellerID = trim(t.PropertyID), trim(t.SellerID)
		return *t
	case *ApplyForMortgage:
		t.ApplicantID, t.BankID = trim(t.ApplicantID), trim(t.BankID)
		return *t
	case *ApproveInPrinciple:
		t.ApplicantID = trim(t.ApplicantID)
		return *t
	case *RejectMortgage:
		t.ApplicantID = trim(t.ApplicantID)
		return *t
	case *MakeOffer:
		t.PropertyID, t.BuyerID = trim(t.PropertyID), trim(t.BuyerID)
		return *t
	case *AcceptOffer:
		t.PropertyID, t.OfferID = trim(t.PropertyID), trim(t.OfferID)
		return *t
	case *PerformSurvey:
		t.PropertyID = trim(t.PropertyID)
		return *t
	case *ProvideInsurance:
		t.PropertyID = trim(t.PropertyID)
		return *t
	case *ApproveMortgage:
		t.PropertyID = trim(t.PropertyID)
		return *t
	case *CompleteSale:
		t.PropertyID = trim(t.PropertyID)
		return *t
	}
	return tx
}

func trim(s string) string { return strings.TrimSpace(s) }

// requireIDs checks field/value pairs for blank values.
func requireIDs(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if trim(pairs[i+1]) == "" {
			return fmt.Errorf("%s is required", pairs[i])
		}
	}
	return nil
}

func requirePositive(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return errors.New("amount must be positive")
	}
	return nil
}
