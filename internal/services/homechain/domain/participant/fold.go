package participant

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/louisbranch/homechain/internal/services/homechain/domain/event"
)

// ErrMortgageMissing indicates a mortgage event folded into a person without one.
var ErrMortgageMissing = errors.New("person has no mortgage")

// Fold applies a person event and returns the new state. The input is not modified.
func Fold(person Person, evt event.Event) (Person, error) {
	person = person.Clone()
	switch evt.Type {
	case EventTypeMortgageApplied:
		var payload MortgageAppliedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return Person{}, fmt.Errorf("decode %s: %w", evt.Type, err)
		}
		if person.Mortgage == nil {
			person.Mortgage = NewMortgage(payload.BankID)
			return person, nil
		}
		person.Mortgage.Status = MortgagePending
		person.Mortgage.BankID = payload.BankID
	case EventTypeMortgageApprovedInPrinciple:
		var payload MortgageApprovedInPrinciplePayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return Person{}, fmt.Errorf("decode %s: %w", evt.Type, err)
		}
		if person.Mortgage == nil {
			return Person{}, fmt.Errorf("%s: %w", evt.Type, ErrMortgageMissing)
		}
		person.Mortgage.Status = MortgageInPrinciple
		person.Mortgage.Amount = payload.Amount
	case EventTypeMortgageRejected:
		if person.Mortgage == nil {
			return Person{}, fmt.Errorf("%s: %w", evt.Type, ErrMortgageMissing)
		}
		person.Mortgage.Status = MortgageRejected
	case EventTypeMortgageApproved:
		var payload MortgageApprovedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return Person{}, fmt.Errorf("decode %s: %w", evt.Type, err)
		}
		if person.Mortgage == nil {
			return Person{}, fmt.Errorf("%s: %w", evt.Type, ErrMortgageMissing)
		}
		person.Mortgage.Status = MortgageApproved
		person.Mortgage.Amount = payload.Amount
	}
	return person, nil
}
