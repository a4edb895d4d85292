package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/louisbranch/homechain/internal/services/homechain/domain/command"
	"github.com/louisbranch/homechain/internal/services/homechain/domain/event"
	"github.com/louisbranch/homechain/internal/services/homechain/domain/participant"
	"github.com/louisbranch/homechain/internal/services/homechain/domain/property"
	"github.com/louisbranch/homechain/internal/services/homechain/storage"
)

// scope is the transaction-scoped view of the entities one transaction touches.
// It must not outlive the unit of work it was loaded in.
type scope struct {
	property *property.Property
	persons  map[string]*participant.Person
	bank     *participant.Institution

	dirtyProperty bool
	dirtyPersons  map[string]bool
}

func newScope() *scope {
	return &scope{
		persons:      make(map[string]*participant.Person),
		dirtyPersons: make(map[string]bool),
	}
}

func (s *scope) loadProperty(ctx context.Context, regs storage.Registries, id string) error {
	p, err := regs.GetProperty(ctx, id)
	if err != nil {
		return wrapLoad(property.EntityType, id, err)
	}
	s.property = &p
	return nil
}

func (s *scope) loadPerson(ctx context.Context, regs storage.Registries, id string) (*participant.Person, error) {
	if p, ok := s.persons[id]; ok {
		return p, nil
	}
	p, err := regs.GetPerson(ctx, id)
	if err != nil {
		return nil, wrapLoad(participant.EntityType, id, err)
	}
	s.persons[id] = &p
	return &p, nil
}

func (s *scope) loadBank(ctx context.Context, regs storage.Registries, id string) error {
	inst, err := regs.GetInstitution(ctx, id)
	if err != nil {
		return wrapLoad("institution", id, err)
	}
	s.bank = &inst
	return nil
}

// loadAcceptedBuyer resolves the buyer of the current accepted offer, if any.
func (s *scope) loadAcceptedBuyer(ctx context.Context, regs storage.Registries) (*participant.Person, error) {
	offer, ok := s.property.AcceptedOffer()
	if !ok {
		return nil, nil
	}
	return s.loadPerson(ctx, regs, offer.BuyerID)
}

// resolve loads the entities tx refers to and runs its handler.
func resolve(ctx context.Context, regs storage.Registries, cmd command.Command, tx Transaction, now time.Time) (*scope, command.Decision, error) {
	s := newScope()
	var decision command.Decision
	switch t := tx.(type) {
	case RegisterForSale:
		if err := s.loadProperty(ctx, regs, t.PropertyID); err != nil {
			return nil, decision, err
		}
		seller, err := s.loadPerson(ctx, regs, t.SellerID)
		if err != nil {
			return nil, decision, err
		}
		decision = decideRegisterForSale(cmd, *s.property, *seller, now)
	case ApplyForMortgage:
		applicant, err := s.loadPerson(ctx, regs, t.ApplicantID)
		if err != nil {
			return nil, decision, err
		}
		if err := s.loadBank(ctx, regs, t.BankID); err != nil {
			return nil, decision, err
		}
		decision = decideApplyForMortgage(cmd, *applicant, *s.bank, now)
	case ApproveInPrinciple:
		applicant, err := s.loadPerson(ctx, regs, t.ApplicantID)
		if err != nil {
			return nil, decision, err
		}
		decision = decideApproveInPrinciple(cmd, t, *applicant, now)
	case RejectMortgage:
		applicant, err := s.loadPerson(ctx, regs, t.ApplicantID)
		if err != nil {
			return nil, decision, err
		}
		decision = decideRejectMortgage(cmd, *applicant, now)
	case MakeOffer:
		buyer, err := s.loadPerson(ctx, regs, t.BuyerID)
		if err != nil {
			return nil, decision, err
		}
		if err := s.loadProperty(ctx, regs, t.PropertyID); err != nil {
			return nil, decision, err
		}
		decision = decideMakeOffer(cmd, t, *buyer, *s.property, now)
	case AcceptOffer:
		if err := s.loadProperty(ctx, regs, t.PropertyID); err != nil {
			return nil, decision, err
		}
		decision = decideAcceptOffer(cmd, t, *s.property, now)
	case PerformSurvey:
		if err := s.loadProperty(ctx, regs, t.PropertyID); err != nil {
			return nil, decision, err
		}
		decision = decidePerformSurvey(cmd, *s.property, now)
	case ProvideInsurance:
		if err := s.loadProperty(ctx, regs, t.PropertyID); err != nil {
			return nil, decision, err
		}
		decision = decideProvideInsurance(cmd, *s.property, now)
	case ApproveMortgage:
		if err := s.loadProperty(ctx, regs, t.PropertyID); err != nil {
			return nil, decision, err
		}
		buyer, err := s.loadAcceptedBuyer(ctx, regs)
		if err != nil {
			return nil, decision, err
		}
		decision = decideApproveMortgage(cmd, *s.property, buyer, now)
	case CompleteSale:
		if err := s.loadProperty(ctx, regs, t.PropertyID); err != nil {
			return nil, decision, err
		}
		buyer, err := s.loadAcceptedBuyer(ctx, regs)
		if err != nil {
			return nil, decision, err
		}
		decision = decideCompleteSale(cmd, *s.property, buyer, now)
	default:
		return nil, decision, fmt.Errorf("%w: %T", command.ErrTypeUnknown, tx)
	}
	return s, decision, nil
}

// fold applies an accepted event to the entity it addresses.
func (s *scope) fold(evt event.Event) error {
	switch evt.EntityType {
	case property.EntityType:
		if s.property == nil || s.property.ID != evt.EntityID {
			return fmt.Errorf("fold %s: property %s not loaded", evt.Type, evt.EntityID)
		}
		next, err := property.Fold(*s.property, evt)
		if err != nil {
			return err
		}
		s.property = &next
		s.dirtyProperty = true
	case participant.EntityType:
		current, ok := s.persons[evt.EntityID]
		if !ok {
			return fmt.Errorf("fold %s: person %s not loaded", evt.Type, evt.EntityID)
		}
		next, err := participant.Fold(*current, evt)
		if err != nil {
			return err
		}
		s.persons[evt.EntityID] = &next
		s.dirtyPersons[evt.EntityID] = true
	default:
		return fmt.Errorf("fold %s: unknown entity type %s", evt.Type, evt.EntityType)
	}
	return nil
}

// persist writes every entity changed by fold through its owning registry.
func (s *scope) persist(ctx context.Context, regs storage.Registries) error {
	if s.dirtyProperty {
		if err := regs.PutProperty(ctx, *s.property); err != nil {
			return &StoreError{Op: "update property", Err: err}
		}
	}
	for id := range s.dirtyPersons {
		if err := regs.PutPerson(ctx, *s.persons[id]); err != nil {
			return &StoreError{Op: "update person", Err: err}
		}
	}
	return nil
}
