package participant

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MortgageStatus is the lifecycle phase of a mortgage.
type MortgageStatus string

const (
	MortgagePending     MortgageStatus = "PENDING"
	MortgageInPrinciple MortgageStatus = "IN_PRINCIPLE"
	MortgageApproved    MortgageStatus = "APPROVED"
	MortgageRejected    MortgageStatus = "REJECTED"
)

// Valid reports whether the status is a known mortgage status.
func (s MortgageStatus) Valid() bool {
	switch s {
	case MortgagePending, MortgageInPrinciple, MortgageApproved, MortgageRejected:
		return true
	}
	return false
}

// Mortgage is the single mortgage a person may hold.
type Mortgage struct {
	Status MortgageStatus
	BankID string
	// Amount is zero until the mortgage is approved in principle.
	Amount decimal.Decimal
}

// NewMortgage returns a pending application with the given bank.
func NewMortgage(bankID string) *Mortgage {
	return &Mortgage{Status: MortgagePending, BankID: strings.TrimSpace(bankID)}
}

// Person is a registry participant who may buy or sell property.
type Person struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	// Mortgage is nil until the person first applies.
	Mortgage *Mortgage
}

// MortgageIs reports whether the person holds a mortgage in the given status.
func (p Person) MortgageIs(status MortgageStatus) bool {
	return p.Mortgage != nil && p.Mortgage.Status == status
}

// FullName joins first and last names.
func (p Person) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Clone returns a copy that shares no mutable state with p.
func (p Person) Clone() Person {
	if p.Mortgage != nil {
		m := *p.Mortgage
		p.Mortgage = &m
	}
	return p
}
