package participant

// Kind identifies the role an institution plays in a transaction.
type Kind string

const (
	KindBank         Kind = "bank"
	KindSurveyor     Kind = "surveyor"
	KindInsurer      Kind = "insurer"
	KindEstateAgent  Kind = "estate_agent"
	KindRegulator    Kind = "regulator"
	KindLandRegistry Kind = "land_registry"
)

// Valid reports whether the kind is known.
func (k Kind) Valid() bool {
	switch k {
	case KindBank, KindSurveyor, KindInsurer, KindEstateAgent, KindRegulator, KindLandRegistry:
		return true
	}
	return false
}

// Institution is a business participant such as a bank or surveyor.
type Institution struct {
	ID    string
	Kind  Kind
	Name  string
	Email string
	// BusinessName and CompanyNumber are set for estate agents.
	BusinessName  string
	CompanyNumber string
}
