// Package seed loads the demo registry: people, institutions, and
// properties ready to be listed for sale.
package seed

import (
	_ "embed"
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	"github.com/louisbranch/homechain/internal/services/homechain/domain/participant"
	"github.com/louisbranch/homechain/internal/services/homechain/domain/property"
	"gopkg.in/yaml.v3"
)

//go:embed fixture.yaml
var defaultFixture []byte

const (
	maxBedrooms      = 5
	maxCompanyNumber = 10000000
)

// Fixture is the declarative demo dataset.
type Fixture struct {
	Persons      []PersonRecord      `yaml:"persons"`
	Institutions []InstitutionRecord `yaml:"institutions"`
	Properties   []PropertyRecord    `yaml:"properties"`
}

type PersonRecord struct {
	ID        string `yaml:"id"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Email     string `yaml:"email"`
}

type InstitutionRecord struct {
	ID            string `yaml:"id"`
	Kind          string `yaml:"kind"`
	Name          string `yaml:"name"`
	Email         string `yaml:"email"`
	BusinessName  string `yaml:"business_name"`
	CompanyNumber string `yaml:"company_number"`
}

type PropertyRecord struct {
	ID       string `yaml:"id"`
	Address1 string `yaml:"address1"`
	Address2 string `yaml:"address2"`
	County   string `yaml:"county"`
	Postcode string `yaml:"postcode"`
	Bedrooms int    `yaml:"bedrooms"`
	OwnerID  string `yaml:"owner_id"`
}

// DefaultFixture returns the embedded demo dataset.
func DefaultFixture() (Fixture, error) {
	return ParseFixture(defaultFixture)
}

// LoadFixture reads a fixture file, or the embedded one when path is empty.
func LoadFixture(path string) (Fixture, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultFixture()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes and validates a YAML fixture.
func ParseFixture(data []byte) (Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Fixture{}, fmt.Errorf("parse fixture: %w", err)
	}
	if err := f.validate(); err != nil {
		return Fixture{}, err
	}
	return f, nil
}

func (f Fixture) validate() error {
	seen := make(map[string]bool)
	claim := func(id string) error {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("fixture: record id is required")
		}
		if seen[id] {
			return fmt.Errorf("fixture: duplicate id %s", id)
		}
		seen[id] = true
		return nil
	}
	persons := make(map[string]bool, len(f.Persons))
	for _, p := range f.Persons {
		if err := claim(p.ID); err != nil {
			return err
		}
		persons[p.ID] = true
	}
	for _, inst := range f.Institutions {
		if err := claim(inst.ID); err != nil {
			return err
		}
		if !participant.Kind(inst.Kind).Valid() {
			return fmt.Errorf("fixture: institution %s has unknown kind %q", inst.ID, inst.Kind)
		}
	}
	for _, p := range f.Properties {
		if err := claim(p.ID); err != nil {
			return err
		}
		if !persons[p.OwnerID] {
			return fmt.Errorf("fixture: property %s owner %q is not a fixture person", p.ID, p.OwnerID)
		}
		if p.Bedrooms < 0 {
			return fmt.Errorf("fixture: property %s bedrooms must not be negative", p.ID)
		}
	}
	return nil
}

func (r PersonRecord) person() participant.Person {
	email := r.Email
	if email == "" {
		email = r.ID + "@email.com"
	}
	return participant.Person{ID: r.ID, FirstName: r.FirstName, LastName: r.LastName, Email: email}
}

func (r InstitutionRecord) institution(rng *rand.Rand) participant.Institution {
	inst := participant.Institution{
		ID:            r.ID,
		Kind:          participant.Kind(r.Kind),
		Name:          r.Name,
		Email:         r.Email,
		BusinessName:  r.BusinessName,
		CompanyNumber: r.CompanyNumber,
	}
	if inst.Kind == participant.KindEstateAgent {
		if inst.Email == "" {
			inst.Email = r.ID + "@email.com"
		}
		if inst.CompanyNumber == "" {
			inst.CompanyNumber = strconv.Itoa(rng.IntN(maxCompanyNumber) + 1)
		}
	}
	return inst
}

func (r PropertyRecord) property(rng *rand.Rand) property.Property {
	bedrooms := r.Bedrooms
	if bedrooms == 0 {
		bedrooms = rng.IntN(maxBedrooms) + 1
	}
	return property.Property{
		ID:       r.ID,
		Address1: r.Address1,
		Address2: r.Address2,
		County:   r.County,
		Postcode: r.Postcode,
		Bedrooms: bedrooms,
		Status:   property.StatusNA,
		OwnerID:  r.OwnerID,
	}
}
