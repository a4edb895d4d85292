package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/homechain/internal/services/homechain/domain/participant"
	"github.com/louisbranch/homechain/internal/services/homechain/domain/property"
	"github.com/louisbranch/homechain/internal/services/homechain/storage"
	"github.com/shopspring/decimal"
)

const personColumns = `id, first_name, last_name, email, mortgage_status, mortgage_bank_id, mortgage_amount`

func scanPerson(scan func(dest ...any) error) (participant.Person, error) {
	var (
		p      participant.Person
		status sql.NullString
		bankID string
		amount string
	)
	if err := scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &status, &bankID, &amount); err != nil {
		return participant.Person{}, err
	}
	if status.Valid && status.String != "" {
		value, err := decimal.NewFromString(amount)
		if err != nil {
			return participant.Person{}, fmt.Errorf("person %s mortgage amount: %w", p.ID, err)
		}
		p.Mortgage = &participant.Mortgage{
			Status: participant.MortgageStatus(status.String),
			BankID: bankID,
			Amount: value,
		}
	}
	return p, nil
}

// GetPerson returns one person by id.
func (r registries) GetPerson(ctx context.Context, id string) (participant.Person, error) {
	if err := ctx.Err(); err != nil {
		return participant.Person{}, err
	}
	row := r.q.QueryRowContext(ctx, `SELECT `+personColumns+` FROM persons WHERE id = ?`, strings.TrimSpace(id))
	p, err := scanPerson(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return participant.Person{}, storage.ErrNotFound
		}
		return participant.Person{}, classify("get person", err)
	}
	return p, nil
}

// PutPerson upserts the full person record.
func (r registries) PutPerson(ctx context.Context, p participant.Person) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("person id is required")
	}
	var (
		status sql.NullString
		bankID string
		amount = "0"
	)
	if m := p.Mortgage; m != nil {
		if !m.Status.Valid() {
			return fmt.Errorf("mortgage status %q is invalid", m.Status)
		}
		status = sql.NullString{String: string(m.Status), Valid: true}
		bankID = m.BankID
		amount = m.Amount.String()
	}
	_, err := r.q.ExecContext(ctx, `
INSERT INTO persons (`+personColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	first_name = excluded.first_name,
	last_name = excluded.last_name,
	email = excluded.email,
	mortgage_status = excluded.mortgage_status,
	mortgage_bank_id = excluded.mortgage_bank_id,
	mortgage_amount = excluded.mortgage_amount`,
		p.ID, p.FirstName, p.LastName, p.Email, status, bankID, amount,
	)
	if err != nil {
		return classify("put person", err)
	}
	return nil
}

// ListPersons returns every person ordered by id.
func (r registries) ListPersons(ctx context.Context) ([]participant.Person, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := r.q.QueryContext(ctx, `SELECT `+personColumns+` FROM persons ORDER BY id`)
	if err != nil {
		return nil, classify("list persons", err)
	}
	defer rows.Close()

	var out []participant.Person
	for rows.Next() {
		p, err := scanPerson(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const institutionColumns = `id, kind, name, email, business_name, company_number`

func scanInstitution(scan func(dest ...any) error) (participant.Institution, error) {
	var inst participant.Institution
	err := scan(&inst.ID, &inst.Kind, &inst.Name, &inst.Email, &inst.BusinessName, &inst.CompanyNumber)
	return inst, err
}

// GetInstitution returns one institution by id.
func (r registries) GetInstitution(ctx context.Context, id string) (participant.Institution, error) {
	if err := ctx.Err(); err != nil {
		return participant.Institution{}, err
	}
	row := r.q.QueryRowContext(ctx, `SELECT `+institutionColumns+` FROM institutions WHERE id = ?`, strings.TrimSpace(id))
	inst, err := scanInstitution(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return participant.Institution{}, storage.ErrNotFound
		}
		return participant.Institution{}, classify("get institution", err)
	}
	return inst, nil
}

// PutInstitution upserts an institution.
func (r registries) PutInstitution(ctx context.Context, inst participant.Institution) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(inst.ID) == "" {
		return fmt.Errorf("institution id is required")
	}
	if !inst.Kind.Valid() {
		return fmt.Errorf("institution kind %q is invalid", inst.Kind)
	}
	_, err := r.q.ExecContext(ctx, `
INSERT INTO institutions (`+institutionColumns+`)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	kind = excluded.kind,
	name = excluded.name,
	email = excluded.email,
	business_name = excluded.business_name,
	company_number = excluded.company_number`,
		inst.ID, string(inst.Kind), inst.Name, inst.Email, inst.BusinessName, inst.CompanyNumber,
	)
	if err != nil {
		return classify("put institution", err)
	}
	return nil
}

// ListInstitutions returns every institution ordered by id.
func (r registries) ListInstitutions(ctx context.Context) ([]participant.Institution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := r.q.QueryContext(ctx, `SELECT `+institutionColumns+` FROM institutions ORDER BY id`)
	if err != nil {
		return nil, classify("list institutions", err)
	}
	defer rows.Close()

	var out []participant.Institution
	for rows.Next() {
		inst, err := scanInstitution(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan institution: %w", err)
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

const propertyColumns = `id, address1, address2, county, postcode, bedrooms, status, owner_id, survey_performed, insurance, sale_cycle`

func scanProperty(scan func(dest ...any) error) (property.Property, error) {
	var (
		p         property.Property
		survey    int
		insurance int
	)
	err := scan(&p.ID, &p.Address1, &p.Address2, &p.County, &p.Postcode, &p.Bedrooms,
		&p.Status, &p.OwnerID, &survey, &insurance, &p.SaleCycle)
	if err != nil {
		return property.Property{}, err
	}
	p.SurveyPerformed = survey != 0
	p.Insurance = insurance != 0
	return p, nil
}

// GetProperty returns one property with its offers in sequence order.
func (r registries) GetProperty(ctx context.Context, id string) (property.Property, error) {
	if err := ctx.Err(); err != nil {
		return property.Property{}, err
	}
	row := r.q.QueryRowContext(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id = ?`, strings.TrimSpace(id))
	p, err := scanProperty(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return property.Property{}, storage.ErrNotFound
		}
		return property.Property{}, classify("get property", err)
	}
	offers, err := r.listOffers(ctx, p.ID)
	if err != nil {
		return property.Property{}, err
	}
	p.Offers = offers
	return p, nil
}

func (r registries) listOffers(ctx context.Context, propertyID string) ([]property.Offer, error) {
	rows, err := r.q.QueryContext(ctx, `
SELECT offer_id, buyer_id, amount, accepted, cycle
FROM offers
WHERE property_id = ?
ORDER BY position`, propertyID)
	if err != nil {
		return nil, classify("list offers", err)
	}
	defer rows.Close()

	var out []property.Offer
	for rows.Next() {
		var (
			offer    property.Offer
			amount   string
			accepted int
		)
		if err := rows.Scan(&offer.ID, &offer.BuyerID, &amount, &accepted, &offer.Cycle); err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}
		if offer.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("offer %s amount: %w", offer.ID, err)
		}
		offer.Accepted = accepted != 0
		out = append(out, offer)
	}
	return out, rows.Err()
}

// PutProperty replaces the property row and its offer list.
func (r registries) PutProperty(ctx context.Context, p property.Property) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("property id is required")
	}
	if !p.Status.Valid() {
		return fmt.Errorf("property status %q is invalid", p.Status)
	}
	_, err := r.q.ExecContext(ctx, `
INSERT INTO properties (`+propertyColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	address1 = excluded.address1,
	address2 = excluded.address2,
	county = excluded.county,
	postcode = excluded.postcode,
	bedrooms = excluded.bedrooms,
	status = excluded.status,
	owner_id = excluded.owner_id,
	survey_performed = excluded.survey_performed,
	insurance = excluded.insurance,
	sale_cycle = excluded.sale_cycle`,
		p.ID, p.Address1, p.Address2, p.County, p.Postcode, p.Bedrooms, string(p.Status),
		p.OwnerID, boolToInt(p.SurveyPerformed), boolToInt(p.Insurance), p.SaleCycle,
	)
	if err != nil {
		return classify("put property", err)
	}
	if _, err := r.q.ExecContext(ctx, `DELETE FROM offers WHERE property_id = ?`, p.ID); err != nil {
		return classify("clear offers", err)
	}
	for i, offer := range p.Offers {
		_, err := r.q.ExecContext(ctx, `
INSERT INTO offers (property_id, position, offer_id, buyer_id, amount, accepted, cycle)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.ID, i, offer.ID, offer.BuyerID, offer.Amount.String(), boolToInt(offer.Accepted), offer.Cycle,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("property %s: duplicate offer id %s", p.ID, offer.ID)
			}
			return classify("put offer", err)
		}
	}
	return nil
}

// ListProperties returns every property ordered by id.
func (r registries) ListProperties(ctx context.Context) ([]property.Property, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := r.q.QueryContext(ctx, `SELECT `+propertyColumns+` FROM properties ORDER BY id`)
	if err != nil {
		return nil, classify("list properties", err)
	}
	var out []property.Property
	for rows.Next() {
		p, err := scanProperty(rows.Scan)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan property: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range out {
		if out[i].Offers, err = r.listOffers(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}
