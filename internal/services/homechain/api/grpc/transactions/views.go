package transactions

import (
	"github.com/louisbranch/homechain/internal/services/homechain/domain/participant"
	"github.com/louisbranch/homechain/internal/services/homechain/domain/property"
)

// propertyView renders p for the read API. Amounts are decimal strings.
func propertyView(p property.Property) map[string]any {
	offers := make([]any, 0, len(p.Offers))
	for _, offer := range p.Offers {
		offers = append(offers, map[string]any{
			"id":       offer.ID,
			"amount":   offer.Amount.String(),
			"buyer_id": offer.BuyerID,
			"accepted": offer.Accepted,
			"cycle":    offer.Cycle,
		})
	}
	return map[string]any{
		"id":               p.ID,
		"address1":         p.Address1,
		"address2":         p.Address2,
		"county":           p.County,
		"postcode":         p.Postcode,
		"bedrooms":         p.Bedrooms,
		"status":           string(p.Status),
		"owner_id":         p.OwnerID,
		"offers":           offers,
		"survey_performed": p.SurveyPerformed,
		"insurance":        p.Insurance,
		"sale_cycle":       p.SaleCycle,
	}
}

func personView(p participant.Person) map[string]any {
	view := map[string]any{
		"id":         p.ID,
		"first_name": p.FirstName,
		"last_name":  p.LastName,
		"email":      p.Email,
	}
	if p.Mortgage != nil {
		view["mortgage"] = map[string]any{
			"status":  string(p.Mortgage.Status),
			"bank_id": p.Mortgage.BankID,
			"amount":  p.Mortgage.Amount.String(),
		}
	}
	return view
}
