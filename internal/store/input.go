package store

import (
	"strings"

	"github.com/diewo77/client-ledger/internal/models"
	"github.com/diewo77/client-ledger/validation"
	"github.com/shopspring/decimal"
)

const (
	maxNameLen     = 255
	maxNoteLen     = 5000
	maxURLLen      = 1024
	maxPhoneLen    = 50
	maxIndustryLen = 255
)

// CreateClientInput is the payload of a new client. Status is always PENDING.
type CreateClientInput struct {
	Name        string          `json:"name"`
	Industry    string          `json:"industry"`
	Phone       string          `json:"phone"`
	LogoURL     string          `json:"logoUrl"`
	ProjectURL  string          `json:"projectUrl"`
	RepoURL     string          `json:"repoUrl"`
	PriceQuoted decimal.Decimal `json:"priceQuoted"`
	AmountPaid  decimal.Decimal `json:"amountPaid"`
}

// Validate trims text fields and checks the payload.
func (in *CreateClientInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Industry = strings.TrimSpace(in.Industry)
	in.Phone = strings.TrimSpace(in.Phone)
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.MaxLen("name", in.Name, maxNameLen, v)
	validation.MaxLen("industry", in.Industry, maxIndustryLen, v)
	validation.MaxLen("phone", in.Phone, maxPhoneLen, v)
	checkURLs(v, map[string]string{"logoUrl": in.LogoURL, "projectUrl": in.ProjectURL, "repoUrl": in.RepoURL})
	validation.NonNegative("priceQuoted", in.PriceQuoted, v)
	validation.Money("priceQuoted", in.PriceQuoted, v)
	validation.NonNegative("amountPaid", in.AmountPaid, v)
	validation.Money("amountPaid", in.AmountPaid, v)
	if v.Empty() {
		return nil
	}
	return v
}

// UpdateClientInput holds optional field changes; nil means unchanged.
type UpdateClientInput struct {
	Name        *string          `json:"name,omitempty"`
	Industry    *string          `json:"industry,omitempty"`
	Phone       *string          `json:"phone,omitempty"`
	LogoURL     *string          `json:"logoUrl,omitempty"`
	ProjectURL  *string          `json:"projectUrl,omitempty"`
	RepoURL     *string          `json:"repoUrl,omitempty"`
	Status      *models.Status   `json:"status,omitempty"`
	PriceQuoted *decimal.Decimal `json:"priceQuoted,omitempty"`
	AmountPaid  *decimal.Decimal `json:"amountPaid,omitempty"`
}

// Validate checks the fields that are set.
func (in *UpdateClientInput) Validate() error {
	v := validation.Violations{}
	if in.Name != nil {
		*in.Name = strings.TrimSpace(*in.Name)
		validation.Required("name", *in.Name, v)
		validation.MaxLen("name", *in.Name, maxNameLen, v)
	}
	if in.Industry != nil {
		validation.MaxLen("industry", *in.Industry, maxIndustryLen, v)
	}
	if in.Phone != nil {
		validation.MaxLen("phone", *in.Phone, maxPhoneLen, v)
	}
	urls := map[string]string{}
	for field, p := range map[string]*string{"logoUrl": in.LogoURL, "projectUrl": in.ProjectURL, "repoUrl": in.RepoURL} {
		if p != nil {
			urls[field] = *p
		}
	}
	checkURLs(v, urls)
	if in.Status != nil {
		validation.OneOf("status", *in.Status, models.Statuses, v)
	}
	if in.PriceQuoted != nil {
		validation.NonNegative("priceQuoted", *in.PriceQuoted, v)
		validation.Money("priceQuoted", *in.PriceQuoted, v)
	}
	if in.AmountPaid != nil {
		validation.NonNegative("amountPaid", *in.AmountPaid, v)
		validation.Money("amountPaid", *in.AmountPaid, v)
	}
	if v.Empty() {
		return nil
	}
	return v
}

// amountPaidDelta returns how much must be recorded as a new payment to
// move current to the requested amount. Lowering the amount is rejected.
func (in *UpdateClientInput) amountPaidDelta(current decimal.Decimal) (decimal.Decimal, error) {
	if in.AmountPaid == nil {
		return decimal.Zero, nil
	}
	delta := in.AmountPaid.Sub(current)
	if delta.IsNegative() {
		return decimal.Zero, validation.Violations{"amountPaid": "cannot_decrease"}
	}
	return delta, nil
}

func checkURLs(v validation.Violations, urls map[string]string) {
	for field, u := range urls {
		validation.MaxLen(field, u, maxURLLen, v)
		validation.OptionalURL(field, u, v)
	}
}

func validateStatus(s models.Status) error {
	v := validation.Violations{}
	validation.OneOf("status", s, models.Statuses, v)
	if v.Empty() {
		return nil
	}
	return v
}

func validateAmount(amount decimal.Decimal) error {
	v := validation.Violations{}
	validation.Positive("amount", amount, v)
	validation.Money("amount", amount, v)
	if v.Empty() {
		return nil
	}
	return v
}

func validateNote(content string) (string, error) {
	content = strings.TrimSpace(content)
	v := validation.Violations{}
	validation.Required("content", content, v)
	validation.MaxLen("content", content, maxNoteLen, v)
	if v.Empty() {
		return content, nil
	}
	return content, v
}

// apply copies the set fields of in onto c, leaving AmountPaid alone.
func (in *UpdateClientInput) apply(c *models.Client) {
	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.Industry != nil {
		c.Industry = *in.Industry
	}
	if in.Phone != nil {
		c.Phone = *in.Phone
	}
	if in.LogoURL != nil {
		c.LogoURL = *in.LogoURL
	}
	if in.ProjectURL != nil {
		c.ProjectURL = *in.ProjectURL
	}
	if in.RepoURL != nil {
		c.RepoURL = *in.RepoURL
	}
	if in.Status != nil {
		c.Status = *in.Status
	}
	if in.PriceQuoted != nil {
		c.PriceQuoted = *in.PriceQuoted
	}
}

// columns returns the column updates for the set fields, AmountPaid excluded.
func (in *UpdateClientInput) columns() map[string]any {
	cols := map[string]any{}
	if in.Name != nil {
		cols["name"] = *in.Name
	}
	if in.Industry != nil {
		cols["industry"] = *in.Industry
	}
	if in.Phone != nil {
		cols["phone"] = *in.Phone
	}
	if in.LogoURL != nil {
		cols["logo_url"] = *in.LogoURL
	}
	if in.ProjectURL != nil {
		cols["project_url"] = *in.ProjectURL
	}
	if in.RepoURL != nil {
		cols["repo_url"] = *in.RepoURL
	}
	if in.Status != nil {
		cols["status"] = *in.Status
	}
	if in.PriceQuoted != nil {
		cols["price_quoted"] = *in.PriceQuoted
	}
	return cols
}
