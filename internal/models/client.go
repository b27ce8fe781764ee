package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Status is the lifecycle state of a client project.
type Status string

const (
	StatusLead      Status = "LEAD"
	StatusPending   Status = "PENDING"
	StatusActive    Status = "ACTIVE"
	StatusSuspended Status = "SUSPENDED"
)

// Statuses lists every valid Status in display order.
var Statuses = []Status{StatusLead, StatusPending, StatusActive, StatusSuspended}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Client is an agency customer with its quoted price and payments received.
type Client struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `gorm:"index" json:"updatedAt"`

	Name       string `gorm:"size:255;not null" json:"name"`
	Industry   string `gorm:"size:255" json:"industry,omitempty"`
	Phone      string `gorm:"size:50" json:"phone,omitempty"`
	LogoURL    string `gorm:"column:logo_url;size:1024" json:"logoUrl,omitempty"`
	ProjectURL string `gorm:"column:project_url;size:1024" json:"projectUrl,omitempty"`
	RepoURL    string `gorm:"column:repo_url;size:1024" json:"repoUrl,omitempty"`
	Status     Status `gorm:"size:20;not null;default:'PENDING';index" json:"status"`

	// AmountPaid always equals the sum of Payments.
	PriceQuoted decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"priceQuoted"`
	AmountPaid  decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"amountPaid"`

	Notes    []Note    `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE" json:"notes,omitempty"`
	Payments []Payment `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE" json:"payments,omitempty"`

	// LastPaymentAt is filled by list queries that do not load Payments.
	LastPaymentAt *time.Time `gorm:"-" json:"-"`
}

// BeforeCreate assigns a UUID when the caller did not.
func (c *Client) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Balance is PriceQuoted minus AmountPaid; negative when overpaid.
func (c *Client) Balance() decimal.Decimal {
	return c.PriceQuoted.Sub(c.AmountPaid)
}

// BalanceDue is Balance clamped at zero.
func (c *Client) BalanceDue() decimal.Decimal {
	if b := c.Balance(); b.IsPositive() {
		return b
	}
	return decimal.Zero
}

// FullyPaid reports whether nothing remains to be paid.
func (c *Client) FullyPaid() bool { return !c.Balance().IsPositive() }

// Unpaid reports whether no money was received yet.
func (c *Client) Unpaid() bool { return c.AmountPaid.IsZero() }

// PercentPaid returns the paid share of the quote, 0..100, rounded to one decimal.
func (c *Client) PercentPaid() float64 {
	if !c.PriceQuoted.IsPositive() {
		return 0
	}
	pct := c.AmountPaid.Div(c.PriceQuoted).Mul(decimal.NewFromInt(100))
	if pct.GreaterThan(decimal.NewFromInt(100)) {
		pct = decimal.NewFromInt(100)
	}
	f, _ := pct.Round(1).Float64()
	return f
}

// LastPayment returns the most recent payment date, from loaded Payments
// or the precomputed LastPaymentAt.
func (c *Client) LastPayment() *time.Time {
	if c.LastPaymentAt != nil {
		return c.LastPaymentAt
	}
	var last *time.Time
	for i := range c.Payments {
		if last == nil || c.Payments[i].Date.After(*last) {
			d := c.Payments[i].Date
			last = &d
		}
	}
	return last
}
