package store

import (
	"time"

	"github.com/diewo77/client-ledger/internal/models"
)

// ClientView is the serialized client handed to handlers and templates:
// decimals become numbers and timestamps are UTC.
type ClientView struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Industry    string        `json:"industry"`
	Phone       string        `json:"phone"`
	LogoURL     string        `json:"logoUrl"`
	ProjectURL  string        `json:"projectUrl"`
	RepoURL     string        `json:"repoUrl"`
	Status      models.Status `json:"status"`
	PriceQuoted float64       `json:"priceQuoted"`
	AmountPaid  float64       `json:"amountPaid"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
	Notes       []NoteView    `json:"notes"`
	Payments    []PaymentView `json:"payments,omitempty"`
	LastPayment *time.Time    `json:"lastPayment"`
	BalanceDue  float64       `json:"balanceDue"`
	PercentPaid float64       `json:"percentPaid"`
	FullyPaid   bool          `json:"fullyPaid"`
	Unpaid      bool          `json:"unpaid"`
}

// NoteView is a serialized note.
type NoteView struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"clientId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// PaymentView is a serialized payment.
type PaymentView struct {
	ID       string    `json:"id"`
	ClientID string    `json:"clientId"`
	Amount   float64   `json:"amount"`
	Date     time.Time `json:"date"`
}

// ToView serializes c. Payment history is included only when withPayments
// is set; LastPayment is always filled.
func ToView(c *models.Client, withPayments bool) ClientView {
	v := ClientView{
		ID:          c.ID,
		Name:        c.Name,
		Industry:    c.Industry,
		Phone:       c.Phone,
		LogoURL:     c.LogoURL,
		ProjectURL:  c.ProjectURL,
		RepoURL:     c.RepoURL,
		Status:      c.Status,
		PriceQuoted: c.PriceQuoted.InexactFloat64(),
		AmountPaid:  c.AmountPaid.InexactFloat64(),
		CreatedAt:   c.CreatedAt.UTC(),
		UpdatedAt:   c.UpdatedAt.UTC(),
		Notes:       make([]NoteView, 0, len(c.Notes)),
		BalanceDue:  c.BalanceDue().InexactFloat64(),
		PercentPaid: c.PercentPaid(),
		FullyPaid:   c.FullyPaid(),
		Unpaid:      c.Unpaid(),
	}
	if last := c.LastPayment(); last != nil {
		t := last.UTC()
		v.LastPayment = &t
	}
	for _, n := range c.Notes {
		v.Notes = append(v.Notes, toNoteView(n))
	}
	if withPayments {
		v.Payments = make([]PaymentView, 0, len(c.Payments))
		for _, p := range c.Payments {
			v.Payments = append(v.Payments, PaymentView{
				ID:       p.ID,
				ClientID: p.ClientID,
				Amount:   p.Amount.InexactFloat64(),
				Date:     p.Date.UTC(),
			})
		}
	}
	return v
}

func toNoteView(n models.Note) NoteView {
	return NoteView{ID: n.ID, ClientID: n.ClientID, Content: n.Content, CreatedAt: n.CreatedAt.UTC()}
}
