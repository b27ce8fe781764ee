package store

import (
	_ "embed"
	"fmt"
	"time"

	"github.com/diewo77/client-ledger/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed sample_clients.yaml
var sampleClientsYAML []byte

type sampleClient struct {
	Name        string        `yaml:"name"`
	Industry    string        `yaml:"industry"`
	Phone       string        `yaml:"phone"`
	LogoURL     string        `yaml:"logoUrl"`
	ProjectURL  string        `yaml:"projectUrl"`
	RepoURL     string        `yaml:"repoUrl"`
	Status      models.Status `yaml:"status"`
	PriceQuoted float64       `yaml:"priceQuoted"`
	AmountPaid  float64       `yaml:"amountPaid"`
	Notes       []string      `yaml:"notes"`
}

// SampleClients builds the demo dataset with fresh ids stamped at now.
func SampleClients(now time.Time) ([]models.Client, error) {
	var raw []sampleClient
	if err := yaml.Unmarshal(sampleClientsYAML, &raw); err != nil {
		return nil, fmt.Errorf("parse sample clients: %w", err)
	}
	out := make([]models.Client, 0, len(raw))
	for _, s := range raw {
		c := models.Client{
			ID:          newDemoID(),
			Name:        s.Name,
			Industry:    s.Industry,
			Phone:       s.Phone,
			LogoURL:     s.LogoURL,
			ProjectURL:  s.ProjectURL,
			RepoURL:     s.RepoURL,
			Status:      s.Status,
			PriceQuoted: decimal.NewFromFloat(s.PriceQuoted),
			AmountPaid:  decimal.NewFromFloat(s.AmountPaid),
			CreatedAt:   now,
			UpdatedAt:   now,
			Notes:       []models.Note{},
			Payments:    []models.Payment{},
		}
		for _, content := range s.Notes {
			c.Notes = append(c.Notes, models.Note{ID: newDemoNoteID(), ClientID: c.ID, Content: content, CreatedAt: now})
		}
		if c.AmountPaid.IsPositive() {
			c.Payments = append(c.Payments, models.Payment{ID: newDemoPaymentID(), ClientID: c.ID, Amount: c.AmountPaid, Date: now, CreatedAt: now})
		}
		out = append(out, c)
	}
	return out, nil
}

func newDemoID() string        { return "demo-" + uuid.NewString() }
func newDemoNoteID() string    { return "demo-note-" + uuid.NewString() }
func newDemoPaymentID() string { return "demo-payment-" + uuid.NewString() }
