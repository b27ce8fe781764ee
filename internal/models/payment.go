package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment is one received installment. Payments are append-only.
type Payment struct {
	ID        string          `gorm:"primaryKey;size:64" json:"id"`
	ClientID  string          `gorm:"size:64;index;not null" json:"clientId"`
	Amount    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Date      time.Time       `gorm:"not null;index" json:"date"`
	CreatedAt time.Time       `json:"createdAt"`
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Date.IsZero() {
		p.Date = time.Now()
	}
	return nil
}
