package db

import (
	"errors"
	"fmt"

	"github.com/diewo77/client-ledger/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type seedClient struct {
	Name       string
	Industry   string
	Status     models.Status
	Phone      string
	Quoted     int64
	Paid       int64
	ProjectURL string
}

var seedClients = []seedClient{
	{"Mroj Pharmacy (Alsqar)", "Pharmacy", models.StatusActive, "9647700000000", 1500, 1500, "https://alsqar.vercel.app"},
	{"Coral Perfumes", "E-Commerce", models.StatusPending, "9647800000000", 2000, 500, "https://coral-perfumes.vercel.app"},
	{"Mahshi Albaghdady", "Restaurant", models.StatusActive, "9647500000000", 1200, 1200, "https://mahshi.vercel.app"},
	{"Leera Home", "Home Goods", models.StatusLead, "", 0, 0, "https://leera-home.vercel.app"},
	{"Touch Beaut", "Cosmetics", models.StatusSuspended, "9647711111111", 1800, 100, "https://touch-beaut.vercel.app"},
	{"Morano Watches", "E-Commerce", models.StatusActive, "", 2500, 2500, "https://morano.vercel.app"},
}

// Seed inserts the sample agency clients that are missing, matched by name.
// Each paid amount is backed by an opening payment.
func Seed(db *gorm.DB) (int, error) {
	created := 0
	for _, sc := range seedClients {
		var existing models.Client
		err := db.Where("name = ?", sc.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, fmt.Errorf("seed lookup %q: %w", sc.Name, err)
		}
		c := models.Client{
			Name:        sc.Name,
			Industry:    sc.Industry,
			Status:      sc.Status,
			Phone:       sc.Phone,
			ProjectURL:  sc.ProjectURL,
			PriceQuoted: decimal.NewFromInt(sc.Quoted),
			AmountPaid:  decimal.NewFromInt(sc.Paid),
		}
		if sc.Paid > 0 {
			c.Payments = []models.Payment{{Amount: decimal.NewFromInt(sc.Paid)}}
		}
		if err := db.Create(&c).Error; err != nil {
			return created, fmt.Errorf("seed create %q: %w", sc.Name, err)
		}
		created++
	}
	return created, nil
}

// Clear deletes every payment, note and client.
func Clear(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&models.Payment{}, &models.Note{}, &models.Client{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
				return fmt.Errorf("clear %T: %w", m, err)
			}
		}
		return nil
	})
}
