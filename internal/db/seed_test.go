package db

import (
	"fmt"
	"testing"

	"github.com/diewo77/client-ledger/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	d, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := Migrate(d); err != nil {
		t.Fatal(err)
	}
	return d
}

func TestSeedIdempotent(t *testing.T) {
	d := openTestDB(t)
	n, err := Seed(d)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(seedClients) {
		t.Fatalf("first seed created %d, want %d", n, len(seedClients))
	}
	n, err = Seed(d)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("second seed created %d, want 0", n)
	}
	var count int64
	d.Model(&models.Client{}).Count(&count)
	if count != int64(len(seedClients)) {
		t.Fatalf("expected %d clients got %d", len(seedClients), count)
	}
}

func TestSeed_AmountPaidMatchesPayments(t *testing.T) {
	d := openTestDB(t)
	if _, err := Seed(d); err != nil {
		t.Fatal(err)
	}
	var clients []models.Client
	if err := d.Preload("Payments").Find(&clients).Error; err != nil {
		t.Fatal(err)
	}
	for _, c := range clients {
		sum := decimal.Zero
		for _, p := range c.Payments {
			sum = sum.Add(p.Amount)
		}
		if !sum.Equal(c.AmountPaid) {
			t.Errorf("%s: payments sum %s != amountPaid %s", c.Name, sum, c.AmountPaid)
		}
	}
}

func TestClear(t *testing.T) {
	d := openTestDB(t)
	if _, err := Seed(d); err != nil {
		t.Fatal(err)
	}
	if err := Clear(d); err != nil {
		t.Fatal(err)
	}
	for _, m := range []any{&models.Client{}, &models.Payment{}, &models.Note{}} {
		var n int64
		d.Model(m).Count(&n)
		if n != 0 {
			t.Errorf("%T: %d rows left", m, n)
		}
	}
}

func TestMaskDSN(t *testing.T) {
	got := MaskDSN("host=h user=u password=secret dbname=n")
	if got != "host=h user=u password=*** dbname=n" {
		t.Errorf("MaskDSN = %q", got)
	}
}
