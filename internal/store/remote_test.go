package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/diewo77/client-ledger/auth"
	"github.com/diewo77/client-ledger/gate"
	"github.com/diewo77/client-ledger/internal/db"
	"github.com/diewo77/client-ledger/internal/models"
	"github.com/diewo77/client-ledger/internal/policy"
	"github.com/diewo77/client-ledger/validation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const adminEmail = "owner@agency.test"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	d, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := d.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Migrate(d))
	return d
}

func testGate() *gate.Gate[string] {
	return gate.New[string](policy.NewAdminList([]string{adminEmail}))
}

func newAdminRepo(t *testing.T) (*RemoteRepository, *gorm.DB) {
	d := newTestDB(t)
	return NewRemoteRepository(d, testGate(), auth.Identity{Email: "Owner@Agency.test", SessionID: "s1"}), d
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestRemote_PaymentRoundTrip(t *testing.T) {
	repo, _ := newAdminRepo(t)
	ctx := context.Background()

	c, err := repo.Create(ctx, CreateClientInput{Name: "Acme", PriceQuoted: dec(1000)})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, c.Status)
	assert.Empty(t, c.Payments)
	assert.Nil(t, c.LastPayment)

	c, err = repo.AddPayment(ctx, c.ID, dec(400))
	require.NoError(t, err)
	assert.Equal(t, 400.0, c.AmountPaid)
	assert.Equal(t, 600.0, c.BalanceDue)
	assert.Equal(t, 40.0, c.PercentPaid)
	require.Len(t, c.Payments, 1)
	assert.Equal(t, 400.0, c.Payments[0].Amount)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 400.0, list[0].AmountPaid)
	assert.NotNil(t, list[0].LastPayment)
	assert.Nil(t, list[0].Payments, "list omits payment history")
}

func TestRemote_CreateRecordsOpeningPayment(t *testing.T) {
	repo, _ := newAdminRepo(t)
	c, err := repo.Create(context.Background(), CreateClientInput{Name: "Prepaid", PriceQuoted: dec(800), AmountPaid: dec(250)})
	require.NoError(t, err)
	require.Len(t, c.Payments, 1)
	assert.Equal(t, 250.0, c.Payments[0].Amount)
	assert.Equal(t, 250.0, c.AmountPaid)
}

func TestRemote_ConcurrentPaymentsSumExactly(t *testing.T) {
	repo, _ := newAdminRepo(t)
	ctx := context.Background()
	c, err := repo.Create(ctx, CreateClientInput{Name: "Busy", PriceQuoted: dec(10000)})
	require.NoError(t, err)

	const workers, each = 10, 5
	var wg sync.WaitGroup
	errs := make(chan error, workers*each)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				if _, err := repo.AddPayment(ctx, c.ID, dec(10)); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("AddPayment: %v", err)
	}

	got, err := repo.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(workers*each*10), got.AmountPaid)
	assert.Len(t, got.Payments, workers*each)

	reconciled, err := repo.Reconcile(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, got.AmountPaid, reconciled.AmountPaid)
}

func TestRemote_NonAdminCannotMutate(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	identities := map[string]auth.Identity{
		"signed in guest":   {Email: "guest@agency.test"},
		"forged admin flag": {Email: "guest@agency.test", IsAdmin: true},
		"anonymous":         {SessionID: "anon", IsAdmin: true},
	}
	for name, id := range identities {
		t.Run(name, func(t *testing.T) {
			repo := NewRemoteRepository(d, testGate(), id)
			_, err := repo.Create(ctx, CreateClientInput{Name: "Nope", PriceQuoted: dec(1)})
			assert.True(t, errors.Is(err, ErrUnauthorized), "Create err = %v", err)
			_, err = repo.AddPayment(ctx, "any", dec(1))
			assert.True(t, errors.Is(err, ErrUnauthorized), "AddPayment err = %v", err)
			assert.True(t, errors.Is(repo.Delete(ctx, "any"), ErrUnauthorized))
			_, err = repo.List(ctx)
			assert.True(t, errors.Is(err, ErrUnauthorized), "List err = %v", err)
		})
	}
	var count int64
	d.Model(&models.Client{}).Count(&count)
	assert.Zero(t, count, "nothing may be written")
}

func TestRemote_DeleteRemovesNotesAndPayments(t *testing.T) {
	repo, d := newAdminRepo(t)
	ctx := context.Background()
	c, err := repo.Create(ctx, CreateClientInput{Name: "Gone", PriceQuoted: dec(500), AmountPaid: dec(100)})
	require.NoError(t, err)
	_, err = repo.AddNote(ctx, c.ID, "kick-off call")
	require.NoError(t, err)
	_, err = repo.AddPayment(ctx, c.ID, dec(50))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, c.ID))

	var notes, payments int64
	d.Model(&models.Note{}).Where("client_id = ?", c.ID).Count(&notes)
	d.Model(&models.Payment{}).Where("client_id = ?", c.ID).Count(&payments)
	assert.Zero(t, notes)
	assert.Zero(t, payments)

	_, err = repo.Get(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, c.ID), ErrNotFound)
}

func TestRemote_UpdateAmountPaid(t *testing.T) {
	repo, _ := newAdminRepo(t)
	ctx := context.Background()
	c, err := repo.Create(ctx, CreateClientInput{Name: "Shop", PriceQuoted: dec(1000), AmountPaid: dec(400)})
	require.NoError(t, err)

	raised := dec(700)
	name := "Shop Ltd"
	c, err = repo.Update(ctx, c.ID, UpdateClientInput{Name: &name, AmountPaid: &raised})
	require.NoError(t, err)
	assert.Equal(t, "Shop Ltd", c.Name)
	assert.Equal(t, 700.0, c.AmountPaid)
	require.Len(t, c.Payments, 2)

	lowered := dec(100)
	_, err = repo.Update(ctx, c.ID, UpdateClientInput{AmountPaid: &lowered})
	var v validation.Violations
	require.True(t, errors.As(err, &v), "err = %v", err)
	assert.Equal(t, "cannot_decrease", v["amountPaid"])

	again, err := repo.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 700.0, again.AmountPaid)
}

func TestRemote_ListOrderAndNotes(t *testing.T) {
	repo, _ := newAdminRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	first, err := repo.Create(ctx, CreateClientInput{Name: "First"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, CreateClientInput{Name: "Second"})
	require.NoError(t, err)
	_, err = repo.AddNote(ctx, first.ID, "older")
	require.NoError(t, err)
	_, err = repo.AddNote(ctx, first.ID, "newer")
	require.NoError(t, err)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "First", list[0].Name, "touched client sorts first")
	require.Len(t, list[0].Notes, 2)
	assert.Equal(t, "newer", list[0].Notes[0].Content)
}

func TestRemote_StatusAndValidation(t *testing.T) {
	repo, _ := newAdminRepo(t)
	ctx := context.Background()
	c, err := repo.Create(ctx, CreateClientInput{Name: "Status"})
	require.NoError(t, err)

	c, err = repo.UpdateStatus(ctx, c.ID, models.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, c.Status)

	_, err = repo.UpdateStatus(ctx, c.ID, "ARCHIVED")
	var v validation.Violations
	assert.True(t, errors.As(err, &v))

	_, err = repo.UpdateStatus(ctx, "missing", models.StatusLead)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Create(ctx, CreateClientInput{Name: " ", PriceQuoted: dec(-1), ProjectURL: "ftp://x"})
	require.True(t, errors.As(err, &v))
	assert.Equal(t, "required", v["name"])
	assert.Equal(t, "must_not_be_negative", v["priceQuoted"])
	assert.Equal(t, "invalid_url", v["projectUrl"])

	_, err = repo.AddPayment(ctx, c.ID, dec(0))
	assert.True(t, errors.As(err, &v))
	_, err = repo.AddPayment(ctx, "missing", dec(5))
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.AddNote(ctx, c.ID, "   ")
	assert.True(t, errors.As(err, &v))
	_, err = repo.AddNote(ctx, "missing", "hello")
	assert.ErrorIs(t, err, ErrNotFound)
}
