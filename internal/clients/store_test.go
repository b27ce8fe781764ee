package clients

import (
	"context"
	"errors"
	"testing"

	"github.com/diewo77/client-ledger/internal/kv"
	"github.com/diewo77/client-ledger/internal/logging"
	"github.com/diewo77/client-ledger/internal/models"
	"github.com/diewo77/client-ledger/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyRepo wraps a repository and fails every call while broken is set.
type flakyRepo struct {
	store.ClientRepository
	broken bool
}

var errDown = errors.New("database down")

func (f *flakyRepo) List(ctx context.Context) ([]store.ClientView, error) {
	if f.broken {
		return nil, errDown
	}
	return f.ClientRepository.List(ctx)
}

func (f *flakyRepo) AddPayment(ctx context.Context, id string, amount decimal.Decimal) (store.ClientView, error) {
	if f.broken {
		return store.ClientView{}, errDown
	}
	return f.ClientRepository.AddPayment(ctx, id, amount)
}

func newDemoStore(t *testing.T) *Store {
	t.Helper()
	repo := store.NewLocalMirrorRepository(kv.NewMemory(), "sess", 0, logging.Discard())
	s := NewStore(repo, false, logging.Discard())
	require.NoError(t, s.Load(context.Background()))
	return s
}

func TestStore_DemoWritesRefreshCache(t *testing.T) {
	s := newDemoStore(t)
	ctx := context.Background()
	require.Len(t, s.Clients(), 3)

	c, err := s.Create(ctx, store.CreateClientInput{Name: "Acme", PriceQuoted: decimal.NewFromInt(1000)})
	require.NoError(t, err)
	_, err = s.AddPayment(ctx, c.ID, decimal.NewFromInt(400))
	require.NoError(t, err)

	list := s.Clients()
	require.Len(t, list, 4)
	assert.Equal(t, 400.0, list[0].AmountPaid)
	assert.Equal(t, 600.0, list[0].BalanceDue)

	notices := s.Notices()
	require.Len(t, notices, 2)
	assert.Equal(t, Notice{Level: LevelSuccess, Code: "client_created", Demo: true}, notices[0])
	assert.Equal(t, "Demo: Payment added (Local Only)", notices[1].Text("en"))
	assert.Empty(t, s.Notices(), "notices are drained")
}

func TestStore_ResetDemoData(t *testing.T) {
	s := newDemoStore(t)
	require.NoError(t, s.ResetDemoData(context.Background()))
	assert.Empty(t, s.Clients())
	assert.Equal(t, []Notice{{Level: LevelInfo, Code: "demo_data_cleared"}}, s.Notices())
}

func TestStore_ResetIsNoopForAdmin(t *testing.T) {
	storage := kv.NewMemory()
	repo := store.NewLocalMirrorRepository(storage, "sess", 0, logging.Discard())
	s := NewStore(repo, true, logging.Discard())
	require.NoError(t, s.Load(context.Background()))
	_, err := s.AddNote(context.Background(), s.Clients()[0].ID, "keep")
	require.NoError(t, err)

	require.NoError(t, s.ResetDemoData(context.Background()))
	assert.Len(t, s.Clients(), 3)
	_, err = storage.Get(context.Background(), store.MirrorKey("sess"))
	assert.NoError(t, err)
}

func TestStore_FailureLeavesCacheAndQueuesNotice(t *testing.T) {
	repo := &flakyRepo{ClientRepository: store.NewLocalMirrorRepository(kv.NewMemory(), "sess", 0, logging.Discard())}
	s := NewStore(repo, true, logging.Discard())
	ctx := context.Background()
	require.NoError(t, s.Load(ctx))
	before := s.Clients()

	repo.broken = true
	_, err := s.AddPayment(ctx, before[0].ID, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, errDown)
	assert.Equal(t, before, s.Clients())
	assert.Equal(t, []Notice{{Level: LevelError, Code: "payment_failed"}}, s.Notices())

	assert.Error(t, s.Revalidate(ctx))
	assert.Equal(t, before, s.Clients(), "failed reload keeps the cache")
	assert.Equal(t, "Could not load clients, showing cached data", s.Notices()[0].Text("en"))
}

func TestStore_AdminFirstLoadFailureServesSample(t *testing.T) {
	repo := &flakyRepo{ClientRepository: store.NewLocalMirrorRepository(kv.NewMemory(), "sess", 0, logging.Discard()), broken: true}
	s := NewStore(repo, true, logging.Discard())
	ctx := context.Background()

	assert.ErrorIs(t, s.Load(ctx), errDown)
	assert.True(t, s.Fallback())
	list := s.Clients()
	require.Len(t, list, 3)
	assert.Equal(t, "TechCorp Solutions", list[0].Name)
	assert.Equal(t, []Notice{{Level: LevelError, Code: "load_failed"}}, s.Notices())

	assert.Error(t, s.Revalidate(ctx))
	assert.Equal(t, list, s.Clients(), "the sample set is built once")

	repo.broken = false
	require.NoError(t, s.Revalidate(ctx))
	assert.False(t, s.Fallback())
	assert.NotEqual(t, list[0].ID, s.Clients()[0].ID)
}

func TestStore_DemoFirstLoadFailureStaysEmpty(t *testing.T) {
	repo := &flakyRepo{ClientRepository: store.NewLocalMirrorRepository(kv.NewMemory(), "sess", 0, logging.Discard()), broken: true}
	s := NewStore(repo, false, logging.Discard())
	assert.Error(t, s.Load(context.Background()))
	assert.False(t, s.Fallback())
	assert.Empty(t, s.Clients())
}

func TestStore_AdminNoticeWording(t *testing.T) {
	repo := store.NewLocalMirrorRepository(kv.NewMemory(), "sess", 0, logging.Discard())
	s := NewStore(repo, true, logging.Discard())
	ctx := context.Background()
	require.NoError(t, s.Load(ctx))
	id := s.Clients()[0].ID

	_, err := s.UpdateStatus(ctx, id, models.StatusSuspended)
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, id))
	notices := s.Notices()
	require.Len(t, notices, 2)
	assert.Equal(t, "Status updated", notices[0].Text("en"))
	assert.Equal(t, "Client deleted", notices[1].Text("en"))
	assert.Len(t, s.Clients(), 2)
}

func TestStore_ValidationFailureQueuesNotice(t *testing.T) {
	s := newDemoStore(t)
	_, err := s.AddNote(context.Background(), s.Clients()[0].ID, "")
	require.Error(t, err)
	assert.Equal(t, []Notice{{Level: LevelError, Code: "note_failed"}}, s.Notices())
}
