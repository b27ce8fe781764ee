// Package clients is the per-session client state: a cached client list in
// front of the repository chosen for the session, plus the notices produced
// by each operation.
package clients

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/diewo77/client-ledger/internal/models"
	"github.com/diewo77/client-ledger/internal/store"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Store caches one session's clients. Every write goes to the repository
// first; the cache is refreshed only after the write succeeded.
type Store struct {
	mu       sync.Mutex
	repo     store.ClientRepository
	admin    bool
	clients  []store.ClientView
	fallback bool
	loadedAt time.Time
	notices  []Notice
	log      logrus.FieldLogger
}

// NewStore wraps repo. admin selects the notice wording and disables
// ResetDemoData.
func NewStore(repo store.ClientRepository, admin bool, log logrus.FieldLogger) *Store {
	return &Store{repo: repo, admin: admin, clients: []store.ClientView{}, log: log}
}

// Admin reports whether the store writes to the shared database.
func (s *Store) Admin() bool { return s.admin }

// Load hydrates the cache. On failure the previous cache stays in place and
// a notice is queued.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx, true)
}

func (s *Store) refreshLocked(ctx context.Context, notify bool) error {
	list, err := s.repo.List(ctx)
	if err != nil {
		s.log.WithError(err).Warn("load clients")
		if notify {
			s.notices = append(s.notices, Notice{Level: LevelError, Code: "load_failed"})
		}
		if s.admin && s.loadedAt.IsZero() && !s.fallback {
			s.useSample()
		}
		return err
	}
	s.clients = list
	s.fallback = false
	s.loadedAt = time.Now()
	return nil
}

// useSample fills an admin cache that never loaded with the sample dataset
// so the dashboard is not blank while the database is unreachable.
func (s *Store) useSample() {
	sample, err := store.SampleClients(time.Now())
	if err != nil {
		s.log.WithError(err).Warn("load sample clients")
		return
	}
	views := make([]store.ClientView, 0, len(sample))
	for i := range sample {
		views = append(views, store.ToView(&sample[i], false))
	}
	s.clients = views
	s.fallback = true
}

// Revalidate reloads admin stores, whose data other admins may change.
// Demo stores are the only writer of their mirror and keep their cache.
func (s *Store) Revalidate(ctx context.Context) error {
	if !s.admin {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx, true)
}

// Clients returns a copy of the cached list.
func (s *Store) Clients() []store.ClientView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.clients)
}

// Fallback reports whether the cached list is sample data standing in for
// a database that has not answered yet.
func (s *Store) Fallback() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fallback
}

// Query filters the cached list.
func (s *Store) Query(q Query) []store.ClientView {
	return Filter(s.Clients(), q, time.Now())
}

// Stats computes the stat cards from the cached list.
func (s *Store) Stats() Stats {
	return ComputeStats(s.Clients())
}

// Get reads one client with its payment history straight from the repository.
func (s *Store) Get(ctx context.Context, id string) (store.ClientView, error) {
	return s.repo.Get(ctx, id)
}

// Notices drains the queued notices.
func (s *Store) Notices() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.notices
	s.notices = nil
	return out
}

// write runs op against the repository and records the outcome.
func write[T any](ctx context.Context, s *Store, okCode, failCode string, op func(context.Context) (T, error)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, err := op(ctx)
	if err != nil {
		s.log.WithError(err).WithField("op", failCode).Warn("client write failed")
		s.notices = append(s.notices, Notice{Level: LevelError, Code: failCode})
		return v, err
	}
	// The write already happened; a failed refresh only leaves the cache stale.
	_ = s.refreshLocked(ctx, false)
	s.notices = append(s.notices, Notice{Level: LevelSuccess, Code: okCode, Demo: !s.admin})
	return v, nil
}

func (s *Store) Create(ctx context.Context, in store.CreateClientInput) (store.ClientView, error) {
	return write(ctx, s, "client_created", "create_failed", func(ctx context.Context) (store.ClientView, error) {
		return s.repo.Create(ctx, in)
	})
}

func (s *Store) Update(ctx context.Context, id string, in store.UpdateClientInput) (store.ClientView, error) {
	return write(ctx, s, "client_updated", "update_failed", func(ctx context.Context) (store.ClientView, error) {
		return s.repo.Update(ctx, id, in)
	})
}

func (s *Store) UpdateStatus(ctx context.Context, id string, status models.Status) (store.ClientView, error) {
	return write(ctx, s, "status_updated", "status_failed", func(ctx context.Context) (store.ClientView, error) {
		return s.repo.UpdateStatus(ctx, id, status)
	})
}

func (s *Store) AddPayment(ctx context.Context, id string, amount decimal.Decimal) (store.ClientView, error) {
	return write(ctx, s, "payment_added", "payment_failed", func(ctx context.Context) (store.ClientView, error) {
		return s.repo.AddPayment(ctx, id, amount)
	})
}

func (s *Store) AddNote(ctx context.Context, id, content string) (store.NoteView, error) {
	return write(ctx, s, "note_added", "note_failed", func(ctx context.Context) (store.NoteView, error) {
		return s.repo.AddNote(ctx, id, content)
	})
}

func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := write(ctx, s, "client_deleted", "delete_failed", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.repo.Delete(ctx, id)
	})
	return err
}

// ResetDemoData wipes a demo session's mirror. It does nothing for admins.
func (s *Store) ResetDemoData(ctx context.Context) error {
	if s.admin {
		return nil
	}
	r, ok := s.repo.(store.Resetter)
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := r.Reset(ctx); err != nil {
		s.log.WithError(err).Warn("reset demo data")
		return err
	}
	s.clients = []store.ClientView{}
	s.notices = append(s.notices, Notice{Level: LevelInfo, Code: "demo_data_cleared"})
	return nil
}
