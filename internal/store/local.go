package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/diewo77/client-ledger/internal/kv"
	"github.com/diewo77/client-ledger/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// MirrorKey is the storage key of a session's demo data.
func MirrorKey(sessionID string) string { return "demo_clients:" + sessionID }

// LocalMirrorRepository keeps a session's demo clients in memory and writes
// the whole set to kv storage after every change. It never touches the
// database.
type LocalMirrorRepository struct {
	mu      sync.Mutex
	storage kv.Storage
	key     string
	ttl     time.Duration
	clients []models.Client
	loaded  bool
	now     func() time.Time
	log     logrus.FieldLogger
}

// NewLocalMirrorRepository creates the demo repository of sessionID. The
// mirror expires ttl after its last write; zero keeps it forever.
func NewLocalMirrorRepository(storage kv.Storage, sessionID string, ttl time.Duration, log logrus.FieldLogger) *LocalMirrorRepository {
	return &LocalMirrorRepository{
		storage: storage,
		key:     MirrorKey(sessionID),
		ttl:     ttl,
		now:     time.Now,
		log:     log.WithField("mirror", MirrorKey(sessionID)),
	}
}

// load reads the mirror once. A missing or unreadable mirror is replaced by
// the sample dataset, which is only written back on the first change.
func (r *LocalMirrorRepository) load(ctx context.Context) error {
	if r.loaded {
		return nil
	}
	raw, err := r.storage.Get(ctx, r.key)
	switch {
	case err == nil:
		var clients []models.Client
		jerr := json.Unmarshal(raw, &clients)
		if jerr == nil {
			r.clients = clients
			r.loaded = true
			return nil
		}
		r.log.WithError(jerr).Warn("corrupt demo mirror, reseeding")
	case errors.Is(err, kv.ErrNotFound):
	default:
		r.log.WithError(err).Warn("demo mirror unreadable, reseeding")
	}
	sample, err := SampleClients(r.now())
	if err != nil {
		return err
	}
	r.clients = sample
	r.loaded = true
	return nil
}

func (r *LocalMirrorRepository) persist(ctx context.Context) error {
	raw, err := json.Marshal(r.clients)
	if err != nil {
		return fmt.Errorf("encode demo mirror: %w", err)
	}
	if err := r.storage.Set(ctx, r.key, raw, r.ttl); err != nil {
		r.log.WithError(err).Error("write demo mirror")
		return fmt.Errorf("write demo mirror: %w", err)
	}
	return nil
}

func (r *LocalMirrorRepository) index(id string) int {
	return slices.IndexFunc(r.clients, func(c models.Client) bool { return c.ID == id })
}

// mutate loads the mirror, applies fn to the client with id and persists.
func (r *LocalMirrorRepository) mutate(ctx context.Context, id string, fn func(c *models.Client) error) (ClientView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.load(ctx); err != nil {
		return ClientView{}, err
	}
	i := r.index(id)
	if i < 0 {
		return ClientView{}, ErrNotFound
	}
	c := r.clients[i]
	if err := fn(&c); err != nil {
		return ClientView{}, err
	}
	r.clients[i] = c
	if err := r.persist(ctx); err != nil {
		return ClientView{}, err
	}
	return ToView(&c, true), nil
}

func (r *LocalMirrorRepository) List(ctx context.Context) ([]ClientView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.load(ctx); err != nil {
		return nil, err
	}
	out := make([]ClientView, 0, len(r.clients))
	for i := range r.clients {
		out = append(out, ToView(&r.clients[i], false))
	}
	return out, nil
}

func (r *LocalMirrorRepository) Get(ctx context.Context, id string) (ClientView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.load(ctx); err != nil {
		return ClientView{}, err
	}
	i := r.index(id)
	if i < 0 {
		return ClientView{}, ErrNotFound
	}
	return ToView(&r.clients[i], true), nil
}

// Create prepends a PENDING demo client.
func (r *LocalMirrorRepository) Create(ctx context.Context, in CreateClientInput) (ClientView, error) {
	if err := in.Validate(); err != nil {
		return ClientView{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.load(ctx); err != nil {
		return ClientView{}, err
	}
	now := r.now()
	c := models.Client{
		ID:          newDemoID(),
		Name:        in.Name,
		Industry:    in.Industry,
		Phone:       in.Phone,
		LogoURL:     in.LogoURL,
		ProjectURL:  in.ProjectURL,
		RepoURL:     in.RepoURL,
		Status:      models.StatusPending,
		PriceQuoted: in.PriceQuoted,
		AmountPaid:  in.AmountPaid,
		CreatedAt:   now,
		UpdatedAt:   now,
		Notes:       []models.Note{},
		Payments:    []models.Payment{},
	}
	if in.AmountPaid.IsPositive() {
		c.Payments = append(c.Payments, newDemoPayment(c.ID, in.AmountPaid, now))
	}
	r.clients = append([]models.Client{c}, r.clients...)
	if err := r.persist(ctx); err != nil {
		return ClientView{}, err
	}
	return ToView(&c, true), nil
}

func (r *LocalMirrorRepository) Update(ctx context.Context, id string, in UpdateClientInput) (ClientView, error) {
	if err := in.Validate(); err != nil {
		return ClientView{}, err
	}
	return r.mutate(ctx, id, func(c *models.Client) error {
		delta, err := in.amountPaidDelta(c.AmountPaid)
		if err != nil {
			return err
		}
		now := r.now()
		in.apply(c)
		if delta.IsPositive() {
			addDemoPayment(c, delta, now)
		}
		c.UpdatedAt = now
		return nil
	})
}

func (r *LocalMirrorRepository) UpdateStatus(ctx context.Context, id string, status models.Status) (ClientView, error) {
	if err := validateStatus(status); err != nil {
		return ClientView{}, err
	}
	return r.mutate(ctx, id, func(c *models.Client) error {
		c.Status = status
		c.UpdatedAt = r.now()
		return nil
	})
}

func (r *LocalMirrorRepository) AddPayment(ctx context.Context, id string, amount decimal.Decimal) (ClientView, error) {
	if err := validateAmount(amount); err != nil {
		return ClientView{}, err
	}
	return r.mutate(ctx, id, func(c *models.Client) error {
		now := r.now()
		addDemoPayment(c, amount, now)
		c.UpdatedAt = now
		return nil
	})
}

// AddNote prepends a note to the demo client.
func (r *LocalMirrorRepository) AddNote(ctx context.Context, id string, content string) (NoteView, error) {
	content, err := validateNote(content)
	if err != nil {
		return NoteView{}, err
	}
	var note models.Note
	_, err = r.mutate(ctx, id, func(c *models.Client) error {
		now := r.now()
		note = models.Note{ID: newDemoNoteID(), ClientID: c.ID, Content: content, CreatedAt: now}
		c.Notes = append([]models.Note{note}, c.Notes...)
		c.UpdatedAt = now
		return nil
	})
	if err != nil {
		return NoteView{}, err
	}
	return toNoteView(note), nil
}

func (r *LocalMirrorRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.load(ctx); err != nil {
		return err
	}
	i := r.index(id)
	if i < 0 {
		return ErrNotFound
	}
	r.clients = slices.Delete(r.clients, i, i+1)
	return r.persist(ctx)
}

// Reset removes the stored mirror and leaves the session with no clients.
func (r *LocalMirrorRepository) Reset(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.storage.Delete(ctx, r.key); err != nil {
		return fmt.Errorf("remove demo mirror: %w", err)
	}
	r.clients = []models.Client{}
	r.loaded = true
	return nil
}

func newDemoPayment(clientID string, amount decimal.Decimal, at time.Time) models.Payment {
	return models.Payment{ID: newDemoPaymentID(), ClientID: clientID, Amount: amount, Date: at, CreatedAt: at}
}

// addDemoPayment keeps payments newest first and amountPaid equal to their sum.
func addDemoPayment(c *models.Client, amount decimal.Decimal, at time.Time) {
	c.Payments = append([]models.Payment{newDemoPayment(c.ID, amount, at)}, c.Payments...)
	c.AmountPaid = c.AmountPaid.Add(amount)
}
