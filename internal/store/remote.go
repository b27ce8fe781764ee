package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diewo77/client-ledger/auth"
	"github.com/diewo77/client-ledger/gate"
	"github.com/diewo77/client-ledger/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const resourceClient = "client"

// Authorizer decides whether an e-mail may act on a resource.
// *gate.Gate[string] satisfies it.
type Authorizer interface {
	Authorize(ctx context.Context, subject string, resource string, action gate.Action) error
}

// RemoteRepository reads and writes the shared database. Every call first
// re-checks the bound identity's e-mail through the authorizer; the
// identity's IsAdmin flag is never consulted.
type RemoteRepository struct {
	db       *gorm.DB
	authz    Authorizer
	identity auth.Identity
	now      func() time.Time
}

// NewRemoteRepository binds db access to identity.
func NewRemoteRepository(db *gorm.DB, authz Authorizer, identity auth.Identity) *RemoteRepository {
	return &RemoteRepository{db: db, authz: authz, identity: identity, now: time.Now}
}

func (r *RemoteRepository) authorize(ctx context.Context, action gate.Action) error {
	email := strings.ToLower(strings.TrimSpace(r.identity.Email))
	return r.authz.Authorize(ctx, email, resourceClient, action)
}

func notesNewestFirst(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }

func paymentsNewestFirst(db *gorm.DB) *gorm.DB { return db.Order("date DESC") }

func (r *RemoteRepository) List(ctx context.Context) ([]ClientView, error) {
	if err := r.authorize(ctx, gate.ActionList); err != nil {
		return nil, err
	}
	var clients []models.Client
	err := r.db.WithContext(ctx).
		Preload("Notes", notesNewestFirst).
		Preload("Payments", paymentsNewestFirst).
		Order("updated_at DESC").
		Find(&clients).Error
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	out := make([]ClientView, 0, len(clients))
	for i := range clients {
		out = append(out, ToView(&clients[i], false))
	}
	return out, nil
}

func (r *RemoteRepository) Get(ctx context.Context, id string) (ClientView, error) {
	if err := r.authorize(ctx, gate.ActionView); err != nil {
		return ClientView{}, err
	}
	return r.get(r.db.WithContext(ctx), id)
}

func (r *RemoteRepository) get(db *gorm.DB, id string) (ClientView, error) {
	var c models.Client
	err := db.Preload("Notes", notesNewestFirst).
		Preload("Payments", paymentsNewestFirst).
		First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ClientView{}, ErrNotFound
	}
	if err != nil {
		return ClientView{}, fmt.Errorf("get client %s: %w", id, err)
	}
	return ToView(&c, true), nil
}

// Create inserts a PENDING client. An initial amount paid is recorded as an
// opening payment in the same transaction.
func (r *RemoteRepository) Create(ctx context.Context, in CreateClientInput) (ClientView, error) {
	if err := r.authorize(ctx, gate.ActionCreate); err != nil {
		return ClientView{}, err
	}
	if err := in.Validate(); err != nil {
		return ClientView{}, err
	}
	now := r.now()
	c := models.Client{
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
	}
	if in.AmountPaid.IsPositive() {
		c.Payments = []models.Payment{{Amount: in.AmountPaid, Date: now}}
	}
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		return ClientView{}, fmt.Errorf("create client: %w", err)
	}
	return r.get(r.db.WithContext(ctx), c.ID)
}

// Update changes profile and financial fields. Raising amountPaid records
// the difference as a payment; lowering it is a validation error.
func (r *RemoteRepository) Update(ctx context.Context, id string, in UpdateClientInput) (ClientView, error) {
	if err := r.authorize(ctx, gate.ActionUpdate); err != nil {
		return ClientView{}, err
	}
	if err := in.Validate(); err != nil {
		return ClientView{}, err
	}
	now := r.now()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Client
		q := tx
		if tx.Dialector.Name() == "postgres" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&current, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load client %s: %w", id, err)
		}
		delta, err := in.amountPaidDelta(current.AmountPaid)
		if err != nil {
			return err
		}
		cols := in.columns()
		cols["updated_at"] = now
		if delta.IsPositive() {
			cols["amount_paid"] = gorm.Expr("amount_paid + ?", delta)
			p := models.Payment{ClientID: id, Amount: delta, Date: now}
			if err := tx.Create(&p).Error; err != nil {
				return fmt.Errorf("record adjustment payment: %w", err)
			}
		}
		if err := tx.Model(&models.Client{}).Where("id = ?", id).Updates(cols).Error; err != nil {
			return fmt.Errorf("update client %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return ClientView{}, err
	}
	return r.get(r.db.WithContext(ctx), id)
}

func (r *RemoteRepository) UpdateStatus(ctx context.Context, id string, status models.Status) (ClientView, error) {
	if err := r.authorize(ctx, gate.ActionUpdate); err != nil {
		return ClientView{}, err
	}
	if err := validateStatus(status); err != nil {
		return ClientView{}, err
	}
	res := r.db.WithContext(ctx).Model(&models.Client{}).Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": r.now()})
	if res.Error != nil {
		return ClientView{}, fmt.Errorf("update status %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ClientView{}, ErrNotFound
	}
	return r.get(r.db.WithContext(ctx), id)
}

// AddPayment records a payment and increments amountPaid in one transaction.
// The increment is computed by the database so concurrent payments add up.
func (r *RemoteRepository) AddPayment(ctx context.Context, id string, amount decimal.Decimal) (ClientView, error) {
	if err := r.authorize(ctx, gate.ActionUpdate); err != nil {
		return ClientView{}, err
	}
	if err := validateAmount(amount); err != nil {
		return ClientView{}, err
	}
	now := r.now()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Client{}).Where("id = ?", id).Updates(map[string]any{
			"amount_paid": gorm.Expr("amount_paid + ?", amount),
			"updated_at":  now,
		})
		if res.Error != nil {
			return fmt.Errorf("increment amount paid %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		p := models.Payment{ClientID: id, Amount: amount, Date: now}
		if err := tx.Create(&p).Error; err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return ClientView{}, err
	}
	return r.get(r.db.WithContext(ctx), id)
}

func (r *RemoteRepository) AddNote(ctx context.Context, id string, content string) (NoteView, error) {
	if err := r.authorize(ctx, gate.ActionUpdate); err != nil {
		return NoteView{}, err
	}
	content, err := validateNote(content)
	if err != nil {
		return NoteView{}, err
	}
	now := r.now()
	n := models.Note{ClientID: id, Content: content, CreatedAt: now}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Client{}).Where("id = ?", id).Update("updated_at", now)
		if res.Error != nil {
			return fmt.Errorf("touch client %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Create(&n).Error; err != nil {
			return fmt.Errorf("insert note: %w", err)
		}
		return nil
	})
	if err != nil {
		return NoteView{}, err
	}
	return toNoteView(n), nil
}

// Delete removes the client, its notes and its payments atomically.
func (r *RemoteRepository) Delete(ctx context.Context, id string) error {
	if err := r.authorize(ctx, gate.ActionDelete); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("client_id = ?", id).Delete(&models.Payment{}).Error; err != nil {
			return fmt.Errorf("delete payments of %s: %w", id, err)
		}
		if err := tx.Where("client_id = ?", id).Delete(&models.Note{}).Error; err != nil {
			return fmt.Errorf("delete notes of %s: %w", id, err)
		}
		res := tx.Where("id = ?", id).Delete(&models.Client{})
		if res.Error != nil {
			return fmt.Errorf("delete client %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Reconcile resets amountPaid to the sum of the client's payments.
func (r *RemoteRepository) Reconcile(ctx context.Context, id string) (ClientView, error) {
	if err := r.authorize(ctx, gate.ActionUpdate); err != nil {
		return ClientView{}, err
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sum decimal.NullDecimal
		row := tx.Model(&models.Payment{}).Select("SUM(amount)").Where("client_id = ?", id).Row()
		if err := row.Scan(&sum); err != nil {
			return fmt.Errorf("sum payments of %s: %w", id, err)
		}
		total := decimal.Zero
		if sum.Valid {
			total = sum.Decimal
		}
		res := tx.Model(&models.Client{}).Where("id = ?", id).Update("amount_paid", total)
		if res.Error != nil {
			return fmt.Errorf("reconcile %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return ClientView{}, err
	}
	return r.get(r.db.WithContext(ctx), id)
}
