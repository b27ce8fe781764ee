package store

import (
	"context"

	"github.com/diewo77/client-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// ClientRepository is the persistence strategy of one session.
type ClientRepository interface {
	// List returns every client with notes and the last payment date but
	// without payment history. The order is up to the implementation: the
	// database lists most recently updated first, the demo mirror keeps
	// insertion order with new clients first.
	List(ctx context.Context) ([]ClientView, error)
	// Get returns one client with notes and payment history, newest first.
	Get(ctx context.Context, id string) (ClientView, error)
	Create(ctx context.Context, in CreateClientInput) (ClientView, error)
	Update(ctx context.Context, id string, in UpdateClientInput) (ClientView, error)
	UpdateStatus(ctx context.Context, id string, status models.Status) (ClientView, error)
	AddPayment(ctx context.Context, id string, amount decimal.Decimal) (ClientView, error)
	AddNote(ctx context.Context, id string, content string) (NoteView, error)
	// Delete removes the client with its notes and payments.
	Delete(ctx context.Context, id string) error
}

// Resetter is implemented by repositories whose data can be wiped by the user.
type Resetter interface {
	Reset(ctx context.Context) error
}
