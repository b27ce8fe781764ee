// Package store is the data access layer for clients, notes and payments.
// Two ClientRepository implementations exist: RemoteRepository writes to the
// database on behalf of an admin identity, LocalMirrorRepository keeps a
// per-session demo copy in key-value storage.
package store

import (
	"errors"

	"github.com/diewo77/client-ledger/gate"
)

var (
	// ErrNotFound is returned when a client id does not exist.
	ErrNotFound = errors.New("client not found")
	// ErrUnauthorized is returned when the bound identity is not an admin.
	ErrUnauthorized = gate.ErrUnauthorized
)
