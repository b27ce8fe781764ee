package main

// Maintenance: go run ./cmd/server -reconcile-payments
// Resets every client's amountPaid to the sum of its recorded payments.

import (
	"context"
	"errors"
	"flag"

	"github.com/diewo77/client-ledger/auth"
	"github.com/diewo77/client-ledger/internal/policy"
	"github.com/diewo77/client-ledger/internal/store"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var reconcileFlag = flag.Bool("reconcile-payments", false, "Recompute amountPaid from the payment history and exit")

// runReconcile acts as the first configured admin so the usual
// authorization applies. It returns how many clients changed.
func runReconcile(ctx context.Context, conn *gorm.DB, adminEmails []string, log logrus.FieldLogger) (int, error) {
	if len(adminEmails) == 0 {
		return 0, errors.New("ADMIN_EMAILS is empty")
	}
	admins := policy.NewAdminList(adminEmails)
	ag := policy.NewAuthGate(admins)
	repo := store.NewRemoteRepository(conn, ag.Gate, auth.Identity{Email: adminEmails[0]})

	list, err := repo.List(ctx)
	if err != nil {
		return 0, err
	}
	changed := 0
	for _, c := range list {
		after, err := repo.Reconcile(ctx, c.ID)
		if err != nil {
			log.WithError(err).WithField("client", c.ID).Warn("reconcile failed")
			continue
		}
		if after.AmountPaid != c.AmountPaid {
			log.WithFields(logrus.Fields{"client": c.Name, "before": c.AmountPaid, "after": after.AmountPaid}).Info("amount paid corrected")
			changed++
		}
	}
	return changed, nil
}
