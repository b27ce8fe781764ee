package clients

import (
	"github.com/diewo77/client-ledger/internal/models"
	"github.com/diewo77/client-ledger/internal/store"
	"github.com/shopspring/decimal"
)

// Stats are the dashboard stat cards.
type Stats struct {
	TotalClients       int     `json:"totalClients"`
	TotalRevenue       float64 `json:"totalRevenue"`
	OutstandingBalance float64 `json:"outstandingBalance"`
	ActiveProjects     int     `json:"activeProjects"`
}

// ComputeStats sums the clients. Overpaid clients count as zero outstanding.
func ComputeStats(clients []store.ClientView) Stats {
	revenue, outstanding := decimal.Zero, decimal.Zero
	st := Stats{TotalClients: len(clients)}
	for _, c := range clients {
		revenue = revenue.Add(decimal.NewFromFloat(c.AmountPaid))
		outstanding = outstanding.Add(decimal.NewFromFloat(c.BalanceDue))
		if c.Status == models.StatusActive {
			st.ActiveProjects++
		}
	}
	st.TotalRevenue = revenue.InexactFloat64()
	st.OutstandingBalance = outstanding.InexactFloat64()
	return st
}
