package clients

import (
	"slices"
	"strings"
	"time"

	"github.com/diewo77/client-ledger/internal/models"
	"github.com/diewo77/client-ledger/internal/store"
)

// Preset is a smart filter of the client table.
type Preset string

const (
	PresetAll       Preset = "ALL"
	PresetDebt      Preset = "DEBT"
	PresetPaid      Preset = "PAID"
	PresetHighValue Preset = "HIGH_VALUE"
	PresetActive    Preset = "ACTIVE"
	PresetDormant   Preset = "DORMANT"
)

// SortMode orders the filtered table.
type SortMode string

const (
	SortDefault     SortMode = "DEFAULT"
	SortLastPayment SortMode = "LAST_PAYMENT"
)

const (
	// HighValueThreshold is the minimum quote of a HIGH_VALUE client.
	HighValueThreshold = 5000.0
	// ActiveWindow separates ACTIVE from DORMANT clients by last update.
	ActiveWindow = 30 * 24 * time.Hour
)

// Query selects and orders clients. Empty fields mean no constraint.
type Query struct {
	Search string
	Status models.Status
	Preset Preset
	Sort   SortMode
}

// Filter returns the clients matching q, evaluated at now. The input is not
// modified; DEFAULT keeps the input order.
func Filter(clients []store.ClientView, q Query, now time.Time) []store.ClientView {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]store.ClientView, 0, len(clients))
	for _, c := range clients {
		if search != "" && !strings.Contains(strings.ToLower(c.Name), search) && !strings.Contains(c.Phone, search) {
			continue
		}
		if q.Status != "" && c.Status != q.Status {
			continue
		}
		if !matchesPreset(c, q.Preset, now) {
			continue
		}
		out = append(out, c)
	}
	if q.Sort == SortLastPayment {
		slices.SortStableFunc(out, func(a, b store.ClientView) int {
			switch {
			case a.LastPayment == nil && b.LastPayment == nil:
				return 0
			case a.LastPayment == nil:
				return 1
			case b.LastPayment == nil:
				return -1
			}
			return b.LastPayment.Compare(*a.LastPayment)
		})
	}
	return out
}

func matchesPreset(c store.ClientView, p Preset, now time.Time) bool {
	balance := c.PriceQuoted - c.AmountPaid
	sinceUpdate := now.Sub(c.UpdatedAt)
	switch p {
	case PresetDebt:
		return balance > 0
	case PresetPaid:
		return balance <= 0
	case PresetHighValue:
		return c.PriceQuoted >= HighValueThreshold
	case PresetActive:
		return sinceUpdate <= ActiveWindow
	case PresetDormant:
		return sinceUpdate > ActiveWindow
	}
	return true
}

// ParsePreset maps a query value to a Preset, defaulting to ALL.
func ParsePreset(s string) Preset {
	switch p := Preset(strings.ToUpper(s)); p {
	case PresetDebt, PresetPaid, PresetHighValue, PresetActive, PresetDormant:
		return p
	}
	return PresetAll
}

// ParseSort maps a query value to a SortMode, defaulting to DEFAULT.
func ParseSort(s string) SortMode {
	if SortMode(strings.ToUpper(s)) == SortLastPayment {
		return SortLastPayment
	}
	return SortDefault
}
