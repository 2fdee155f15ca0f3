package contact

import (
	"fmt"

	"github.com/lifesync-ledger/internal/domain/money"
)

// BalanceGroup is one row of the per-owner aggregation grouped by balance type
type BalanceGroup struct {
	Type  BalanceType  `bson:"_id"`
	Count int64        `bson:"count"`
	Total money.Amount `bson:"total"`
}

// Stats summarises every contact of one owner
type Stats struct {
	TotalContacts int64        `json:"total_contacts"`
	TotalOwe      money.Amount `json:"total_owe"`
	TotalOwed     money.Amount `json:"total_owed"`
	TotalSettled  int64        `json:"total_settled"`
}

// NewStats folds the grouped aggregation rows into owner totals. An owner without contacts gets all zeros.
// It fails with money.ErrOutOfRange when a total no longer fits in an Amount.
func NewStats(groups []BalanceGroup) (Stats, error) {
	var s Stats
	var err error
	for _, g := range groups {
		s.TotalContacts += g.Count
		switch g.Type {
		case BalanceOwe:
			s.TotalOwe, err = money.Add(s.TotalOwe, g.Total)
		case BalanceOwed:
			s.TotalOwed, err = money.Add(s.TotalOwed, g.Total)
		case BalanceSettled:
			s.TotalSettled += g.Count
		}
		if err != nil {
			return Stats{}, fmt.Errorf("%s total: %w", g.Type, err)
		}
	}
	return s, nil
}

// StatsOf computes the same totals directly from loaded contacts
func StatsOf(contacts []*Contact) (Stats, error) {
	groups := map[BalanceType]*BalanceGroup{}
	var ordered []BalanceGroup
	for _, c := range contacts {
		g, ok := groups[c.BalanceType]
		if !ok {
			g = &BalanceGroup{Type: c.BalanceType}
			groups[c.BalanceType] = g
		}
		total, err := money.Add(g.Total, c.CurrentBalance)
		if err != nil {
			return Stats{}, fmt.Errorf("%s total: %w", c.BalanceType, err)
		}
		g.Count++
		g.Total = total
	}
	for _, g := range groups {
		ordered = append(ordered, *g)
	}
	return NewStats(ordered)
}
