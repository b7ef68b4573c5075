package ledger

import (
	"time"

	"greencreditapi/pkg/schemas"

	"github.com/google/uuid"
)

type Balance struct {
	Earned     int `json:"earned"`
	Spent      int `json:"spent"`
	Redeemable int `json:"redeemable"`
}

// Fold derives the balance from ledger entries. Credits and adjustments add
// to Earned, debits to Spent.
func Fold(entries []schemas.LedgerEntry) Balance {

	var b Balance
	for _, e := range entries {
		switch e.Type {
		case schemas.LEDGER_DEBIT:
			b.Spent -= e.Amount
		default:
			b.Earned += e.Amount
		}
	}
	b.Redeemable = b.Earned - b.Spent

	return b

}

// Credited is the amount currently credited for source.
func Credited(entries []schemas.LedgerEntry, source string) int {
	n := 0
	for _, e := range entries {
		if e.Source == source {
			n += e.Amount
		}
	}
	return n
}

// Settle returns the entry that brings the credit for source to award, or nil
// when the ledger already matches. The first entry for a source is a credit,
// later ones are adjustments.
func Settle(entries []schemas.LedgerEntry, userId string, source string, award int, now time.Time) *schemas.LedgerEntry {

	seen := false
	credited := 0
	for _, e := range entries {
		if e.Source == source {
			seen = true
			credited += e.Amount
		}
	}

	delta := award - credited
	if delta == 0 {
		return nil
	}

	entryType := schemas.LEDGER_CREDIT
	if seen {
		entryType = schemas.LEDGER_ADJUSTMENT
	}

	return &schemas.LedgerEntry{
		Id:     uuid.NewString(),
		UserId: userId,
		Type:   entryType,
		Amount: delta,
		Source: source,
		Ctime:  now,
	}

}

// Debit builds the ledger entry for an order.
func Debit(order *schemas.Order) *schemas.LedgerEntry {
	return &schemas.LedgerEntry{
		Id:     uuid.NewString(),
		UserId: order.UserId,
		Type:   schemas.LEDGER_DEBIT,
		Amount: -order.Total,
		Source: order.Source(),
		Ctime:  order.Ctime,
	}
}
