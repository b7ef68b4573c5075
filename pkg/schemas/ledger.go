package schemas

import "time"

const (
	LEDGER_CREDIT     = "credit"
	LEDGER_ADJUSTMENT = "adjustment"
	LEDGER_DEBIT      = "debit"
)

// LedgerEntry is an append-only balance event. Amount is signed, debits are
// negative.
type LedgerEntry struct {
	Id     string    `bson:"_id" json:"id"`
	UserId string    `bson:"userId" json:"userId"`
	Type   string    `bson:"type" json:"type"`
	Amount int       `bson:"amount" json:"amount"`
	Source string    `bson:"source" json:"source"`
	Ctime  time.Time `bson:"ctime" json:"ctime"`
}
