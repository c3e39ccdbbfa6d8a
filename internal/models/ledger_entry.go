package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Ledger entry types
const (
	LedgerPaymentReceived = "PAYMENT_RECEIVED"
	LedgerPayoutAssigned  = "PAYOUT_ASSIGNED"
	LedgerPayoutExecuted  = "PAYOUT_EXECUTED"
	LedgerPayoutFailed    = "PAYOUT_FAILED"
)

// LedgerEntry is an append-only audit record of a money-moving event.
// Rows are never updated or deleted; reconciliation reads this table
// independently of the mutable transaction/payout state.
type LedgerEntry struct {
	ID            uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	EntryType     string          `gorm:"column:entry_type;size:30;not null;index" json:"entry_type"`
	TransactionId *uint           `gorm:"column:transaction_id;index" json:"transaction_id"`
	PayoutId      *uint           `gorm:"column:payout_id;index" json:"payout_id"`
	Amount        decimal.Decimal `gorm:"column:amount;type:decimal(20,2);not null" json:"amount"`
	Metadata      datatypes.JSON  `gorm:"column:metadata" json:"metadata"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entries"
}
