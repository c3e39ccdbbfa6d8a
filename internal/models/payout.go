package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payout statuses
const (
	PayoutCreated    = "CREATED"
	PayoutApproved   = "APPROVED"
	PayoutProcessing = "PROCESSING"
	PayoutCompleted  = "COMPLETED"
	PayoutFailed     = "FAILED"
)

// Payout methods
const (
	MethodEFT     = "eft"
	MethodInstant = "instant"
	MethodVoucher = "voucher"
)

// Payout is one disbursement batch to one payee. The unique index on
// (payee_type, payee_id, payout_day) enforces at most one payout created
// per payee per calendar day; retried payouts reuse their original row.
type Payout struct {
	ID            uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	PayeeType     string          `gorm:"column:payee_type;size:20;not null;uniqueIndex:idx_payout_payee_day" json:"payee_type"`
	PayeeId       int             `gorm:"column:payee_id;not null;uniqueIndex:idx_payout_payee_day" json:"payee_id"`
	PayoutDay     string          `gorm:"column:payout_day;size:10;not null;uniqueIndex:idx_payout_payee_day" json:"payout_day"`
	Amount        decimal.Decimal `gorm:"column:amount;type:decimal(20,2);not null" json:"amount"`
	Status        string          `gorm:"column:status;size:20;not null;index" json:"status"`
	FailureReason *string         `gorm:"column:failure_reason;size:255" json:"failure_reason"`
	Method        string          `gorm:"column:method;size:20;not null" json:"method"`
	Provider      string          `gorm:"column:provider;size:50" json:"provider"`
	ReferenceCode string          `gorm:"column:reference_code;size:100" json:"reference_code"`
	PayoutDate    *time.Time      `gorm:"column:payout_date" json:"payout_date"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Payout) TableName() string {
	return "payouts"
}
