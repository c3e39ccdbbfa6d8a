package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction statuses. COMPLETE is terminal for inbound payments and is
// never regressed. PROCESSING/RETRY/PAID_OUT apply to payout attempt rows.
const (
	StatusPending    = "PENDING"
	StatusComplete   = "COMPLETE"
	StatusFailed     = "FAILED"
	StatusReversal   = "REVERSAL"
	StatusRetry      = "RETRY"
	StatusProcessing = "PROCESSING"
	StatusPaidOut    = "PAID_OUT"
)

// Payee types
const (
	PayeeGuard    = "guard"
	PayeeBusiness = "business"
)

// Transaction is a single inbound payment event, or a payout attempt row
// (RetryOf set) created when a payout enters processing. The unique index
// on (provider, provider_ref) is the idempotency key for webhook redelivery.
type Transaction struct {
	ID               uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	Provider         string          `gorm:"column:provider;size:50;not null;uniqueIndex:idx_trx_provider_ref" json:"provider"`
	ProviderRef      string          `gorm:"column:provider_ref;size:100;not null;uniqueIndex:idx_trx_provider_ref" json:"provider_ref"`
	PayeeType        string          `gorm:"column:payee_type;size:20;not null;index:idx_trx_payee" json:"payee_type"`
	PayeeId          int             `gorm:"column:payee_id;not null;index:idx_trx_payee" json:"payee_id"`
	AmountGross      decimal.Decimal `gorm:"column:amount_gross;type:decimal(20,2);not null" json:"amount_gross"`
	PlatformFee      decimal.Decimal `gorm:"column:platform_fee;type:decimal(20,2);not null" json:"platform_fee"`
	PlatformVat      decimal.Decimal `gorm:"column:platform_vat;type:decimal(20,2);not null" json:"platform_vat"`
	ProviderFee      decimal.Decimal `gorm:"column:provider_fee;type:decimal(20,2);not null" json:"provider_fee"`
	ProviderVat      decimal.Decimal `gorm:"column:provider_vat;type:decimal(20,2);not null" json:"provider_vat"`
	PayoutFee        decimal.Decimal `gorm:"column:payout_fee;type:decimal(20,2);not null" json:"payout_fee"`
	AmountNet        decimal.Decimal `gorm:"column:amount_net;type:decimal(20,2);not null" json:"amount_net"`
	Status           string          `gorm:"column:status;size:20;not null;index" json:"status"`
	StatusMessage    string          `gorm:"column:status_message;size:255" json:"status_message"`
	PayoutId         *uint           `gorm:"column:payout_id;index" json:"payout_id"`
	RetryOf          *uint           `gorm:"column:retry_of" json:"retry_of"`
	DisburseProvider string          `gorm:"column:disburse_provider;size:50" json:"disburse_provider"`
	DisburseRef      string          `gorm:"column:disburse_ref;size:100" json:"disburse_ref"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}
