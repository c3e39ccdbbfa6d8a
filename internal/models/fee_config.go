package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeeConfig holds the platform-wide default fee parameters. A single row
// is expected; the settlement engine treats it as read-only.
type FeeConfig struct {
	ID              uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	Percent         decimal.Decimal `gorm:"column:percent;type:decimal(10,4);not null" json:"percent"`
	MinFee          decimal.Decimal `gorm:"column:min_fee;type:decimal(20,2);not null" json:"min_fee"`
	MaxFee          decimal.Decimal `gorm:"column:max_fee;type:decimal(20,2);not null" json:"max_fee"`
	VatRate         decimal.Decimal `gorm:"column:vat_rate;type:decimal(10,4);not null" json:"vat_rate"`
	ProviderPercent decimal.Decimal `gorm:"column:provider_percent;type:decimal(10,4);not null" json:"provider_percent"`
	ProviderMinFee  decimal.Decimal `gorm:"column:provider_min_fee;type:decimal(20,2);not null" json:"provider_min_fee"`
	PayoutFee       decimal.Decimal `gorm:"column:payout_fee;type:decimal(20,2);not null" json:"payout_fee"`
	MinimumPayout   decimal.Decimal `gorm:"column:minimum_payout;type:decimal(20,2);not null" json:"minimum_payout"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (FeeConfig) TableName() string {
	return "fee_configs"
}

// FeeOverride is an optional per-payee override of the platform percent,
// minimum and maximum. Nil fields fall back to the platform default.
type FeeOverride struct {
	ID        uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	PayeeType string           `gorm:"column:payee_type;size:20;not null;uniqueIndex:idx_fee_override_payee" json:"payee_type"`
	PayeeId   int              `gorm:"column:payee_id;not null;uniqueIndex:idx_fee_override_payee" json:"payee_id"`
	Percent   *decimal.Decimal `gorm:"column:percent;type:decimal(10,4)" json:"percent"`
	MinFee    *decimal.Decimal `gorm:"column:min_fee;type:decimal(20,2)" json:"min_fee"`
	MaxFee    *decimal.Decimal `gorm:"column:max_fee;type:decimal(20,2)" json:"max_fee"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (FeeOverride) TableName() string {
	return "fee_overrides"
}
