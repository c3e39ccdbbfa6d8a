package models

import (
	"time"
)

// ProviderSettings stores credentials and endpoints for inbound payment
// gateways (ozow, payfast), disbursement providers (eft, instant, voucher)
// and the SMS gateway. One row per provider.
type ProviderSettings struct {
	ID              int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Provider        string    `gorm:"column:provider;size:50;not null;uniqueIndex" json:"provider"`
	DisplayName     string    `gorm:"column:display_name;size:200" json:"display_name"`
	BaseUrl         string    `gorm:"column:base_url;size:255" json:"base_url"`
	SiteCode        string    `gorm:"column:site_code;size:50" json:"site_code"`
	MerchantId      string    `gorm:"column:merchant_id;size:150" json:"merchant_id"`
	SecretKey       string    `gorm:"column:secret_key;type:text" json:"secret_key"`
	PrivateKey      string    `gorm:"column:private_key;type:text" json:"private_key"`
	Passphrase      string    `gorm:"column:passphrase;size:255" json:"passphrase"`
	Status          int       `gorm:"column:status;default:0" json:"status"`
	ForDisbursement int       `gorm:"column:for_disbursement;default:0" json:"for_disbursement"`
	TestMode        int       `gorm:"column:test_mode;default:0" json:"test_mode"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (ProviderSettings) TableName() string {
	return "provider_settings"
}
