package models

import (
	"time"
)

// PayeeAccount holds the disbursement details for a payee: the bank
// account for EFT/instant transfers and the phone number for voucher SMS.
// Maintained by the admin CRUD surface; read-only here.
type PayeeAccount struct {
	ID            int       `gorm:"primaryKey;autoIncrement" json:"id"`
	PayeeType     string    `gorm:"column:payee_type;size:20;not null;uniqueIndex:idx_payee_account" json:"payee_type"`
	PayeeId       int       `gorm:"column:payee_id;not null;uniqueIndex:idx_payee_account" json:"payee_id"`
	AccountName   string    `gorm:"column:account_name;size:150" json:"account_name"`
	AccountNumber string    `gorm:"column:account_number;size:50" json:"account_number"`
	BankName      string    `gorm:"column:bank_name;size:150" json:"bank_name"`
	BankCode      string    `gorm:"column:bank_code;size:20" json:"bank_code"`
	PhoneNumber   string    `gorm:"column:phone_number;size:20" json:"phone_number"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (PayeeAccount) TableName() string {
	return "payee_accounts"
}
