package models

import (
	"time"
)

// CallbackLog keeps the raw body of every webhook delivery together with
// the outcome we applied, for forensic replay when a provider disputes a
// settlement.
type CallbackLog struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Provider      string    `gorm:"column:provider;size:50;not null;index" json:"provider"`
	TransactionId string    `gorm:"column:transaction_id;size:100;index" json:"transaction_id"`
	Request       string    `gorm:"column:request;type:longtext" json:"request"`
	Response      string    `gorm:"column:response;type:longtext" json:"response"`
	Status        int       `gorm:"column:status;default:0" json:"status"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (CallbackLog) TableName() string {
	return "callback_logs"
}
