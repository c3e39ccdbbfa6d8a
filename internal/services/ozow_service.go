package services

import (
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"payshield-service/internal/logger"
	"payshield-service/internal/models"
	"payshield-service/internal/signature"
)

const ProviderOzow = "ozow"

// OzowService normalizes and verifies Ozow payment notifications before
// handing them to the transaction ledger writer.
type OzowService struct {
	DB           *gorm.DB
	Transactions *TransactionService
}

func NewOzowService(db *gorm.DB, transactions *TransactionService) *OzowService {
	return &OzowService{DB: db, Transactions: transactions}
}

// ozowStatus maps the gateway's status vocabulary onto ours. Anything we
// have not seen before stays pending until the gateway makes up its mind.
func ozowStatus(status string) string {
	switch status {
	case "Complete":
		return models.StatusComplete
	case "Cancelled", "Error", "Abandoned":
		return models.StatusFailed
	case "PendingInvestigation", "Pending":
		return models.StatusPending
	default:
		return models.StatusPending
	}
}

// HandleNotification processes one Ozow webhook delivery. The hash is
// checked before any state is touched; a mismatch returns
// ErrInvalidSignature and nothing is credited.
func (s *OzowService) HandleNotification(form url.Values) (*models.Transaction, error) {
	settings, err := providerSettings(s.DB, ProviderOzow)
	if err != nil {
		return nil, err
	}

	notification := signature.OzowNotification{
		SiteCode:             formValue(form, "SiteCode"),
		TransactionId:        formValue(form, "TransactionId"),
		TransactionReference: formValue(form, "TransactionReference"),
		Amount:               formValue(form, "Amount"),
		Status:               formValue(form, "Status"),
		Optional1:            formValue(form, "Optional1"),
		Optional2:            formValue(form, "Optional2"),
		Optional3:            formValue(form, "Optional3"),
		Optional4:            formValue(form, "Optional4"),
		Optional5:            formValue(form, "Optional5"),
		CurrencyCode:         formValue(form, "CurrencyCode"),
		IsTest:               formValue(form, "IsTest"),
		StatusMessage:        formValue(form, "StatusMessage"),
		Hash:                 formValue(form, "Hash"),
	}

	if !signature.VerifyOzow(notification, settings.PrivateKey) {
		logCallback(s.DB, ProviderOzow, notification.TransactionId, form, "hash mismatch", 0)
		return nil, ErrInvalidSignature
	}

	if notification.TransactionId == "" {
		return nil, fmt.Errorf("missing TransactionId")
	}

	payeeType, payeeId, err := parsePayeeRef(notification.Optional1)
	if err != nil {
		logCallback(s.DB, ProviderOzow, notification.TransactionId, form, err.Error(), 0)
		return nil, err
	}

	amount, err := decimal.NewFromString(notification.Amount)
	if err != nil {
		logCallback(s.DB, ProviderOzow, notification.TransactionId, form, "unparseable amount", 0)
		return nil, fmt.Errorf("invalid amount %q: %w", notification.Amount, err)
	}

	trx, err := s.Transactions.RecordPaymentEvent(PaymentEvent{
		Provider:      ProviderOzow,
		ProviderRef:   notification.TransactionId,
		PayeeType:     payeeType,
		PayeeId:       payeeId,
		AmountGross:   amount,
		Status:        ozowStatus(notification.Status),
		StatusMessage: notification.StatusMessage,
	})
	if err != nil {
		logCallback(s.DB, ProviderOzow, notification.TransactionId, form, err.Error(), 0)
		return nil, err
	}

	log := logger.WithComponent("ozow")
	log.Info().
		Str("provider_ref", notification.TransactionId).
		Str("status", trx.Status).
		Msg("processed notification")
	logCallback(s.DB, ProviderOzow, notification.TransactionId, form, "recorded as "+trx.Status, 1)
	return trx, nil
}
