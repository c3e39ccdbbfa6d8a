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

const ProviderPayfast = "payfast"

// PayfastService normalizes and verifies PayFast ITN (instant transaction
// notification) posts. Verification gates the ledger write even though the
// gateway is acknowledged as soon as the check completes.
type PayfastService struct {
	DB           *gorm.DB
	Transactions *TransactionService
}

func NewPayfastService(db *gorm.DB, transactions *TransactionService) *PayfastService {
	return &PayfastService{DB: db, Transactions: transactions}
}

func payfastStatus(status string) string {
	switch status {
	case "COMPLETE":
		return models.StatusComplete
	case "FAILED", "CANCELLED":
		return models.StatusFailed
	case "REVERSED", "CHARGEBACK":
		return models.StatusReversal
	default:
		return models.StatusPending
	}
}

// HandleNotification processes one PayFast ITN delivery.
func (s *PayfastService) HandleNotification(form url.Values) (*models.Transaction, error) {
	settings, err := providerSettings(s.DB, ProviderPayfast)
	if err != nil {
		return nil, err
	}

	params := make(map[string]string, len(form))
	for k := range form {
		params[k] = form.Get(k)
	}

	if !signature.VerifyPayfast(params, settings.Passphrase) {
		logCallback(s.DB, ProviderPayfast, params["pf_payment_id"], form, "signature mismatch", 0)
		return nil, ErrInvalidSignature
	}

	providerRef := params["pf_payment_id"]
	if providerRef == "" {
		return nil, fmt.Errorf("missing pf_payment_id")
	}

	payeeType, payeeId, err := parsePayeeRef(params["custom_str1"])
	if err != nil {
		logCallback(s.DB, ProviderPayfast, providerRef, form, err.Error(), 0)
		return nil, err
	}

	amount, err := decimal.NewFromString(params["amount_gross"])
	if err != nil {
		logCallback(s.DB, ProviderPayfast, providerRef, form, "unparseable amount", 0)
		return nil, fmt.Errorf("invalid amount_gross %q: %w", params["amount_gross"], err)
	}

	trx, err := s.Transactions.RecordPaymentEvent(PaymentEvent{
		Provider:      ProviderPayfast,
		ProviderRef:   providerRef,
		PayeeType:     payeeType,
		PayeeId:       payeeId,
		AmountGross:   amount,
		Status:        payfastStatus(params["payment_status"]),
		StatusMessage: params["payment_status"],
	})
	if err != nil {
		logCallback(s.DB, ProviderPayfast, providerRef, form, err.Error(), 0)
		return nil, err
	}

	log := logger.WithComponent("payfast")
	log.Info().
		Str("provider_ref", providerRef).
		Str("status", trx.Status).
		Msg("processed notification")
	logCallback(s.DB, ProviderPayfast, providerRef, form, "recorded as "+trx.Status, 1)
	return trx, nil
}
