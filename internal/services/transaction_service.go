package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"payshield-service/internal/database"
	"payshield-service/internal/fees"
	"payshield-service/internal/logger"
	"payshield-service/internal/models"
)

// PaymentEvent is the normalized form of a provider webhook, produced by
// the gateway services before any business logic runs.
type PaymentEvent struct {
	Provider      string
	ProviderRef   string
	PayeeType     string
	PayeeId       int
	AmountGross   decimal.Decimal
	Status        string
	StatusMessage string
}

// TransactionService is the single write path for inbound payment events.
// Recording is idempotent on (provider, provider_ref): redelivery of the
// same provider event never creates a second row or a second ledger entry.
type TransactionService struct {
	DB     *gorm.DB
	Config *ConfigService
	Audit  *AuditService
}

func NewTransactionService(db *gorm.DB, config *ConfigService, audit *AuditService) *TransactionService {
	return &TransactionService{DB: db, Config: config, Audit: audit}
}

// RecordPaymentEvent persists one provider notification. The unique index
// on (provider, provider_ref) is the sole correctness mechanism under
// concurrent duplicate delivery: a duplicate-key insert is treated as
// "already recorded" and resolves to the existing row.
func (s *TransactionService) RecordPaymentEvent(event PaymentEvent) (*models.Transaction, error) {
	var existing models.Transaction
	err := s.DB.Where("provider = ? AND provider_ref = ?", event.Provider, event.ProviderRef).
		First(&existing).Error
	switch {
	case err == nil:
		return s.applyStatusUpdate(&existing, event)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.insertNew(event)
	default:
		return nil, err
	}
}

func (s *TransactionService) insertNew(event PaymentEvent) (*models.Transaction, error) {
	trx := models.Transaction{
		Provider:      event.Provider,
		ProviderRef:   event.ProviderRef,
		PayeeType:     event.PayeeType,
		PayeeId:       event.PayeeId,
		AmountGross:   event.AmountGross.Round(2),
		Status:        event.Status,
		StatusMessage: event.StatusMessage,
	}

	if event.Status == models.StatusComplete {
		breakdown, err := s.feeSplit(event)
		if err != nil {
			return nil, err
		}
		applyBreakdown(&trx, breakdown)
	}

	if err := s.DB.Create(&trx).Error; err != nil {
		if database.IsDuplicateKey(err) {
			// Concurrent delivery won the insert race; fall through to the
			// idempotent update path against the row it created.
			var winner models.Transaction
			if ferr := s.DB.Where("provider = ? AND provider_ref = ?", event.Provider, event.ProviderRef).
				First(&winner).Error; ferr != nil {
				return nil, ferr
			}
			return s.applyStatusUpdate(&winner, event)
		}
		return nil, err
	}

	if trx.Status == models.StatusComplete {
		s.Audit.AppendLedger(models.LedgerPaymentReceived, &trx.ID, nil, trx.AmountNet, map[string]interface{}{
			"provider":     trx.Provider,
			"provider_ref": trx.ProviderRef,
			"amount_gross": trx.AmountGross.String(),
		})
	}
	return &trx, nil
}

// applyStatusUpdate advances an existing row. A COMPLETE row never
// regresses: any further delivery for it is a no-op.
func (s *TransactionService) applyStatusUpdate(trx *models.Transaction, event PaymentEvent) (*models.Transaction, error) {
	if trx.Status == models.StatusComplete || trx.Status == models.StatusPaidOut {
		return trx, nil
	}

	if event.Status != models.StatusComplete {
		if event.Status == trx.Status {
			return trx, nil
		}
		res := s.DB.Model(&models.Transaction{}).
			Where("id = ? AND status NOT IN ?", trx.ID, []string{models.StatusComplete, models.StatusPaidOut}).
			Updates(map[string]interface{}{
				"status":         event.Status,
				"status_message": event.StatusMessage,
			})
		if res.Error != nil {
			return nil, res.Error
		}
		return s.reload(trx.ID)
	}

	breakdown, err := s.feeSplit(event)
	if err != nil {
		return nil, err
	}

	res := s.DB.Model(&models.Transaction{}).
		Where("id = ? AND status NOT IN ?", trx.ID, []string{models.StatusComplete, models.StatusPaidOut}).
		Updates(map[string]interface{}{
			"status":         models.StatusComplete,
			"status_message": event.StatusMessage,
			"amount_gross":   breakdown.AmountGross,
			"platform_fee":   breakdown.PlatformFee,
			"platform_vat":   breakdown.PlatformVat,
			"provider_fee":   breakdown.ProviderFee,
			"provider_vat":   breakdown.ProviderVat,
			"payout_fee":     breakdown.PayoutFee,
			"amount_net":     breakdown.AmountNet,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// A concurrent completion got there first; its writer appended the
		// ledger entry.
		return s.reload(trx.ID)
	}

	s.Audit.AppendLedger(models.LedgerPaymentReceived, &trx.ID, nil, breakdown.AmountNet, map[string]interface{}{
		"provider":     event.Provider,
		"provider_ref": event.ProviderRef,
		"amount_gross": breakdown.AmountGross.String(),
	})
	return s.reload(trx.ID)
}

func (s *TransactionService) feeSplit(event PaymentEvent) (fees.Breakdown, error) {
	cfg, err := s.Config.EffectiveFees(event.PayeeType, event.PayeeId)
	if err != nil {
		return fees.Breakdown{}, err
	}
	return fees.Calculate(event.AmountGross, cfg)
}

func (s *TransactionService) reload(id uint) (*models.Transaction, error) {
	var trx models.Transaction
	if err := s.DB.First(&trx, id).Error; err != nil {
		return nil, err
	}
	return &trx, nil
}

func applyBreakdown(trx *models.Transaction, b fees.Breakdown) {
	trx.AmountGross = b.AmountGross
	trx.PlatformFee = b.PlatformFee
	trx.PlatformVat = b.PlatformVat
	trx.ProviderFee = b.ProviderFee
	trx.ProviderVat = b.ProviderVat
	trx.PayoutFee = b.PayoutFee
	trx.AmountNet = b.AmountNet
	trx.Status = models.StatusComplete
}

// FailStalePending marks placeholder rows that never received a completion
// notification as FAILED. A later completion webhook still upgrades them,
// since the upgrade predicate only excludes terminal-success statuses.
func (s *TransactionService) FailStalePending(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	res := s.DB.Model(&models.Transaction{}).
		Where("status = ? AND retry_of IS NULL AND created_at <= ?", models.StatusPending, cutoff).
		Update("status", models.StatusFailed)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		log := logger.WithComponent("transactions")
		log.Info().Int64("count", res.RowsAffected).Msg("flagged stale pending transactions as failed")
	}
	return res.RowsAffected, nil
}

type ListTransactionsDTO struct {
	Status    string
	Provider  string
	PayeeType string
	PayeeId   int
	Page      int
	Limit     int
}

// ListTransactions returns a page of transactions for the admin surface.
func (s *TransactionService) ListTransactions(param ListTransactionsDTO) ([]models.Transaction, int64, error) {
	query := s.DB.Model(&models.Transaction{})
	if param.Status != "" {
		query = query.Where("status = ?", param.Status)
	}
	if param.Provider != "" {
		query = query.Where("provider = ?", param.Provider)
	}
	if param.PayeeType != "" {
		query = query.Where("payee_type = ? AND payee_id = ?", param.PayeeType, param.PayeeId)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if param.Limit <= 0 {
		param.Limit = 50
	}
	if param.Page <= 0 {
		param.Page = 1
	}

	var rows []models.Transaction
	err := query.Order("id DESC").
		Offset((param.Page - 1) * param.Limit).
		Limit(param.Limit).
		Find(&rows).Error
	return rows, total, err
}
