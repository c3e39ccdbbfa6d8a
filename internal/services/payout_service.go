package services

import (
	"errors"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"payshield-service/internal/database"
	"payshield-service/internal/logger"
	"payshield-service/internal/models"
	"payshield-service/pkg/common"
)

// PayoutService aggregates unattributed completed transactions into draft
// payout batches, one per payee per run.
type PayoutService struct {
	DB           *gorm.DB
	Config       *ConfigService
	Audit        *AuditService
	Transactions *TransactionService
}

func NewPayoutService(db *gorm.DB, config *ConfigService, audit *AuditService, transactions *TransactionService) *PayoutService {
	return &PayoutService{DB: db, Config: config, Audit: audit, Transactions: transactions}
}

type BatchResult struct {
	PayoutsCreated int `json:"payoutsCreated"`
	SkippedPayees  int `json:"skippedPayees"`
}

type payeeKey struct {
	payeeType string
	payeeId   int
}

// RunBatch groups completed, unattributed transactions per payee and
// creates one CREATED payout per group whose net total meets the minimum
// threshold. Attribution sets payout_id exactly once; the selection
// predicate (payout_id IS NULL) guarantees later runs cannot re-select a
// transaction. A payee whose payout slot for today is already taken is
// skipped and its transactions roll to the next run.
func (s *PayoutService) RunBatch() (BatchResult, error) {
	log := logger.WithComponent("aggregator")

	minPayout, err := s.Config.MinimumPayout()
	if err != nil {
		return BatchResult{}, err
	}

	var eligible []models.Transaction
	err = s.DB.Where("status = ? AND payout_id IS NULL AND retry_of IS NULL", models.StatusComplete).
		Order("id").
		Find(&eligible).Error
	if err != nil {
		return BatchResult{}, err
	}

	groups := make(map[payeeKey][]models.Transaction)
	for _, trx := range eligible {
		key := payeeKey{payeeType: trx.PayeeType, payeeId: trx.PayeeId}
		groups[key] = append(groups[key], trx)
	}

	result := BatchResult{}
	method := os.Getenv("PAYOUT_METHOD")
	if method == "" {
		method = models.MethodEFT
	}
	today := time.Now().Format("2006-01-02")

	for key, trxs := range groups {
		total := decimal.Zero
		ids := make([]uint, 0, len(trxs))
		for _, trx := range trxs {
			total = total.Add(trx.AmountNet)
			ids = append(ids, trx.ID)
		}

		if total.LessThan(minPayout) {
			log.Debug().
				Str("payee_type", key.payeeType).
				Int("payee_id", key.payeeId).
				Str("total", total.String()).
				Msg("below minimum payout threshold, deferring")
			continue
		}

		payout := models.Payout{
			PayeeType:     key.payeeType,
			PayeeId:       key.payeeId,
			PayoutDay:     today,
			Amount:        total,
			Status:        models.PayoutCreated,
			Method:        method,
			ReferenceCode: common.GeneratePayoutRef(),
		}

		err := s.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&payout).Error; err != nil {
				return err
			}
			res := tx.Model(&models.Transaction{}).
				Where("id IN ? AND payout_id IS NULL", ids).
				Update("payout_id", payout.ID)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected != int64(len(ids)) {
				return errors.New("transactions were attributed by a concurrent run")
			}
			return nil
		})

		switch {
		case database.IsDuplicateKey(err):
			log.Warn().
				Str("payee_type", key.payeeType).
				Int("payee_id", key.payeeId).
				Msg("payout already created for payee today, skipping group")
			result.SkippedPayees++
		case err != nil:
			log.Error().Err(err).
				Str("payee_type", key.payeeType).
				Int("payee_id", key.payeeId).
				Msg("failed to create payout, skipping group")
			result.SkippedPayees++
		default:
			s.Audit.AppendLedger(models.LedgerPayoutAssigned, nil, &payout.ID, total, map[string]interface{}{
				"payee_type":        key.payeeType,
				"payee_id":          key.payeeId,
				"transaction_count": len(ids),
			})
			s.Audit.RecordAction(nil, "payout.create", "payout", payout.ID, map[string]interface{}{
				"amount": total.String(),
				"method": method,
			})
			result.PayoutsCreated++
		}
	}

	log.Info().
		Int("created", result.PayoutsCreated).
		Int("skipped", result.SkippedPayees).
		Msg("aggregation run finished")
	return result, nil
}

type ListPayoutsDTO struct {
	Status string
	Page   int
	Limit  int
}

func (s *PayoutService) ListPayouts(param ListPayoutsDTO) ([]models.Payout, int64, error) {
	query := s.DB.Model(&models.Payout{})
	if param.Status != "" {
		query = query.Where("status = ?", param.Status)
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

	var rows []models.Payout
	err := query.Order("id DESC").
		Offset((param.Page - 1) * param.Limit).
		Limit(param.Limit).
		Find(&rows).Error
	return rows, total, err
}

// GetPayout returns a payout with the transactions attributed to it.
func (s *PayoutService) GetPayout(id uint) (*models.Payout, []models.Transaction, error) {
	var payout models.Payout
	if err := s.DB.First(&payout, id).Error; err != nil {
		return nil, nil, err
	}
	var trxs []models.Transaction
	if err := s.DB.Where("payout_id = ?", id).Order("id").Find(&trxs).Error; err != nil {
		return nil, nil, err
	}
	return &payout, trxs, nil
}

// StartScheduler wires the aggregation batch and the stale-pending sweep
// onto cron. Schedules are env-overridable.
func (s *PayoutService) StartScheduler() {
	log := logger.WithComponent("scheduler")

	batchSpec := os.Getenv("PAYOUT_CRON")
	if batchSpec == "" {
		batchSpec = "0 2 * * *"
	}

	c := cron.New()
	_, err := c.AddFunc(batchSpec, func() {
		if _, err := s.RunBatch(); err != nil {
			log.Error().Err(err).Msg("scheduled aggregation run failed")
		}
	})
	if err != nil {
		log.Error().Err(err).Str("spec", batchSpec).Msg("failed to schedule aggregation run")
		return
	}

	_, err = c.AddFunc("*/30 * * * *", func() {
		if _, err := s.Transactions.FailStalePending(24 * time.Hour); err != nil {
			log.Error().Err(err).Msg("stale pending sweep failed")
		}
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to schedule stale pending sweep")
		return
	}

	c.Start()
	log.Info().Str("batch", batchSpec).Msg("payout scheduler started")
}
