package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"payshield-service/internal/logger"
	"payshield-service/internal/models"
)

// ErrInvalidState is returned when a lifecycle transition is attempted
// from the wrong state, or when a concurrent caller won the transition
// race. The payout is left untouched either way.
var ErrInvalidState = errors.New("payout is not in a valid state for this action")

// TaskPayoutDisburse is the asynq task type carrying a payout id to the
// disbursement worker.
const TaskPayoutDisburse = "payout:disburse"

type PayoutDisbursePayload struct {
	PayoutId uint `json:"payoutId"`
}

// PayoutLifecycleService drives a payout from CREATED through execution.
// Every transition is a predicate-guarded conditional update; zero rows
// affected means a concurrent race loss and surfaces as ErrInvalidState.
// The service holds no locks and is safe to run in multiple instances.
type PayoutLifecycleService struct {
	DB         *gorm.DB
	Audit      *AuditService
	Queue      *asynq.Client // nil runs disbursement inline
	Disbursers map[string]Disburser
	DryRun     bool
}

func NewPayoutLifecycleService(db *gorm.DB, audit *AuditService, queue *asynq.Client, disbursers map[string]Disburser, dryRun bool) *PayoutLifecycleService {
	return &PayoutLifecycleService{
		DB:         db,
		Audit:      audit,
		Queue:      queue,
		Disbursers: disbursers,
		DryRun:     dryRun,
	}
}

// Approve moves a payout from CREATED to APPROVED.
func (s *PayoutLifecycleService) Approve(payoutId uint, actorId *int) (*models.Payout, error) {
	res := s.DB.Model(&models.Payout{}).
		Where("id = ? AND status = ?", payoutId, models.PayoutCreated).
		Update("status", models.PayoutApproved)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrInvalidState
	}

	payout, err := s.reload(payoutId)
	if err != nil {
		return nil, err
	}
	s.Audit.RecordAction(actorId, "payout.approve", "payout", payoutId, map[string]interface{}{
		"amount": payout.Amount.String(),
	})
	return payout, nil
}

// Process moves an APPROVED payout to PROCESSING, creates a fresh set of
// attempt transactions linked to the originals via retry_of, and hands the
// payout to the disbursement worker (or executes inline when no queue is
// configured). Attempts left over from a previous failed run are flagged
// RETRY so reconciliation counts each run once.
func (s *PayoutLifecycleService) Process(payoutId uint, actorId *int) (*models.Payout, error) {
	res := s.DB.Model(&models.Payout{}).
		Where("id = ? AND status = ?", payoutId, models.PayoutApproved).
		Update("status", models.PayoutProcessing)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrInvalidState
	}

	payout, err := s.reload(payoutId)
	if err != nil {
		return nil, err
	}

	if err := s.createAttempts(payout); err != nil {
		s.revertToApproved(payoutId)
		return nil, err
	}

	s.Audit.RecordAction(actorId, "payout.process", "payout", payoutId, map[string]interface{}{
		"amount": payout.Amount.String(),
		"method": payout.Method,
	})

	if s.Queue != nil {
		payload, err := json.Marshal(PayoutDisbursePayload{PayoutId: payoutId})
		if err != nil {
			s.revertToApproved(payoutId)
			return nil, err
		}
		task := asynq.NewTask(TaskPayoutDisburse, payload)
		_, err = s.Queue.Enqueue(task, asynq.TaskID(fmt.Sprintf("payout-disburse:%d:%s", payoutId, payout.ReferenceCode)))
		if err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
			s.revertToApproved(payoutId)
			return nil, err
		}
		return payout, nil
	}

	if err := s.ExecuteDisbursement(payoutId); err != nil {
		return nil, err
	}
	return s.reload(payoutId)
}

// revertToApproved undoes the PROCESSING flip when the hand-off to the
// disbursement path fails before anything was sent. No API transition
// leaves PROCESSING, so without the revert the payout would be stranded.
func (s *PayoutLifecycleService) revertToApproved(payoutId uint) {
	res := s.DB.Model(&models.Payout{}).
		Where("id = ? AND status = ?", payoutId, models.PayoutProcessing).
		Update("status", models.PayoutApproved)
	if res.Error != nil {
		log := logger.WithComponent("payouts")
		log.Error().Err(res.Error).Uint("payout_id", payoutId).Msg("failed to revert payout to approved")
	}
}

func (s *PayoutLifecycleService) createAttempts(payout *models.Payout) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		// Supersede attempts from an earlier failed run.
		if err := tx.Model(&models.Transaction{}).
			Where("payout_id = ? AND retry_of IS NOT NULL AND status = ?", payout.ID, models.StatusProcessing).
			Update("status", models.StatusRetry).Error; err != nil {
			return err
		}

		var originals []models.Transaction
		if err := tx.Where("payout_id = ? AND retry_of IS NULL", payout.ID).
			Order("id").
			Find(&originals).Error; err != nil {
			return err
		}

		for _, orig := range originals {
			origId := orig.ID
			attempt := models.Transaction{
				Provider:    "payshield",
				ProviderRef: fmt.Sprintf("%s:%d:%d", payout.ReferenceCode, origId, time.Now().UnixNano()),
				PayeeType:   orig.PayeeType,
				PayeeId:     orig.PayeeId,
				AmountGross: orig.AmountGross,
				PlatformFee: orig.PlatformFee,
				PlatformVat: orig.PlatformVat,
				ProviderFee: orig.ProviderFee,
				ProviderVat: orig.ProviderVat,
				PayoutFee:   orig.PayoutFee,
				AmountNet:   orig.AmountNet,
				Status:      models.StatusProcessing,
				PayoutId:    &payout.ID,
				RetryOf:     &origId,
			}
			if err := tx.Create(&attempt).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ExecuteDisbursement calls the external disbursement provider for a
// PROCESSING payout and settles the outcome. A provider failure is
// converted into payout FAILED with the reason recorded, never propagated
// as a fault (so a queued execution is not retried blindly).
func (s *PayoutLifecycleService) ExecuteDisbursement(payoutId uint) error {
	log := logger.WithComponent("disbursement")

	payout, err := s.reload(payoutId)
	if err != nil {
		return err
	}
	if payout.Status != models.PayoutProcessing {
		return ErrInvalidState
	}

	result, derr := s.dispatch(payout)
	if derr != nil {
		reason := derr.Error()
		res := s.DB.Model(&models.Payout{}).
			Where("id = ? AND status = ?", payoutId, models.PayoutProcessing).
			Updates(map[string]interface{}{
				"status":         models.PayoutFailed,
				"failure_reason": reason,
			})
		if res.Error != nil {
			return res.Error
		}
		// Zero rows means a concurrent execution already settled the
		// payout; it owns the ledger and audit writes for that outcome.
		if res.RowsAffected > 0 {
			s.Audit.AppendLedger(models.LedgerPayoutFailed, nil, &payoutId, payout.Amount, map[string]interface{}{
				"reason": reason,
				"method": payout.Method,
			})
			s.Audit.RecordAction(nil, "payout.fail", "payout", payoutId, map[string]interface{}{
				"reason": reason,
			})
			log.Warn().Uint("payout_id", payoutId).Str("reason", reason).Msg("disbursement failed")
		}
		return nil
	}

	// Attempts reach PAID_OUT before the payout flips COMPLETED, so a
	// completed payout never has live attempts behind it.
	now := time.Now()
	err = s.DB.Model(&models.Transaction{}).
		Where("payout_id = ? AND retry_of IS NOT NULL AND status = ?", payoutId, models.StatusProcessing).
		Updates(map[string]interface{}{
			"status":            models.StatusPaidOut,
			"disburse_provider": result.Provider,
			"disburse_ref":      result.Reference,
		}).Error
	if err != nil {
		return err
	}

	res := s.DB.Model(&models.Payout{}).
		Where("id = ? AND status = ?", payoutId, models.PayoutProcessing).
		Updates(map[string]interface{}{
			"status":         models.PayoutCompleted,
			"provider":       result.Provider,
			"reference_code": result.Reference,
			"payout_date":    now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvalidState
	}

	s.Audit.AppendLedger(models.LedgerPayoutExecuted, nil, &payoutId, payout.Amount, map[string]interface{}{
		"provider":  result.Provider,
		"reference": result.Reference,
	})
	s.Audit.RecordAction(nil, "payout.complete", "payout", payoutId, map[string]interface{}{
		"provider":  result.Provider,
		"reference": result.Reference,
		"amount":    payout.Amount.String(),
	})
	log.Info().Uint("payout_id", payoutId).Str("reference", result.Reference).Msg("payout disbursed")
	return nil
}

func (s *PayoutLifecycleService) dispatch(payout *models.Payout) (DisbursementResult, error) {
	if s.DryRun {
		return DisbursementResult{
			Provider:  "dry-run",
			Reference: payout.ReferenceCode,
		}, nil
	}

	disburser, ok := s.Disbursers[payout.Method]
	if !ok {
		return DisbursementResult{}, fmt.Errorf("no disbursement provider for method %q", payout.Method)
	}
	return disburser.Send(payout)
}

// Retry moves a FAILED payout back to APPROVED so a new process call can
// run a fresh attempt batch against the same base transactions.
func (s *PayoutLifecycleService) Retry(payoutId uint, actorId *int) (*models.Payout, error) {
	res := s.DB.Model(&models.Payout{}).
		Where("id = ? AND status = ?", payoutId, models.PayoutFailed).
		Updates(map[string]interface{}{
			"status":         models.PayoutApproved,
			"failure_reason": nil,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrInvalidState
	}

	s.Audit.RecordAction(actorId, "payout.retry", "payout", payoutId, nil)
	return s.reload(payoutId)
}

// Complete records an out-of-band disbursement: the payout jumps straight
// from CREATED to COMPLETED with the operator's reference. Always audited
// with the operator identity.
func (s *PayoutLifecycleService) Complete(payoutId uint, reference string, actorId *int) (*models.Payout, error) {
	now := time.Now()
	res := s.DB.Model(&models.Payout{}).
		Where("id = ? AND status = ?", payoutId, models.PayoutCreated).
		Updates(map[string]interface{}{
			"status":         models.PayoutCompleted,
			"provider":       "manual",
			"reference_code": reference,
			"payout_date":    now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrInvalidState
	}

	payout, err := s.reload(payoutId)
	if err != nil {
		return nil, err
	}
	s.Audit.AppendLedger(models.LedgerPayoutExecuted, nil, &payoutId, payout.Amount, map[string]interface{}{
		"provider":  "manual",
		"reference": reference,
	})
	s.Audit.RecordAction(actorId, "payout.complete.manual", "payout", payoutId, map[string]interface{}{
		"reference": reference,
	})
	return payout, nil
}

func (s *PayoutLifecycleService) reload(id uint) (*models.Payout, error) {
	var payout models.Payout
	if err := s.DB.First(&payout, id).Error; err != nil {
		return nil, err
	}
	return &payout, nil
}
