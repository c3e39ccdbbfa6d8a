package consumers

import (
	"payshield-service/internal/logger"
	"payshield-service/internal/services"
)

// PayoutProcessor executes disbursement jobs picked up by the worker.
type PayoutProcessor struct {
	Lifecycle *services.PayoutLifecycleService
}

func NewPayoutProcessor(lifecycle *services.PayoutLifecycleService) *PayoutProcessor {
	return &PayoutProcessor{Lifecycle: lifecycle}
}

// ProcessDisbursement runs the external disbursement call for one payout.
// Provider failures are settled into the payout row by the lifecycle
// service; only infrastructure errors propagate for asynq to retry.
func (p *PayoutProcessor) ProcessDisbursement(payoutId uint) error {
	err := p.Lifecycle.ExecuteDisbursement(payoutId)
	if err != nil {
		log := logger.WithComponent("worker")
		log.Error().Err(err).Uint("payout_id", payoutId).Msg("disbursement job failed")
	}
	return err
}
