package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"payshield-service/internal/consumers"
	"payshield-service/internal/services"
)

type Worker struct {
	Processor *consumers.PayoutProcessor
}

func NewWorker(processor *consumers.PayoutProcessor) *Worker {
	return &Worker{Processor: processor}
}

func (w *Worker) HandlePayoutDisburse(ctx context.Context, t *asynq.Task) error {
	var p services.PayoutDisbursePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	if err := w.Processor.ProcessDisbursement(p.PayoutId); err != nil {
		if errors.Is(err, services.ErrInvalidState) {
			// Payout already settled by a concurrent execution.
			return nil
		}
		return err
	}
	return nil
}

func StartWorker(redisOpt asynq.RedisClientOpt, processor *consumers.PayoutProcessor) {
	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	worker := NewWorker(processor)
	mux := asynq.NewServeMux()
	mux.HandleFunc(services.TaskPayoutDisburse, worker.HandlePayoutDisburse)

	if err := srv.Run(mux); err != nil {
		log.Fatal().Err(err).Msg("could not run worker server")
	}
}
