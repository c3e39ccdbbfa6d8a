package main

import (
	"os"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"payshield-service/internal/consumers"
	"payshield-service/internal/database"
	"payshield-service/internal/logger"
	"payshield-service/internal/models"
	"payshield-service/internal/services"
	"payshield-service/internal/worker"
)

func main() {
	if err := godotenv.Load("../../.env"); err != nil {
		if err := godotenv.Load(".env"); err != nil {
			log.Info().Msg("No .env file found, using system environment variables")
		}
	}
	logger.Setup()

	database.Connect()
	db := database.DB

	auditService := services.NewAuditService(db)
	smsService := services.NewSMSService(db)
	disbursers := map[string]services.Disburser{
		models.MethodEFT:     services.NewEFTService(db),
		models.MethodInstant: services.NewInstantService(db),
		models.MethodVoucher: services.NewVoucherService(db, smsService),
	}

	dryRun := os.Getenv("DISBURSEMENT_DRY_RUN") == "true"
	lifecycleService := services.NewPayoutLifecycleService(db, auditService, nil, disbursers, dryRun)
	processor := consumers.NewPayoutProcessor(lifecycleService)

	redisAddr := os.Getenv("REDIS_URL")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	log.Info().Msg("Starting disbursement worker")
	worker.StartWorker(asynq.RedisClientOpt{Addr: redisAddr}, processor)
}
