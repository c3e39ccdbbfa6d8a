package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"payshield-service/internal/database"
	"payshield-service/internal/handlers"
	"payshield-service/internal/logger"
	"payshield-service/internal/models"
	"payshield-service/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, using system environment variables")
	}
	logger.Setup()

	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	}

	database.Connect()
	database.Migrate()
	db := database.DB

	// Core services
	configService := services.NewConfigService(db)
	auditService := services.NewAuditService(db)
	transactionService := services.NewTransactionService(db, configService, auditService)
	ozowService := services.NewOzowService(db, transactionService)
	payfastService := services.NewPayfastService(db, transactionService)
	payoutService := services.NewPayoutService(db, configService, auditService, transactionService)

	// Disbursement providers
	smsService := services.NewSMSService(db)
	disbursers := map[string]services.Disburser{
		models.MethodEFT:     services.NewEFTService(db),
		models.MethodInstant: services.NewInstantService(db),
		models.MethodVoucher: services.NewVoucherService(db, smsService),
	}

	redisAddr := os.Getenv("REDIS_URL")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})
	defer asynqClient.Close()

	dryRun := os.Getenv("DISBURSEMENT_DRY_RUN") == "true"
	lifecycleService := services.NewPayoutLifecycleService(db, auditService, asynqClient, disbursers, dryRun)

	// Handlers
	webhookHandler := handlers.NewWebhookHandler(ozowService, payfastService)
	payoutHandler := handlers.NewPayoutHandler(payoutService, lifecycleService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)

	r := gin.Default()

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "PayShield settlement service"})
	})

	r.POST("/webhook/ozow", webhookHandler.OzowNotify)
	r.POST("/webhook/payfast", webhookHandler.PayfastNotify)

	r.POST("/payouts/run", payoutHandler.RunBatch)
	r.GET("/payouts", payoutHandler.List)
	r.GET("/payouts/:id", payoutHandler.Get)
	r.POST("/payouts/:id/approve", payoutHandler.Approve)
	r.POST("/payouts/:id/process", payoutHandler.Process)
	r.POST("/payouts/:id/retry", payoutHandler.Retry)
	r.POST("/payouts/:id/complete", payoutHandler.Complete)

	r.GET("/transactions", transactionHandler.List)

	payoutService.StartScheduler()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Info().Str("port", port).Msg("HTTP server starting")
	if err := r.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}
