package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"payshield-service/internal/database"
	"payshield-service/internal/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../.env"); err != nil {
			log.Info().Msg("No .env file found, using system environment variables")
		}
	}
	logger.Setup()

	database.Connect()

	log.Info().Msg("Running database migrations...")
	database.Migrate()
	log.Info().Msg("Migrations completed")
}
