package database

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"payshield-service/internal/models"
)

var DB *gorm.DB

func Connect() {
	var err error
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_NAME"),
	)

	DB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	log.Info().Msg("Database connection established")
}

func Migrate() {
	err := DB.AutoMigrate(
		&models.Transaction{},
		&models.Payout{},
		&models.LedgerEntry{},
		&models.AuditLog{},
		&models.FeeConfig{},
		&models.FeeOverride{},
		&models.ProviderSettings{},
		&models.PayeeAccount{},
		&models.CallbackLog{},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}
	log.Info().Msg("Database migration completed")
}

// IsDuplicateKey reports whether err is a unique-constraint violation.
// The settlement engine leans on unique indexes for idempotency, so this
// outcome is routine, not exceptional. Covers MySQL and the sqlite driver
// the tests run on.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
