package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"payshield-service/internal/models"
)

// setupTestDB opens a per-test in-memory sqlite database with the full
// schema. TranslateError matches the production connection so duplicate
// key handling behaves the same way.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
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
	require.NoError(t, err)
	return db
}

func seedFeeConfig(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Create(&models.FeeConfig{
		Percent:         decimal.NewFromFloat(5),
		MinFee:          decimal.NewFromFloat(2),
		MaxFee:          decimal.NewFromFloat(50),
		VatRate:         decimal.NewFromFloat(0.15),
		ProviderPercent: decimal.NewFromFloat(3.5),
		ProviderMinFee:  decimal.NewFromFloat(2),
		PayoutFee:       decimal.NewFromFloat(2.50),
		MinimumPayout:   decimal.NewFromFloat(50),
	}).Error)
}

func newTestTransactionService(db *gorm.DB) *TransactionService {
	return NewTransactionService(db, NewConfigService(db), NewAuditService(db))
}

func ledgerEntries(t *testing.T, db *gorm.DB, entryType string) []models.LedgerEntry {
	t.Helper()
	var entries []models.LedgerEntry
	require.NoError(t, db.Where("entry_type = ?", entryType).Order("id").Find(&entries).Error)
	return entries
}
