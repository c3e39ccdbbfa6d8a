package services

import (
	"encoding/json"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"payshield-service/internal/logger"
	"payshield-service/internal/models"
)

// AuditService appends immutable ledger entries and audit log rows.
// Writes are best-effort: a failed append is logged and swallowed so it
// never rolls back or blocks the money-moving operation it accompanies.
type AuditService struct {
	DB *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{DB: db}
}

func (s *AuditService) AppendLedger(entryType string, transactionId, payoutId *uint, amount decimal.Decimal, metadata map[string]interface{}) {
	entry := models.LedgerEntry{
		EntryType:     entryType,
		TransactionId: transactionId,
		PayoutId:      payoutId,
		Amount:        amount,
		Metadata:      toJSON(metadata),
	}
	if err := s.DB.Create(&entry).Error; err != nil {
		log := logger.WithComponent("audit")
		log.Error().Err(err).Str("entry_type", entryType).Msg("failed to append ledger entry")
	}
}

// RecordAction writes an audit trail row. actorId is nil for
// system-initiated transitions.
func (s *AuditService) RecordAction(actorId *int, action, entityType string, entityId uint, metadata map[string]interface{}) {
	row := models.AuditLog{
		ActorId:    actorId,
		Action:     action,
		EntityType: entityType,
		EntityId:   entityId,
		Metadata:   toJSON(metadata),
	}
	if err := s.DB.Create(&row).Error; err != nil {
		log := logger.WithComponent("audit")
		log.Error().Err(err).Str("action", action).Msg("failed to record audit entry")
	}
}

func toJSON(metadata map[string]interface{}) datatypes.JSON {
	if metadata == nil {
		return nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return nil
	}
	return datatypes.JSON(data)
}
