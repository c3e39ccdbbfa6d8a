package services

import (
	"fmt"

	"gorm.io/gorm"

	"payshield-service/internal/logger"
	"payshield-service/pkg/common"
)

const providerSMS = "sms"

// SMSService sends notification messages through the configured SMS
// gateway. Failures are returned to the caller, not swallowed: for
// voucher payouts an undelivered SMS is a failed payout.
type SMSService struct {
	DB *gorm.DB
}

func NewSMSService(db *gorm.DB) *SMSService {
	return &SMSService{DB: db}
}

func (s *SMSService) Send(to, message string) error {
	settings, err := providerSettings(s.DB, providerSMS)
	if err != nil {
		return err
	}

	headers := map[string]string{
		"Authorization": "Bearer " + settings.SecretKey,
	}
	resp, err := common.Post(settings.BaseUrl+"/messages", map[string]interface{}{
		"to":      to,
		"message": message,
		"sender":  settings.MerchantId,
	}, headers)
	if err != nil {
		return fmt.Errorf("sms gateway error: %w", err)
	}

	if respMap, ok := resp.(map[string]interface{}); ok {
		if success, ok := respMap["success"].(bool); ok && !success {
			msg, _ := respMap["message"].(string)
			return fmt.Errorf("sms gateway rejected message: %s", msg)
		}
	}

	log := logger.WithComponent("sms")
	log.Info().Str("to", to).Msg("sms dispatched")
	return nil
}
