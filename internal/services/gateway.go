package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"payshield-service/internal/models"
)

// Webhook ingestion errors. ErrInvalidSignature is the only failure a
// provider is told about; everything else is acknowledged neutrally so the
// provider does not retry-storm.
var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrProviderDisabled = errors.New("provider is not configured")
)

// providerSettings loads the settings row for one provider.
func providerSettings(db *gorm.DB, provider string) (*models.ProviderSettings, error) {
	var settings models.ProviderSettings
	err := db.Where("provider = ? AND status = ?", provider, 1).First(&settings).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProviderDisabled
		}
		return nil, err
	}
	return &settings, nil
}

// formValue looks a key up case-insensitively. Gateways are not consistent
// about field casing between their sandbox and production notifiers.
func formValue(values url.Values, key string) string {
	if v := values.Get(key); v != "" {
		return v
	}
	for k := range values {
		if strings.EqualFold(k, key) {
			return values.Get(k)
		}
	}
	return ""
}

// parsePayeeRef decodes the merchant reference carried in the payment
// ("guard:17" or "business:4"). A bare number is a guard reference.
func parsePayeeRef(ref string) (payeeType string, payeeId int, err error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", 0, fmt.Errorf("empty payee reference")
	}

	payeeType = models.PayeeGuard
	idPart := ref
	if parts := strings.SplitN(ref, ":", 2); len(parts) == 2 {
		payeeType = strings.ToLower(parts[0])
		idPart = parts[1]
	}
	if payeeType != models.PayeeGuard && payeeType != models.PayeeBusiness {
		return "", 0, fmt.Errorf("unknown payee type %q", payeeType)
	}

	payeeId, err = strconv.Atoi(strings.TrimSpace(idPart))
	if err != nil || payeeId <= 0 {
		return "", 0, fmt.Errorf("invalid payee reference %q", ref)
	}
	return payeeType, payeeId, nil
}

// logCallback saves the raw webhook payload and the outcome we applied.
func logCallback(db *gorm.DB, provider, transactionId string, request url.Values, response string, status int) {
	reqBytes, _ := json.Marshal(request)
	db.Create(&models.CallbackLog{
		Provider:      provider,
		TransactionId: transactionId,
		Request:       string(reqBytes),
		Response:      response,
		Status:        status,
	})
}
