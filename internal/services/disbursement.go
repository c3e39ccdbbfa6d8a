package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"payshield-service/internal/models"
	"payshield-service/pkg/common"
)

// DisbursementResult identifies the executed transfer at the provider.
type DisbursementResult struct {
	Provider  string `json:"provider"`
	Reference string `json:"reference"`
}

// Disburser sends one payout to an external disbursement provider. Send
// must be idempotent per payout: the payout's reference code is passed as
// the provider-side idempotency key.
type Disburser interface {
	Send(payout *models.Payout) (DisbursementResult, error)
}

func payeeAccount(db *gorm.DB, payout *models.Payout) (*models.PayeeAccount, error) {
	var account models.PayeeAccount
	err := db.Where("payee_type = ? AND payee_id = ?", payout.PayeeType, payout.PayeeId).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s %d has no disbursement account on record", payout.PayeeType, payout.PayeeId)
		}
		return nil, err
	}
	return &account, nil
}

// providerAccepted inspects the decoded response body for an explicit
// rejection. Providers answer either success:bool or status:"success"; a
// transfer is only settled as executed when neither signals a failure.
func providerAccepted(resp interface{}) error {
	respMap, ok := resp.(map[string]interface{})
	if !ok {
		return nil
	}
	msg, _ := respMap["message"].(string)
	if success, ok := respMap["success"].(bool); ok && !success {
		if msg == "" {
			msg = "provider rejected the transfer"
		}
		return errors.New(msg)
	}
	if status, ok := respMap["status"].(string); ok && !strings.EqualFold(status, "success") {
		if msg == "" {
			msg = "provider returned status " + status
		}
		return errors.New(msg)
	}
	return nil
}

func providerReference(resp interface{}) string {
	respMap, ok := resp.(map[string]interface{})
	if !ok {
		return ""
	}
	if data, ok := respMap["data"].(map[string]interface{}); ok {
		respMap = data
	}
	for _, key := range []string{"reference", "transfer_code", "transferReference", "id"} {
		if ref, ok := respMap[key].(string); ok && ref != "" {
			return ref
		}
	}
	return ""
}

// EFTService disburses a payout as a standard bank transfer.
type EFTService struct {
	DB *gorm.DB
}

func NewEFTService(db *gorm.DB) *EFTService {
	return &EFTService{DB: db}
}

func (s *EFTService) Send(payout *models.Payout) (DisbursementResult, error) {
	settings, err := providerSettings(s.DB, models.MethodEFT)
	if err != nil {
		return DisbursementResult{}, err
	}

	account, err := payeeAccount(s.DB, payout)
	if err != nil {
		return DisbursementResult{}, err
	}
	if account.AccountNumber == "" || account.BankCode == "" {
		return DisbursementResult{}, fmt.Errorf("%s %d has no bank account details", payout.PayeeType, payout.PayeeId)
	}

	headers := map[string]string{
		"Authorization": "Bearer " + settings.SecretKey,
	}
	resp, err := common.Post(settings.BaseUrl+"/transfers", map[string]interface{}{
		"amount":         payout.Amount.StringFixed(2),
		"currency":       "ZAR",
		"reference":      payout.ReferenceCode,
		"account_number": account.AccountNumber,
		"bank_code":      account.BankCode,
		"account_name":   account.AccountName,
	}, headers)
	if err != nil {
		return DisbursementResult{}, fmt.Errorf("eft transfer failed: %w", err)
	}
	if err := providerAccepted(resp); err != nil {
		return DisbursementResult{}, fmt.Errorf("eft transfer rejected: %w", err)
	}

	ref := providerReference(resp)
	if ref == "" {
		ref = payout.ReferenceCode
	}
	return DisbursementResult{Provider: models.MethodEFT, Reference: ref}, nil
}

// InstantService disburses a payout over the instant clearing rail. Same
// provider contract as EFT with a different endpoint and settlement speed.
type InstantService struct {
	DB *gorm.DB
}

func NewInstantService(db *gorm.DB) *InstantService {
	return &InstantService{DB: db}
}

func (s *InstantService) Send(payout *models.Payout) (DisbursementResult, error) {
	settings, err := providerSettings(s.DB, models.MethodInstant)
	if err != nil {
		return DisbursementResult{}, err
	}

	account, err := payeeAccount(s.DB, payout)
	if err != nil {
		return DisbursementResult{}, err
	}
	if account.AccountNumber == "" || account.BankCode == "" {
		return DisbursementResult{}, fmt.Errorf("%s %d has no bank account details", payout.PayeeType, payout.PayeeId)
	}

	headers := map[string]string{
		"Authorization": "Bearer " + settings.SecretKey,
	}
	resp, err := common.Post(settings.BaseUrl+"/instant-transfers", map[string]interface{}{
		"amount":        payout.Amount.StringFixed(2),
		"currency":      "ZAR",
		"reference":     payout.ReferenceCode,
		"accountNumber": account.AccountNumber,
		"bankCode":      account.BankCode,
	}, headers)
	if err != nil {
		return DisbursementResult{}, fmt.Errorf("instant transfer failed: %w", err)
	}
	if err := providerAccepted(resp); err != nil {
		return DisbursementResult{}, fmt.Errorf("instant transfer rejected: %w", err)
	}

	ref := providerReference(resp)
	if ref == "" {
		ref = payout.ReferenceCode
	}
	return DisbursementResult{Provider: models.MethodInstant, Reference: ref}, nil
}

// VoucherService disburses a payout as a cash voucher collected at a till
// point, delivered to the payee by SMS. An SMS failure fails the payout;
// a voucher nobody is told about is money lost.
type VoucherService struct {
	DB  *gorm.DB
	SMS *SMSService
}

func NewVoucherService(db *gorm.DB, sms *SMSService) *VoucherService {
	return &VoucherService{DB: db, SMS: sms}
}

func (s *VoucherService) Send(payout *models.Payout) (DisbursementResult, error) {
	settings, err := providerSettings(s.DB, models.MethodVoucher)
	if err != nil {
		return DisbursementResult{}, err
	}

	account, err := payeeAccount(s.DB, payout)
	if err != nil {
		return DisbursementResult{}, err
	}
	if account.PhoneNumber == "" {
		return DisbursementResult{}, fmt.Errorf("%s %d has no phone number", payout.PayeeType, payout.PayeeId)
	}

	voucherCode := common.GenerateTrxNo()
	headers := map[string]string{
		"Authorization": "Bearer " + settings.SecretKey,
	}
	resp, err := common.Post(settings.BaseUrl+"/vouchers", map[string]interface{}{
		"amount":    payout.Amount.StringFixed(2),
		"reference": payout.ReferenceCode,
		"code":      voucherCode,
	}, headers)
	if err != nil {
		return DisbursementResult{}, fmt.Errorf("voucher provisioning failed: %w", err)
	}
	if err := providerAccepted(resp); err != nil {
		return DisbursementResult{}, fmt.Errorf("voucher provisioning rejected: %w", err)
	}

	ref := providerReference(resp)
	if ref == "" {
		ref = voucherCode
	}

	message := fmt.Sprintf("Your payout of R%s is ready. Collect with voucher code %s at any till point.",
		payout.Amount.StringFixed(2), voucherCode)
	if err := s.SMS.Send(account.PhoneNumber, message); err != nil {
		return DisbursementResult{}, fmt.Errorf("voucher sms failed: %w", err)
	}

	return DisbursementResult{Provider: models.MethodVoucher, Reference: ref}, nil
}
