package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"payshield-service/internal/fees"
	"payshield-service/internal/models"
)

var ErrConfigMissing = errors.New("platform fee configuration is missing")

// ConfigService resolves the effective fee configuration for a payee:
// platform defaults with any per-payee overrides applied on top. The
// configuration tables are owned by the admin surface; this service only
// reads them.
type ConfigService struct {
	DB *gorm.DB
}

func NewConfigService(db *gorm.DB) *ConfigService {
	return &ConfigService{DB: db}
}

func (s *ConfigService) platformDefaults() (*models.FeeConfig, error) {
	var cfg models.FeeConfig
	if err := s.DB.Order("id").First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConfigMissing
		}
		return nil, err
	}
	return &cfg, nil
}

// EffectiveFees returns the fee parameters that apply to one payee.
func (s *ConfigService) EffectiveFees(payeeType string, payeeId int) (fees.Config, error) {
	platform, err := s.platformDefaults()
	if err != nil {
		return fees.Config{}, err
	}

	cfg := fees.Config{
		Percent:         platform.Percent,
		MinFee:          platform.MinFee,
		MaxFee:          platform.MaxFee,
		VatRate:         platform.VatRate,
		ProviderPercent: platform.ProviderPercent,
		ProviderMinFee:  platform.ProviderMinFee,
		PayoutFee:       platform.PayoutFee,
	}

	var override models.FeeOverride
	err = s.DB.Where("payee_type = ? AND payee_id = ?", payeeType, payeeId).First(&override).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return cfg, nil
		}
		return fees.Config{}, err
	}

	if override.Percent != nil {
		cfg.Percent = *override.Percent
	}
	if override.MinFee != nil {
		cfg.MinFee = *override.MinFee
	}
	if override.MaxFee != nil {
		cfg.MaxFee = *override.MaxFee
	}
	return cfg, nil
}

// MinimumPayout returns the net amount a payee must accumulate before the
// aggregator creates a payout for them.
func (s *ConfigService) MinimumPayout() (decimal.Decimal, error) {
	platform, err := s.platformDefaults()
	if err != nil {
		return decimal.Zero, err
	}
	return platform.MinimumPayout, nil
}
