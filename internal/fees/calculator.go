// Package fees computes the gross to net split for an inbound payment.
// Calculate is pure: resolving the effective configuration for a payee is
// the caller's job (services.ConfigService).
package fees

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("gross amount must be greater than zero")

// Config is the effective fee configuration for one payee: platform
// defaults with any per-payee overrides already applied.
type Config struct {
	Percent         decimal.Decimal
	MinFee          decimal.Decimal
	MaxFee          decimal.Decimal
	VatRate         decimal.Decimal
	ProviderPercent decimal.Decimal
	ProviderMinFee  decimal.Decimal
	PayoutFee       decimal.Decimal
}

// Breakdown carries every intermediate figure of the split. All of it is
// persisted on the transaction so reconciliation never has to recompute.
type Breakdown struct {
	AmountGross decimal.Decimal
	PlatformFee decimal.Decimal
	PlatformVat decimal.Decimal
	ProviderFee decimal.Decimal
	ProviderVat decimal.Decimal
	PayoutFee   decimal.Decimal
	AmountNet   decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// Calculate splits a gross amount into fees, VAT and the net owed to the
// payee. Every intermediate value is rounded to 2 decimals before it is
// combined; the webhook side and reconciliation must round identically or
// the ledger will not balance.
func Calculate(gross decimal.Decimal, cfg Config) (Breakdown, error) {
	if gross.LessThanOrEqual(decimal.Zero) {
		return Breakdown{}, ErrInvalidAmount
	}

	platformFee := gross.Mul(cfg.Percent).Div(hundred).Round(2)
	if platformFee.LessThan(cfg.MinFee) {
		platformFee = cfg.MinFee
	}
	if platformFee.GreaterThan(cfg.MaxFee) {
		platformFee = cfg.MaxFee
	}

	providerFee := gross.Mul(cfg.ProviderPercent).Div(hundred).Round(2)
	if providerFee.LessThan(cfg.ProviderMinFee) {
		providerFee = cfg.ProviderMinFee
	}

	platformVat := platformFee.Mul(cfg.VatRate).Round(2)
	providerVat := providerFee.Mul(cfg.VatRate).Round(2)

	net := gross.
		Sub(providerFee).
		Sub(providerVat).
		Sub(platformFee).
		Sub(platformVat).
		Sub(cfg.PayoutFee)

	return Breakdown{
		AmountGross: gross.Round(2),
		PlatformFee: platformFee,
		PlatformVat: platformVat,
		ProviderFee: providerFee,
		ProviderVat: providerVat,
		PayoutFee:   cfg.PayoutFee,
		AmountNet:   net,
	}, nil
}
