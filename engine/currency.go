/*
currency.go - Dual-rate currency conversion

PURPOSE:
  Two independent exchange rates exist per employee:

  COMPENSATION RATE: fixed, derived once from OTE-local / OTE-USD at hire
  or comp-change time. Applied to all variable-pay (metric) amounts so a
  moving market never changes salary-linked pay.

  MARKET RATE: looked up per month from a rate table. Applied to all
  deal-linked amounts (commission, NRR, SPIFF).

  Rates are expressed as USD per one local unit, so:

    local = usd / rate_to_usd

  Converting USD -> local -> USD with the same rate round-trips within
  rounding tolerance.
*/
package engine

import (
	"github.com/shopspring/decimal"
)

// RateProvider looks up the monthly market rate for a currency, expressed
// as USD per one local unit. Implementations return a RateNotFoundError
// when no rate is published for the month.
type RateProvider interface {
	MarketRate(currency Currency, month YearMonth) (decimal.Decimal, error)
}

// StaticRates is a fixed in-memory rate table, used in tests and seeds.
type StaticRates map[Currency]map[YearMonth]decimal.Decimal

func (r StaticRates) MarketRate(currency Currency, month YearMonth) (decimal.Decimal, error) {
	if byMonth, ok := r[currency]; ok {
		if rate, ok := byMonth[month]; ok {
			return rate, nil
		}
	}
	return decimal.Zero, &RateNotFoundError{Currency: currency, Month: month}
}

// =============================================================================
// CONVERTER - Per-employee conversion context
// =============================================================================

// Converter converts USD payouts into an employee's local currency using
// the correct rate for the payout's nature.
type Converter struct {
	Currency      Currency
	CompRateToUSD decimal.Decimal // fixed at hire/change: OTE-USD / OTE-local
	Rates         RateProvider
}

// VariablePayLocal converts a variable-pay (metric) amount at the fixed
// compensation rate. A USD employee or missing rate converts 1:1.
func (c Converter) VariablePayLocal(usd decimal.Decimal) decimal.Decimal {
	if c.Currency == CurrencyUSD || !c.CompRateToUSD.IsPositive() {
		return usd
	}
	return usd.Div(c.CompRateToUSD)
}

// DealPayLocal converts a deal-linked amount (commission/NRR/SPIFF) at the
// month's market rate.
func (c Converter) DealPayLocal(usd decimal.Decimal, month YearMonth) (decimal.Decimal, error) {
	if c.Currency == CurrencyUSD {
		return usd, nil
	}
	rate, err := c.Rates.MarketRate(c.Currency, month)
	if err != nil {
		return decimal.Zero, err
	}
	return usd.Div(rate), nil
}

// MarketRateFor exposes the raw looked-up rate for audit fields.
func (c Converter) MarketRateFor(month YearMonth) (decimal.Decimal, error) {
	if c.Currency == CurrencyUSD {
		return decimal.NewFromInt(1), nil
	}
	return c.Rates.MarketRate(c.Currency, month)
}
