package charges

import (
	"fmt"

	"ipo-wizard/src/models"

	"github.com/shopspring/decimal"
)

// Rates holds the charge rates as fractions of the amount they apply to.
type Rates struct {
	Brokerage decimal.Decimal
	STT       decimal.Decimal
	GST       decimal.Decimal // on brokerage
	SEBI      decimal.Decimal
	StampDuty decimal.Decimal
}

// DefaultRates: brokerage 0.1%, STT 0.1%, GST 18% of brokerage,
// SEBI 0.01%, stamp duty 0.015%.
var DefaultRates = Rates{
	Brokerage: decimal.RequireFromString("0.001"),
	STT:       decimal.RequireFromString("0.001"),
	GST:       decimal.RequireFromString("0.18"),
	SEBI:      decimal.RequireFromString("0.0001"),
	StampDuty: decimal.RequireFromString("0.00015"),
}

// -----------------------------------------------------------------------------

// RatesFromConfig parses the configured rates. Empty fields keep the default.
func RatesFromConfig(cfg models.MChargeRates) (Rates, error) {
	r := DefaultRates
	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"brokerage", cfg.Brokerage, &r.Brokerage},
		{"stt", cfg.STT, &r.STT},
		{"gst", cfg.GST, &r.GST},
		{"sebi", cfg.SEBI, &r.SEBI},
		{"stamp_duty", cfg.StampDuty, &r.StampDuty},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := decimal.NewFromString(f.raw)
		if err != nil || d.IsNegative() {
			return Rates{}, fmt.Errorf("charge rate %s: must be a non-negative number", f.name)
		}
		*f.dst = d
	}
	return r, nil
}

// -----------------------------------------------------------------------------

// ToConfig renders rates back into their configuration form.
func (r Rates) ToConfig() models.MChargeRates {
	return models.MChargeRates{
		Brokerage: r.Brokerage.String(),
		STT:       r.STT.String(),
		GST:       r.GST.String(),
		SEBI:      r.SEBI.String(),
		StampDuty: r.StampDuty.String(),
	}
}

// -----------------------------------------------------------------------------

// Compute derives the charge breakdown for a total investment. It is pure and
// never fails; a negative total is treated as zero.
func Compute(totalInvestment decimal.Decimal, rates Rates) models.MChargeBreakdown {
	total := totalInvestment
	if total.IsNegative() {
		total = decimal.Zero
	}

	brokerage := total.Mul(rates.Brokerage)
	b := models.MChargeBreakdown{
		Brokerage:   brokerage,
		STT:         total.Mul(rates.STT),
		GST:         brokerage.Mul(rates.GST),
		SEBICharges: total.Mul(rates.SEBI),
		StampDuty:   total.Mul(rates.StampDuty),
	}
	b.TotalCharges = decimal.Sum(b.Brokerage, b.STT, b.GST, b.SEBICharges, b.StampDuty)
	b.GrandTotal = total.Add(b.TotalCharges)
	return b
}
