package charges

import (
	"testing"

	"ipo-wizard/src/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeRoundFigures(t *testing.T) {
	b := Compute(decimal.NewFromInt(100000), DefaultRates)

	assert.Equal(t, "100", b.Brokerage.String())
	assert.Equal(t, "100", b.STT.String())
	assert.Equal(t, "18", b.GST.String())
	assert.Equal(t, "10", b.SEBICharges.String())
	assert.Equal(t, "15", b.StampDuty.String())
	assert.Equal(t, "243", b.TotalCharges.String())
	assert.Equal(t, "100243", b.GrandTotal.String())
}

func TestComputeZeroAndNegative(t *testing.T) {
	for _, total := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
		b := Compute(total, DefaultRates)
		assert.True(t, b.TotalCharges.IsZero())
		assert.True(t, b.GrandTotal.IsZero())
	}
}

func TestComputeFractionalNoRounding(t *testing.T) {
	b := Compute(decimal.RequireFromString("13500"), DefaultRates)

	assert.Equal(t, "13.5", b.Brokerage.String())
	assert.Equal(t, "2.43", b.GST.String())
	assert.Equal(t, "2.025", b.StampDuty.String())
	assert.Equal(t, "32.805", b.TotalCharges.String())
	assert.Equal(t, "13532.805", b.GrandTotal.String())
}

func TestRatesFromConfig(t *testing.T) {
	r, err := RatesFromConfig(models.MChargeRates{Brokerage: "0.002"})
	require.NoError(t, err)

	assert.Equal(t, "0.002", r.Brokerage.String())
	assert.True(t, r.STT.Equal(DefaultRates.STT))

	_, err = RatesFromConfig(models.MChargeRates{GST: "-0.1"})
	assert.Error(t, err)
	_, err = RatesFromConfig(models.MChargeRates{SEBI: "lots"})
	assert.Error(t, err)
}

func TestRatesRoundTripConfig(t *testing.T) {
	r, err := RatesFromConfig(DefaultRates.ToConfig())
	require.NoError(t, err)
	assert.True(t, r.StampDuty.Equal(DefaultRates.StampDuty))
	assert.True(t, r.GST.Equal(DefaultRates.GST))
}
