package allocation

import (
	"ipo-wizard/src/models"

	"github.com/shopspring/decimal"
)

// Evaluate decides whether client can bid for lots at price.
// The lot limit is checked before affordability.
func Evaluate(client models.MClient, lots int, price decimal.Decimal, issue models.MIssueDescriptor) models.MEligibility {
	if lots > issue.MaxLotsPerApplication {
		return models.MEligibility{IsEligible: false, Reason: models.ReasonExceedsLotLimit}
	}
	if InvestmentAmount(lots, issue.LotSize, price).GreaterThan(client.AvailableFunds) {
		return models.MEligibility{IsEligible: false, Reason: models.ReasonInsufficientFunds}
	}
	return models.MEligibility{IsEligible: true}
}

// InvestmentAmount is lots * lotSize * price with no intermediate rounding.
func InvestmentAmount(lots, lotSize int, price decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(int64(lots)).Mul(decimal.NewFromInt(int64(lotSize))).Mul(price)
}
