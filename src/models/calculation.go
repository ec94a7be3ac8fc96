package models

import "github.com/shopspring/decimal"

type PriceOption string

const (
	PriceCutOff PriceOption = "cutoff"
	PriceCustom PriceOption = "custom"
)

const (
	ReasonInsufficientFunds = "Insufficient funds"
	ReasonExceedsLotLimit   = "Exceeds lot limit"
)

// MEligibility is the verdict of the eligibility evaluator. Reason is empty when eligible.
type MEligibility struct {
	IsEligible bool   `json:"is_eligible"`
	Reason     string `json:"reason,omitempty"`
}

// MAllocation is the per-client lot allocation.
type MAllocation struct {
	ClientID string `json:"client_id" msgpack:"client_id"`
	Lots     int    `json:"lots" msgpack:"lots"`
}

// MClientCalculation is the derived per-client row of a snapshot.
type MClientCalculation struct {
	ClientID         string          `json:"client_id"`
	ClientName       string          `json:"client_name"`
	Lots             int             `json:"lots"`
	InvestmentAmount decimal.Decimal `json:"investment_amount"`
	AvailableFunds   decimal.Decimal `json:"available_funds"`
	RemainingFunds   decimal.Decimal `json:"remaining_funds"`
	Eligibility      MEligibility    `json:"eligibility"`
}

// MCalculationSnapshot is derived from selection, allocations and price option.
// It is never stored independently of those inputs.
type MCalculationSnapshot struct {
	PriceOption        PriceOption          `json:"price_option"`
	EffectivePrice     decimal.Decimal      `json:"effective_price"`
	ClientCalculations []MClientCalculation `json:"client_calculations"`
	TotalLots          int                  `json:"total_lots"`
	TotalInvestment    decimal.Decimal      `json:"total_investment"`
}

// MChargeBreakdown is a pure function of the total investment.
type MChargeBreakdown struct {
	Brokerage    decimal.Decimal `json:"brokerage"`
	STT          decimal.Decimal `json:"stt"`
	GST          decimal.Decimal `json:"gst"`
	SEBICharges  decimal.Decimal `json:"sebi_charges"`
	StampDuty    decimal.Decimal `json:"stamp_duty"`
	TotalCharges decimal.Decimal `json:"total_charges"`
	GrandTotal   decimal.Decimal `json:"grand_total"`
}
