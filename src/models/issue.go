package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MPriceRange is the price band of an issue, in currency units.
type MPriceRange struct {
	Min decimal.Decimal `json:"min" yaml:"min"`
	Max decimal.Decimal `json:"max" yaml:"max"`
}

// MIssueDescriptor describes one IPO offer. It is created once per wizard
// session and never mutated.
type MIssueDescriptor struct {
	ID                    string          `json:"id" yaml:"id"`
	CompanyName           string          `json:"company_name" yaml:"company_name"`
	Sector                string          `json:"sector" yaml:"sector"`
	Exchange              string          `json:"exchange" yaml:"exchange"`
	PriceRange            MPriceRange     `json:"price_range" yaml:"price_range"`
	LotSize               int             `json:"lot_size" yaml:"lot_size"`
	CutOffPrice           decimal.Decimal `json:"cut_off_price" yaml:"cut_off_price"`
	MinInvestment         decimal.Decimal `json:"min_investment" yaml:"min_investment"`
	MaxInvestment         decimal.Decimal `json:"max_investment" yaml:"max_investment"`
	MaxLotsPerApplication int             `json:"max_lots_per_application" yaml:"max_lots_per_application"`
	SubscriptionStart     time.Time       `json:"subscription_start" yaml:"subscription_start"`
	SubscriptionEnd       time.Time       `json:"subscription_end" yaml:"subscription_end"`
	ListingDate           time.Time       `json:"listing_date" yaml:"listing_date"`
}

// InPriceRange reports whether price lies within the issue's price band (inclusive).
func (i MIssueDescriptor) InPriceRange(price decimal.Decimal) bool {
	return !price.LessThan(i.PriceRange.Min) && !price.GreaterThan(i.PriceRange.Max)
}
