package allocation

import (
	"strings"

	"ipo-wizard/src/helpers"
	"ipo-wizard/src/models"

	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------

// Engine owns the lot allocation of every selected client and the bid price
// option. The calculation snapshot is derived from that state on demand and
// cached until the next mutation invalidates it.
type Engine struct {
	issue   models.MIssueDescriptor
	clients []models.MClient // selection order
	lots    map[string]int

	priceOption      models.PriceOption
	customPriceInput string
	customPrice      decimal.Decimal
	customPriceValid bool

	cached *models.MCalculationSnapshot
}

// -----------------------------------------------------------------------------

func NewEngine(issue models.MIssueDescriptor) *Engine {
	return &Engine{
		issue:       issue,
		lots:        make(map[string]int),
		priceOption: models.PriceCutOff,
	}
}

// -----------------------------------------------------------------------------
// Selection tracking
// -----------------------------------------------------------------------------

// SyncSelection aligns allocations with the current selection: newcomers get
// one lot, clients that left lose their allocation, survivors keep theirs.
func (e *Engine) SyncSelection(selected []models.MClient) {
	next := make(map[string]int, len(selected))
	for _, c := range selected {
		if lots, ok := e.lots[c.ID]; ok {
			next[c.ID] = lots
		} else {
			next[c.ID] = 1
		}
	}

	e.clients = append([]models.MClient(nil), selected...)
	e.lots = next
	e.Invalidate()
}

// -----------------------------------------------------------------------------
// Lots
// -----------------------------------------------------------------------------

// SetLots stores the clamped lot count parsed from raw user input.
func (e *Engine) SetLots(clientID, raw string) error {
	return e.SetLotCount(clientID, ParseLots(raw, e.issue.MaxLotsPerApplication))
}

// -----------------------------------------------------------------------------

func (e *Engine) SetLotCount(clientID string, n int) error {
	if _, ok := e.lots[clientID]; !ok {
		return helpers.NewValidationError("lots", "client %s is not selected", clientID)
	}
	e.lots[clientID] = ClampLots(n, e.issue.MaxLotsPerApplication)
	e.Invalidate()
	return nil
}

// -----------------------------------------------------------------------------

// BulkSetLots applies one clamped lot count to every selected client and
// returns the value applied.
func (e *Engine) BulkSetLots(raw string) int {
	n := ParseLots(raw, e.issue.MaxLotsPerApplication)
	for id := range e.lots {
		e.lots[id] = n
	}
	e.Invalidate()
	return n
}

// -----------------------------------------------------------------------------

func (e *Engine) Lots(clientID string) (int, bool) {
	n, ok := e.lots[clientID]
	return n, ok
}

// -----------------------------------------------------------------------------

// Allocations lists allocations in selection order.
func (e *Engine) Allocations() []models.MAllocation {
	out := make([]models.MAllocation, 0, len(e.clients))
	for _, c := range e.clients {
		out = append(out, models.MAllocation{ClientID: c.ID, Lots: e.lots[c.ID]})
	}
	return out
}

// -----------------------------------------------------------------------------
// Price
// -----------------------------------------------------------------------------

func (e *Engine) SetPriceOption(option models.PriceOption) error {
	switch option {
	case models.PriceCutOff, models.PriceCustom:
	default:
		return helpers.NewValidationError("price_option", "unknown price option %q", option)
	}
	e.priceOption = option
	e.Invalidate()
	return nil
}

// -----------------------------------------------------------------------------

// SetCustomPrice records the raw bid price. Until it parses to a number inside
// the price band the effective price stays at the cut-off.
func (e *Engine) SetCustomPrice(raw string) error {
	e.customPriceInput = raw
	e.customPriceValid = false
	e.Invalidate()

	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	price, err := decimal.NewFromString(s)
	if err != nil {
		return helpers.NewValidationError("custom_price", "custom price must be a number")
	}
	if !e.issue.InPriceRange(price) {
		return helpers.NewValidationError("custom_price", "custom price must be between %s and %s",
			e.issue.PriceRange.Min.String(), e.issue.PriceRange.Max.String())
	}

	e.customPrice = price
	e.customPriceValid = true
	return nil
}

// -----------------------------------------------------------------------------

func (e *Engine) PriceOption() models.PriceOption {
	return e.priceOption
}

func (e *Engine) CustomPriceInput() string {
	return e.customPriceInput
}

// -----------------------------------------------------------------------------

func (e *Engine) EffectivePrice() decimal.Decimal {
	if e.priceOption == models.PriceCustom && e.customPriceValid {
		return e.customPrice
	}
	return e.issue.CutOffPrice
}

// -----------------------------------------------------------------------------
// Snapshot
// -----------------------------------------------------------------------------

// Invalidate drops the cached snapshot; every mutator calls it.
func (e *Engine) Invalidate() {
	e.cached = nil
}

// -----------------------------------------------------------------------------

// Snapshot returns the calculation for the current state, recomputing it if
// anything changed since the last call. An empty selection is reported as
// helpers.ErrNoClientsSelected instead of a zero snapshot.
func (e *Engine) Snapshot() (models.MCalculationSnapshot, error) {
	if len(e.clients) == 0 {
		return models.MCalculationSnapshot{}, helpers.ErrNoClientsSelected
	}
	if e.cached == nil {
		s := ComputeSnapshot(e.issue, e.clients, e.lots, e.priceOption, e.EffectivePrice())
		e.cached = &s
	}

	out := *e.cached
	out.ClientCalculations = append([]models.MClientCalculation(nil), e.cached.ClientCalculations...)
	return out, nil
}

// -----------------------------------------------------------------------------

// ComputeSnapshot is the pure calculation behind Engine.Snapshot.
func ComputeSnapshot(
	issue models.MIssueDescriptor,
	clients []models.MClient,
	lots map[string]int,
	option models.PriceOption,
	price decimal.Decimal,
) models.MCalculationSnapshot {
	snap := models.MCalculationSnapshot{
		PriceOption:        option,
		EffectivePrice:     price,
		ClientCalculations: make([]models.MClientCalculation, 0, len(clients)),
		TotalInvestment:    decimal.Zero,
	}

	for _, c := range clients {
		n := lots[c.ID]
		amount := InvestmentAmount(n, issue.LotSize, price)

		snap.ClientCalculations = append(snap.ClientCalculations, models.MClientCalculation{
			ClientID:         c.ID,
			ClientName:       c.Name,
			Lots:             n,
			InvestmentAmount: amount,
			AvailableFunds:   c.AvailableFunds,
			RemainingFunds:   c.AvailableFunds.Sub(amount),
			Eligibility:      Evaluate(c, n, price, issue),
		})
		snap.TotalLots += n
		snap.TotalInvestment = snap.TotalInvestment.Add(amount)
	}

	return snap
}
