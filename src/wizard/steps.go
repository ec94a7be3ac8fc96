package wizard

import (
	"errors"

	"ipo-wizard/src/helpers"
	"ipo-wizard/src/models"
)

// -----------------------------------------------------------------------------
// Step table
// -----------------------------------------------------------------------------

type StepTag string

const (
	StepIssueDetails    StepTag = "issue_details"
	StepClientSelection StepTag = "client_selection"
	StepAllocation      StepTag = "allocation"
	StepPayment         StepTag = "payment"
	StepSummary         StepTag = "summary"
)

type stepDef struct {
	title       string
	description string
	// gate returns nil when the wizard may leave this step forward
	gate func(c *Controller) error
}

var stepTable = map[StepTag]stepDef{
	StepIssueDetails: {
		title:       "IPO Details",
		description: "Review IPO information and account details",
		gate:        func(*Controller) error { return nil },
	},
	StepClientSelection: {
		title:       "Select Clients",
		description: "Choose clients for IPO application",
		gate:        gateSelection,
	},
	StepAllocation: {
		title:       "Lot Calculation",
		description: "Set lot sizes and calculate investment",
		gate:        gateAllocation,
	},
	StepPayment: {
		title:       "Payment Method",
		description: "Choose payment option",
		gate:        func(c *Controller) error { return c.payment.Validate() },
	},
	StepSummary: {
		title:       "Review & Submit",
		description: "Final review and submission",
		gate:        gateTerms,
	},
}

// sequences selects the ordered steps once per role. Adding a role or a step
// is a table change.
var sequences = map[models.ActorRole][]StepTag{
	models.RoleIndividual:   {StepIssueDetails, StepAllocation, StepPayment, StepSummary},
	models.RoleIntermediary: {StepIssueDetails, StepClientSelection, StepAllocation, StepPayment, StepSummary},
}

// -----------------------------------------------------------------------------

// StepsFor returns the step sequence for role.
func StepsFor(role models.ActorRole) ([]StepTag, error) {
	seq, ok := sequences[role]
	if !ok {
		return nil, helpers.NewValidationError("role", "unknown actor role %q", role)
	}
	return append([]StepTag(nil), seq...), nil
}

// -----------------------------------------------------------------------------
// Gates
// -----------------------------------------------------------------------------

func gateSelection(c *Controller) error {
	if c.roster.Size() == 0 {
		return helpers.NewValidationError("selection", "select at least one client")
	}
	return nil
}

func gateAllocation(c *Controller) error {
	snap, err := c.engine.Snapshot()
	if errors.Is(err, helpers.ErrNoClientsSelected) {
		return helpers.NewValidationError("selection", "no clients selected")
	}
	if err != nil {
		return err
	}
	if !snap.TotalInvestment.IsPositive() {
		return helpers.NewValidationError("lots", "total investment must be greater than zero")
	}
	return nil
}

func gateTerms(c *Controller) error {
	if !c.termsAccepted {
		return helpers.NewValidationError("terms", "terms and conditions must be accepted")
	}
	return nil
}
