package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MSubmissionPayload is what the wizard hands to the submission sink.
// ApplicationID is stable for a session and doubles as the idempotency key.
type MSubmissionPayload struct {
	ApplicationID string               `json:"application_id"`
	ActorID       string               `json:"actor_id"`
	ActorRole     ActorRole            `json:"actor_role"`
	Issue         MIssueDescriptor     `json:"issue"`
	Selection     []MClient            `json:"selection"`
	Snapshot      MCalculationSnapshot `json:"snapshot"`
	Payment       MPaymentSelection    `json:"payment"`
	Charges       MChargeBreakdown     `json:"charges"`
	GrandTotal    decimal.Decimal      `json:"grand_total"`
	SubmittedAt   time.Time            `json:"submitted_at"`
}

type MSubmissionResult struct {
	Success     bool   `json:"success"`
	ReferenceID string `json:"reference_id,omitempty"`
	Error       string `json:"error,omitempty"`
}
