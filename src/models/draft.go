package models

import "time"

type ActorRole string

const (
	RoleIndividual   ActorRole = "individual"
	RoleIntermediary ActorRole = "intermediary"
)

// MWizardDraft is the serialized shape of an in-progress application.
type MWizardDraft struct {
	DraftID       string            `json:"draft_id" msgpack:"draft_id"`
	ActorID       string            `json:"actor_id" msgpack:"actor_id"`
	ActorRole     ActorRole         `json:"actor_role" msgpack:"actor_role"`
	IssueID       string            `json:"issue_id" msgpack:"issue_id"`
	CurrentStep   int               `json:"current_step" msgpack:"current_step"`
	Selection     []string          `json:"selection" msgpack:"selection"`
	Allocations   []MAllocation     `json:"allocations" msgpack:"allocations"`
	PriceOption   PriceOption       `json:"price_option" msgpack:"price_option"`
	CustomPrice   string            `json:"custom_price,omitempty" msgpack:"custom_price,omitempty"`
	Payment       MPaymentSelection `json:"payment" msgpack:"payment"`
	TermsAccepted bool              `json:"terms_accepted" msgpack:"terms_accepted"`
	SavedAt       time.Time         `json:"saved_at" msgpack:"saved_at"`
}

type MDraftResult struct {
	Success bool   `json:"success"`
	DraftID string `json:"draft_id,omitempty"`
}
