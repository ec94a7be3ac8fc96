package models

import "time"

// -----------------------------------------------------------------------------
// Wizard view (what the UI renders for a session)
// -----------------------------------------------------------------------------

type SessionStatus string

const (
	StatusActive     SessionStatus = "active"
	StatusSubmitting SessionStatus = "submitting"
	StatusSaving     SessionStatus = "saving"
	StatusSubmitted  SessionStatus = "submitted"
	StatusDraftSaved SessionStatus = "draft_saved"
)

type MStepView struct {
	Index       int    `json:"index"`
	Tag         string `json:"tag"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type MRosterEntry struct {
	Client     MClient `json:"client"`
	Selectable bool    `json:"selectable"`
	Selected   bool    `json:"selected"`
}

type MIssueView struct {
	Issue         MIssueDescriptor `json:"issue"`
	TimeRemaining string           `json:"time_remaining"`
	IsOpen        bool             `json:"is_open"`
}

type MWizardView struct {
	SessionID        string                `json:"session_id"`
	ApplicationID    string                `json:"application_id"`
	ActorID          string                `json:"actor_id"`
	ActorRole        ActorRole             `json:"actor_role"`
	Status           SessionStatus         `json:"status"`
	Steps            []MStepView           `json:"steps"`
	CurrentStep      int                   `json:"current_step"`
	CanAdvance       bool                  `json:"can_advance"`
	Issue            MIssueView            `json:"issue"`
	SearchTerm       string                `json:"search_term"`
	Roster           []MRosterEntry        `json:"roster"`
	Selection        []string              `json:"selection"`
	NoClients        bool                  `json:"no_clients_selected"`
	Snapshot         *MCalculationSnapshot `json:"snapshot,omitempty"`
	Charges          *MChargeBreakdown     `json:"charges,omitempty"`
	CustomPriceInput string                `json:"custom_price_input,omitempty"`
	Payment          MPaymentSelection     `json:"payment"`
	PaymentComplete  bool                  `json:"payment_complete"`
	TermsAccepted    bool                  `json:"terms_accepted"`
	LastError        string                `json:"last_error,omitempty"`
	ReferenceID      string                `json:"reference_id,omitempty"`
	DraftID          string                `json:"draft_id,omitempty"`
}

// -----------------------------------------------------------------------------
// Push messages
// -----------------------------------------------------------------------------

type MSessionEvent struct {
	Type      string       `json:"type"` // "STATE" or "CLOSED"
	SessionID string       `json:"session_id"`
	State     *MWizardView `json:"state,omitempty"`
	Timestamp int64        `json:"timestamp"`
}

// MSubscribeCommand for client messages
type MSubscribeCommand struct {
	Command    string   `json:"command"` // "subscribe" or "unsubscribe"
	SessionIDs []string `json:"sessionIds"`
}

// MHealthStatus backs GET /api/health.
type MHealthStatus struct {
	Status         string    `json:"status"`
	Sessions       int       `json:"sessions"`
	Connections    int       `json:"connections"`
	StorageHealthy bool      `json:"storage_healthy"`
	CheckedAt      time.Time `json:"checked_at"`
}
