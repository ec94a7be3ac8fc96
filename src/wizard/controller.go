package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ipo-wizard/src/allocation"
	"ipo-wizard/src/charges"
	"ipo-wizard/src/helpers"
	"ipo-wizard/src/interfaces"
	"ipo-wizard/src/logger"
	"ipo-wizard/src/models"
	"ipo-wizard/src/payment"
	"ipo-wizard/src/roster"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------

// Dependencies are the external collaborators of one wizard session.
type Dependencies struct {
	Catalog   interfaces.IIssueCatalog
	Directory interfaces.IClientDirectory
	Sink      interfaces.ISubmissionSink
	Drafts    interfaces.IDraftStore

	// Rates defaults to charges.DefaultRates.
	Rates *charges.Rates

	// Window builds the subscription window of an issue. Optional.
	Window func(issue models.MIssueDescriptor) interfaces.ISubscriptionWindow
	// EnforceWindow refuses submission outside the subscription window.
	EnforceWindow bool

	Logger *logger.Logger
	Now    func() time.Time
}

type StartRequest struct {
	IssueID string
	ActorID string
	Role    models.ActorRole
}

// -----------------------------------------------------------------------------

// Controller is the wizard state machine for one application. Every method is
// safe for concurrent use; Submit and SaveDraft release the lock while the
// external call runs and reject all other mutations until it returns.
type Controller struct {
	mu sync.Mutex

	deps  Dependencies
	log   *logger.Logger
	rates charges.Rates

	sessionID     string
	applicationID string
	actorID       string
	role          models.ActorRole
	issue         models.MIssueDescriptor
	window        interfaces.ISubscriptionWindow

	steps   []StepTag
	current int

	roster        *roster.Filter
	engine        *allocation.Engine
	payment       *payment.Coordinator
	termsAccepted bool

	status      models.SessionStatus
	lastError   string
	referenceID string
	draftID     string
}

// -----------------------------------------------------------------------------

// NewController fetches the issue and roster and starts a session on step 0.
// A malformed issue or an unavailable roster is a FatalError.
func NewController(ctx context.Context, deps Dependencies, req StartRequest) (*Controller, error) {
	if deps.Catalog == nil || deps.Directory == nil || deps.Sink == nil || deps.Drafts == nil {
		return nil, helpers.NewFatalError("wizard collaborators are not configured", nil)
	}
	if req.ActorID == "" {
		return nil, helpers.NewValidationError("actor_id", "actor id is required")
	}
	steps, err := StepsFor(req.Role)
	if err != nil {
		return nil, err
	}

	issue, err := deps.Catalog.FetchIssue(ctx, req.IssueID)
	if errors.Is(err, helpers.ErrNotFound) {
		return nil, fmt.Errorf("issue %s: %w", req.IssueID, helpers.ErrNotFound)
	}
	if err != nil {
		return nil, helpers.NewFatalError("failed to fetch issue "+req.IssueID, err)
	}
	if err := ValidateIssue(issue); err != nil {
		return nil, helpers.NewFatalError("malformed issue descriptor "+req.IssueID, err)
	}

	clients, err := deps.Directory.FetchRoster(ctx, req.ActorID)
	if err != nil {
		return nil, helpers.NewFatalError("failed to fetch roster for "+req.ActorID, err)
	}

	if deps.Logger == nil {
		deps.Logger = logger.NewNopLogger("Wizard")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	rates := charges.DefaultRates
	if deps.Rates != nil {
		rates = *deps.Rates
	}

	c := &Controller{
		deps:          deps,
		log:           deps.Logger,
		rates:         rates,
		sessionID:     uuid.NewString(),
		applicationID: uuid.NewString(),
		actorID:       req.ActorID,
		role:          req.Role,
		issue:         issue,
		steps:         steps,
		roster:        roster.NewFilter(clients),
		engine:        allocation.NewEngine(issue),
		payment:       payment.NewCoordinator(),
		status:        models.StatusActive,
	}
	if deps.Window != nil {
		c.window = deps.Window(issue)
	}
	c.autoSelectActor()

	c.log.Info("Session %s started: actor=%s role=%s issue=%s roster=%d", c.sessionID, c.actorID, c.role, issue.ID, len(clients))
	return c, nil
}

// -----------------------------------------------------------------------------

// ValidateIssue checks the invariants of an externally supplied descriptor.
func ValidateIssue(issue models.MIssueDescriptor) error {
	switch {
	case issue.ID == "":
		return errors.New("issue id is empty")
	case issue.LotSize <= 0:
		return fmt.Errorf("lot size must be positive, got %d", issue.LotSize)
	case issue.MaxLotsPerApplication <= 0:
		return fmt.Errorf("max lots per application must be positive, got %d", issue.MaxLotsPerApplication)
	case !issue.PriceRange.Min.IsPositive():
		return errors.New("price range minimum must be positive")
	case issue.PriceRange.Min.GreaterThan(issue.PriceRange.Max):
		return fmt.Errorf("price range %s-%s is inverted", issue.PriceRange.Min, issue.PriceRange.Max)
	case !issue.InPriceRange(issue.CutOffPrice):
		return fmt.Errorf("cut-off price %s outside price range", issue.CutOffPrice)
	case issue.MinInvestment.IsNegative():
		return errors.New("minimum investment is negative")
	case issue.MaxInvestment.IsPositive() && issue.MinInvestment.GreaterThan(issue.MaxInvestment):
		return errors.New("minimum investment exceeds maximum investment")
	}
	return nil
}

// -----------------------------------------------------------------------------

func (c *Controller) ID() string {
	return c.sessionID
}

func (c *Controller) Status() models.SessionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// -----------------------------------------------------------------------------
// Client selection
// -----------------------------------------------------------------------------

func (c *Controller) Search(term string) ([]models.MRosterEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editable(); err != nil {
		return nil, err
	}
	c.roster.Search(term)
	return c.roster.Roster(), nil
}

// -----------------------------------------------------------------------------

// Toggle adds or removes a client. Unknown and non-verified clients are
// rejected and leave the selection unchanged.
func (c *Controller) Toggle(clientID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editable(); err != nil {
		return err
	}
	if !c.roster.Toggle(clientID) {
		return c.fail(helpers.NewValidationError("client_id", "client %s is not a verified roster member", clientID))
	}
	c.syncSelection()
	return nil
}

// -----------------------------------------------------------------------------

// SelectAll selects every verified client in the current search result.
func (c *Controller) SelectAll() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editable(); err != nil {
		return 0, err
	}
	n := c.roster.SelectAll()
	c.syncSelection()
	return n, nil
}

// -----------------------------------------------------------------------------

func (c *Controller) ClearSelection() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editable(); err != nil {
		return err
	}
	c.roster.Clear()
	c.syncSelection()
	return nil
}

// -----------------------------------------------------------------------------
// Allocation
// -----------------------------------------------------------------------------

func (c *Controller) SetLots(clientID, raw string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editable(); err != nil {
		return err
	}
	return c.fail(c.engine.SetLots(clientID, raw))
}

// -----------------------------------------------------------------------------

// BulkSetLots applies one lot count to every selected client and returns it.
func (c *Controller) BulkSetLots(raw string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editable(); err != nil {
		return 0, err
	}
	if c.roster.Size() == 0 {
		return 0, c.fail(helpers.NewValidationError("selection", "no clients selected"))
	}
	return c.engine.BulkSetLots(raw), nil
}

// -----------------------------------------------------------------------------

func (c *Controller) SetPriceOption(option models.PriceOption) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editable(); err != nil {
		return err
	}
	return c.fail(c.engine.SetPriceOption(option))
}

// -----------------------------------------------------------------------------

// SetCustomPrice keeps the raw input even when it is rejected; the effective
// price stays at the cut-off until a valid value arrives.
func (c *Controller) SetCustomPrice(raw string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editable(); err != nil {
		return err
	}
	return c.fail(c.engine.SetCustomPrice(raw))
}

// -----------------------------------------------------------------------------
// Payment
// -----------------------------------------------------------------------------

func (c *Controller) SelectPaymentMethod(method models.PaymentMethod) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editable(); err != nil {
		return err
	}
	return c.fail(c.payment.SelectMethod(method))
}

func (c *Controller) SetUPIID(value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editable(); err != nil {
		return err
	}
	return c.fail(c.payment.SetUPIID(value))
}

func (c *Controller) SetBankDetails(details models.MBankDetails) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editable(); err != nil {
		return err
	}
	return c.fail(c.payment.SetBankDetails(details))
}

// -----------------------------------------------------------------------------

// BankForm renders the ASBA form for the current selection and total.
func (c *Controller) BankForm() (models.MBankForm, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap, err := c.engine.Snapshot()
	if err != nil {
		return models.MBankForm{}, helpers.NewValidationError("selection", "no clients selected")
	}
	return c.payment.BankForm(c.issue, c.roster.SelectedClients(), snap.TotalInvestment, c.deps.Now())
}

// -----------------------------------------------------------------------------
// Terms and role
// -----------------------------------------------------------------------------

// AcceptTerms records the actor's acknowledgment required before submission.
func (c *Controller) AcceptTerms(accepted bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editable(); err != nil {
		return err
	}
	c.termsAccepted = accepted
	return nil
}

// -----------------------------------------------------------------------------

// SetActorRole switches the step sequence. Selection, allocations and the
// terms acknowledgment are reset and the wizard returns to step 0.
func (c *Controller) SetActorRole(role models.ActorRole) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editable(); err != nil {
		return err
	}
	steps, err := StepsFor(role)
	if err != nil {
		return c.fail(err)
	}

	c.role = role
	c.steps = steps
	c.current = 0
	c.termsAccepted = false
	c.roster.Clear()
	c.autoSelectActor()
	c.syncSelection()

	c.log.Debug("Session %s switched to role %s", c.sessionID, role)
	return nil
}

// -----------------------------------------------------------------------------
// Navigation
// -----------------------------------------------------------------------------

// Next advances one step when the current step's gate holds. It never moves
// past the last step.
func (c *Controller) Next() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editable(); err != nil {
		return false, err
	}
	return c.next()
}

func (c *Controller) next() (bool, error) {
	if c.current >= len(c.steps)-1 {
		return false, nil
	}
	if err := stepTable[c.steps[c.current]].gate(c); err != nil {
		return false, c.fail(err)
	}
	c.current++
	c.lastError = ""
	return true, nil
}

// -----------------------------------------------------------------------------

func (c *Controller) Previous() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editable(); err != nil {
		return false, err
	}
	if c.current == 0 {
		return false, nil
	}
	c.current--
	return true, nil
}

// -----------------------------------------------------------------------------

func (c *Controller) CurrentStep() StepTag {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.steps[c.current]
}

// -----------------------------------------------------------------------------
// Submission
// -----------------------------------------------------------------------------

// Submit hands the application to the submission sink. It is only possible
// from the summary step with terms accepted. A failed submission leaves the
// wizard on the summary step with the error attached and is never retried.
func (c *Controller) Submit(ctx context.Context) (models.MSubmissionResult, error) {
	c.mu.Lock()
	if err := c.editable(); err != nil {
		c.mu.Unlock()
		return models.MSubmissionResult{}, err
	}
	payload, err := c.buildPayload()
	if err != nil {
		c.fail(err)
		c.mu.Unlock()
		return models.MSubmissionResult{}, err
	}
	c.status = models.StatusSubmitting
	c.mu.Unlock()

	c.log.Info("Session %s submitting application %s (%d clients, total %s)",
		c.sessionID, payload.ApplicationID, len(payload.Selection), payload.GrandTotal.String())
	res, err := c.deps.Sink.SubmitApplication(ctx, payload)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil && !res.Success {
		err = errors.New(res.Error)
	}
	if err != nil {
		c.status = models.StatusActive
		serr := helpers.NewSubmissionError("application submission failed", err)
		c.lastError = serr.Error()
		c.log.Warning("Session %s submission failed: %v", c.sessionID, err)
		return res, serr
	}

	c.status = models.StatusSubmitted
	c.referenceID = res.ReferenceID
	c.lastError = ""
	c.log.Info("Session %s submitted, reference %s", c.sessionID, res.ReferenceID)
	return res, nil
}

// buildPayload runs every submission check. Caller holds the lock.
func (c *Controller) buildPayload() (models.MSubmissionPayload, error) {
	if c.steps[c.current] != StepSummary {
		return models.MSubmissionPayload{}, helpers.NewValidationError("step", "applications can only be submitted from the summary step")
	}
	if err := gateTerms(c); err != nil {
		return models.MSubmissionPayload{}, err
	}
	if err := gateAllocation(c); err != nil {
		return models.MSubmissionPayload{}, err
	}
	if err := c.payment.Validate(); err != nil {
		return models.MSubmissionPayload{}, err
	}

	now := c.deps.Now()
	if c.deps.EnforceWindow && c.window != nil && !c.window.IsOpen(now) {
		return models.MSubmissionPayload{}, helpers.NewValidationError("issue", "subscription window for %s is closed", c.issue.CompanyName)
	}

	snap, err := c.engine.Snapshot()
	if err != nil {
		return models.MSubmissionPayload{}, err
	}
	breakdown := charges.Compute(snap.TotalInvestment, c.rates)

	return models.MSubmissionPayload{
		ApplicationID: c.applicationID,
		ActorID:       c.actorID,
		ActorRole:     c.role,
		Issue:         c.issue,
		Selection:     c.roster.SelectedClients(),
		Snapshot:      snap,
		Payment:       c.payment.Selection(),
		Charges:       breakdown,
		GrandTotal:    breakdown.GrandTotal,
		SubmittedAt:   now.UTC(),
	}, nil
}

// -----------------------------------------------------------------------------
// Drafts
// -----------------------------------------------------------------------------

// SaveDraft serializes the session to the draft store. Success ends the session.
func (c *Controller) SaveDraft(ctx context.Context) (models.MDraftResult, error) {
	c.mu.Lock()
	if err := c.editable(); err != nil {
		c.mu.Unlock()
		return models.MDraftResult{}, err
	}
	draft := c.buildDraft()
	c.status = models.StatusSaving
	c.mu.Unlock()

	res, err := c.deps.Drafts.SaveDraft(ctx, draft)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil && !res.Success {
		err = errors.New("draft store refused the draft")
	}
	if err != nil {
		c.status = models.StatusActive
		serr := helpers.NewSubmissionError("saving draft failed", err)
		c.lastError = serr.Error()
		c.log.Warning("Session %s draft save failed: %v", c.sessionID, err)
		return res, serr
	}

	if res.DraftID == "" {
		res.DraftID = draft.DraftID
	}
	c.status = models.StatusDraftSaved
	c.draftID = res.DraftID
	c.lastError = ""
	c.log.Info("Session %s saved as draft %s at step %d", c.sessionID, res.DraftID, draft.CurrentStep)
	return res, nil
}

func (c *Controller) buildDraft() models.MWizardDraft {
	id := c.draftID
	if id == "" {
		id = uuid.NewString()
	}
	return models.MWizardDraft{
		DraftID:       id,
		ActorID:       c.actorID,
		ActorRole:     c.role,
		IssueID:       c.issue.ID,
		CurrentStep:   c.current,
		Selection:     c.roster.Selection(),
		Allocations:   c.engine.Allocations(),
		PriceOption:   c.engine.PriceOption(),
		CustomPrice:   c.engine.CustomPriceInput(),
		Payment:       c.payment.Selection(),
		TermsAccepted: c.termsAccepted,
		SavedAt:       c.deps.Now().UTC(),
	}
}

// -----------------------------------------------------------------------------
// View
// -----------------------------------------------------------------------------

// View renders the whole session state for the UI.
func (c *Controller) View() models.MWizardView {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.deps.Now()
	v := models.MWizardView{
		SessionID:        c.sessionID,
		ApplicationID:    c.applicationID,
		ActorID:          c.actorID,
		ActorRole:        c.role,
		Status:           c.status,
		CurrentStep:      c.current,
		Issue:            models.MIssueView{Issue: c.issue, IsOpen: true},
		SearchTerm:       c.roster.Term(),
		Roster:           c.roster.Roster(),
		Selection:        c.roster.Selection(),
		CustomPriceInput: c.engine.CustomPriceInput(),
		Payment:          c.payment.Selection(),
		PaymentComplete:  c.payment.IsComplete(),
		TermsAccepted:    c.termsAccepted,
		LastError:        c.lastError,
		ReferenceID:      c.referenceID,
		DraftID:          c.draftID,
	}
	if c.window != nil {
		v.Issue.IsOpen = c.window.IsOpen(now)
		v.Issue.TimeRemaining = c.window.TimeRemaining(now)
	}

	for i, tag := range c.steps {
		def := stepTable[tag]
		v.Steps = append(v.Steps, models.MStepView{Index: i, Tag: string(tag), Title: def.title, Description: def.description})
	}
	v.CanAdvance = c.current < len(c.steps)-1 && stepTable[c.steps[c.current]].gate(c) == nil

	snap, err := c.engine.Snapshot()
	if err != nil {
		v.NoClients = true
		return v
	}
	breakdown := charges.Compute(snap.TotalInvestment, c.rates)
	v.Snapshot = &snap
	v.Charges = &breakdown
	return v
}

// -----------------------------------------------------------------------------
// Internals (caller holds the lock)
// -----------------------------------------------------------------------------

func (c *Controller) editable() error {
	switch c.status {
	case models.StatusActive:
		return nil
	case models.StatusSubmitting, models.StatusSaving:
		return helpers.ErrOperationInFlight
	default:
		return helpers.ErrSessionClosed
	}
}

// fail records err as the last user-visible error and returns it.
func (c *Controller) fail(err error) error {
	if err != nil {
		c.lastError = err.Error()
	}
	return err
}

func (c *Controller) syncSelection() {
	c.engine.SyncSelection(c.roster.SelectedClients())
}

// autoSelectActor selects an individual actor's own roster entry, if verified.
func (c *Controller) autoSelectActor() {
	if c.role != models.RoleIndividual {
		return
	}
	if c.roster.Select(c.actorID) {
		c.syncSelection()
	}
}
