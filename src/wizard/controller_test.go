package wizard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ipo-wizard/src/helpers"
	"ipo-wizard/src/interfaces"
	"ipo-wizard/src/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// Fakes
// -----------------------------------------------------------------------------

type fakeCatalog struct {
	issues map[string]models.MIssueDescriptor
}

func (f *fakeCatalog) FetchIssue(_ context.Context, id string) (models.MIssueDescriptor, error) {
	issue, ok := f.issues[id]
	if !ok {
		return models.MIssueDescriptor{}, helpers.ErrNotFound
	}
	return issue, nil
}

type fakeDirectory struct {
	clients []models.MClient
}

func (f *fakeDirectory) FetchRoster(context.Context, string) ([]models.MClient, error) {
	return f.clients, nil
}

type fakeSink struct {
	calls    int32
	err      error
	started  chan struct{}
	release  chan struct{}
	mu       sync.Mutex
	payloads []models.MSubmissionPayload
}

func (f *fakeSink) SubmitApplication(_ context.Context, p models.MSubmissionPayload) (models.MSubmissionResult, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	f.payloads = append(f.payloads, p)
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return models.MSubmissionResult{Success: false, Error: f.err.Error()}, f.err
	}
	return models.MSubmissionResult{Success: true, ReferenceID: "REF-" + p.ApplicationID[:8]}, nil
}

type fakeDrafts struct {
	drafts map[string]models.MWizardDraft
}

func (f *fakeDrafts) SaveDraft(_ context.Context, d models.MWizardDraft) (models.MDraftResult, error) {
	f.drafts[d.DraftID] = d
	return models.MDraftResult{Success: true, DraftID: d.DraftID}, nil
}

func (f *fakeDrafts) LoadDraft(_ context.Context, id string) (models.MWizardDraft, error) {
	d, ok := f.drafts[id]
	if !ok {
		return models.MWizardDraft{}, helpers.ErrNotFound
	}
	return d, nil
}

type fixedWindow struct{ open bool }

func (w fixedWindow) IsOpen(time.Time) bool { return w.open }
func (w fixedWindow) TimeRemaining(time.Time) string {
	if w.open {
		return "2d 5h remaining"
	}
	return "Closed"
}

// -----------------------------------------------------------------------------
// Fixtures
// -----------------------------------------------------------------------------

func techCorp() models.MIssueDescriptor {
	return models.MIssueDescriptor{
		ID:                    "ipo-001",
		CompanyName:           "TechCorp Industries Ltd",
		PriceRange:            models.MPriceRange{Min: decimal.NewFromInt(120), Max: decimal.NewFromInt(140)},
		LotSize:               100,
		CutOffPrice:           decimal.NewFromInt(135),
		MinInvestment:         decimal.NewFromInt(13500),
		MaxInvestment:         decimal.NewFromInt(200000),
		MaxLotsPerApplication: 13,
	}
}

func sampleClients() []models.MClient {
	mk := func(id, name, funds string, kyc models.KYCStatus) models.MClient {
		return models.MClient{ID: id, Name: name, AvailableFunds: decimal.RequireFromString(funds), KYCStatus: kyc}
	}
	return []models.MClient{
		mk("client-001", "Rajesh Kumar Sharma", "500000", models.KYCVerified),
		mk("client-002", "Priya Patel", "250000", models.KYCVerified),
		mk("client-003", "Amit Singh", "100000", models.KYCRejected),
		mk("client-004", "Sunita Agarwal", "50000", models.KYCPending),
		mk("client-005", "Vikram Mehta", "10000", models.KYCVerified),
	}
}

type harness struct {
	deps   Dependencies
	sink   *fakeSink
	drafts *fakeDrafts
}

func newHarness() *harness {
	sink := &fakeSink{}
	drafts := &fakeDrafts{drafts: map[string]models.MWizardDraft{}}
	return &harness{
		sink:   sink,
		drafts: drafts,
		deps: Dependencies{
			Catalog:   &fakeCatalog{issues: map[string]models.MIssueDescriptor{"ipo-001": techCorp()}},
			Directory: &fakeDirectory{clients: sampleClients()},
			Sink:      sink,
			Drafts:    drafts,
			Now:       func() time.Time { return time.Date(2025, 1, 16, 11, 0, 0, 0, time.UTC) },
		},
	}
}

func (h *harness) start(t *testing.T, actor string, role models.ActorRole) *Controller {
	t.Helper()
	c, err := NewController(context.Background(), h.deps, StartRequest{IssueID: "ipo-001", ActorID: actor, Role: role})
	require.NoError(t, err)
	return c
}

// toSummary walks an intermediary session with one client and net banking to the last step.
func toSummary(t *testing.T, c *Controller) {
	t.Helper()
	advance(t, c)
	require.NoError(t, c.Toggle("client-002"))
	advance(t, c)
	advance(t, c)
	require.NoError(t, c.SelectPaymentMethod(models.PaymentNetBanking))
	advance(t, c)
	require.Equal(t, StepSummary, c.CurrentStep())
}

func advance(t *testing.T, c *Controller) {
	t.Helper()
	ok, err := c.Next()
	require.NoError(t, err)
	require.True(t, ok)
}

// -----------------------------------------------------------------------------
// Steps
// -----------------------------------------------------------------------------

func TestStepSequenceByRole(t *testing.T) {
	h := newHarness()

	ind := h.start(t, "client-001", models.RoleIndividual).View()
	require.Len(t, ind.Steps, 4)
	for _, s := range ind.Steps {
		assert.NotEqual(t, string(StepClientSelection), s.Tag)
	}

	inter := h.start(t, "broker-01", models.RoleIntermediary).View()
	require.Len(t, inter.Steps, 5)
	assert.Equal(t, string(StepClientSelection), inter.Steps[1].Tag)
	assert.Equal(t, "Select Clients", inter.Steps[1].Title)
}

func TestUnknownRoleRejected(t *testing.T) {
	_, err := StepsFor("auditor")
	var verr *helpers.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestIndividualAutoSelectsOwnRecord(t *testing.T) {
	c := newHarness().start(t, "client-001", models.RoleIndividual)

	v := c.View()
	assert.Equal(t, []string{"client-001"}, v.Selection)
	require.NotNil(t, v.Snapshot)
	assert.Equal(t, "13500", v.Snapshot.TotalInvestment.String())
	assert.Equal(t, "13532.805", v.Charges.GrandTotal.String())
}

func TestIntermediaryStartsEmpty(t *testing.T) {
	v := newHarness().start(t, "broker-01", models.RoleIntermediary).View()

	assert.Empty(t, v.Selection)
	assert.True(t, v.NoClients)
	assert.Nil(t, v.Snapshot)
	assert.Equal(t, 0, v.CurrentStep)
	assert.True(t, v.CanAdvance)
}

func TestGatingWalkthrough(t *testing.T) {
	c := newHarness().start(t, "broker-01", models.RoleIntermediary)

	advance(t, c)
	ok, err := c.Next()
	assert.False(t, ok)
	var verr *helpers.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "selection", verr.Field)
	assert.Equal(t, StepClientSelection, c.CurrentStep())

	require.NoError(t, c.Toggle("client-002"))
	advance(t, c)
	advance(t, c)

	ok, err = c.Next()
	assert.False(t, ok)
	assert.Error(t, err)
	assert.Equal(t, StepPayment, c.CurrentStep())

	require.NoError(t, c.SelectPaymentMethod(models.PaymentASBA))
	require.NoError(t, c.SetBankDetails(models.MBankDetails{AccountNumber: "0012", IFSCCode: "HDFC0001234"}))
	ok, _ = c.Next()
	assert.False(t, ok)

	require.NoError(t, c.SetBankDetails(models.MBankDetails{AccountNumber: "0012", IFSCCode: "HDFC0001234", BankName: "HDFC Bank"}))
	advance(t, c)

	ok, err = c.Next()
	assert.False(t, ok)
	assert.NoError(t, err)
	assert.Equal(t, StepSummary, c.CurrentStep())
	assert.False(t, c.View().CanAdvance)
}

func TestAllocationGateAfterClearingSelection(t *testing.T) {
	c := newHarness().start(t, "broker-01", models.RoleIntermediary)
	advance(t, c)
	require.NoError(t, c.Toggle("client-002"))
	advance(t, c)

	require.NoError(t, c.ClearSelection())
	ok, err := c.Next()
	assert.False(t, ok)
	assert.Error(t, err)
	assert.True(t, c.View().NoClients)
}

func TestPreviousRefusedOnFirstStep(t *testing.T) {
	c := newHarness().start(t, "broker-01", models.RoleIntermediary)

	ok, err := c.Previous()
	assert.False(t, ok)
	assert.NoError(t, err)

	advance(t, c)
	ok, err = c.Previous()
	assert.True(t, ok)
	assert.NoError(t, err)
	assert.Equal(t, StepIssueDetails, c.CurrentStep())
}

// -----------------------------------------------------------------------------
// Selection and allocation
// -----------------------------------------------------------------------------

func TestToggleNonVerifiedIsRejected(t *testing.T) {
	c := newHarness().start(t, "broker-01", models.RoleIntermediary)

	assert.Error(t, c.Toggle("client-004"))
	assert.Error(t, c.Toggle("client-003"))
	assert.Empty(t, c.View().Selection)
	assert.NotEmpty(t, c.View().LastError)
}

func TestSelectAllAndIneligibleClientsStaySelected(t *testing.T) {
	c := newHarness().start(t, "broker-01", models.RoleIntermediary)

	n, err := c.SelectAll()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	v := c.View()
	require.NotNil(t, v.Snapshot)
	last := v.Snapshot.ClientCalculations[2]
	assert.Equal(t, "client-005", last.ClientID)
	assert.False(t, last.Eligibility.IsEligible)
	assert.Equal(t, models.ReasonInsufficientFunds, last.Eligibility.Reason)
	assert.Equal(t, "-3500", last.RemainingFunds.String())
	assert.Len(t, v.Selection, 3)
}

func TestBulkSetLotsClamps(t *testing.T) {
	c := newHarness().start(t, "broker-01", models.RoleIntermediary)

	_, err := c.BulkSetLots("2")
	assert.Error(t, err)

	_, err = c.SelectAll()
	require.NoError(t, err)
	n, err := c.BulkSetLots("50")
	require.NoError(t, err)
	assert.Equal(t, 13, n)
	assert.Equal(t, 39, c.View().Snapshot.TotalLots)

	require.NoError(t, c.SetLots("client-001", "-4"))
	assert.Equal(t, 27, c.View().Snapshot.TotalLots)
}

func TestCustomPriceFallsBackToCutOff(t *testing.T) {
	c := newHarness().start(t, "client-001", models.RoleIndividual)

	require.NoError(t, c.SetPriceOption(models.PriceCustom))
	assert.Equal(t, "135", c.View().Snapshot.EffectivePrice.String())

	assert.Error(t, c.SetCustomPrice("150"))
	v := c.View()
	assert.Equal(t, "135", v.Snapshot.EffectivePrice.String())
	assert.Equal(t, "150", v.CustomPriceInput)

	require.NoError(t, c.SetCustomPrice("125"))
	assert.Equal(t, "12500", c.View().Snapshot.TotalInvestment.String())
}

func TestSetActorRoleResets(t *testing.T) {
	c := newHarness().start(t, "client-001", models.RoleIntermediary)
	advance(t, c)
	require.NoError(t, c.Toggle("client-002"))
	require.NoError(t, c.AcceptTerms(true))

	require.NoError(t, c.SetActorRole(models.RoleIndividual))

	v := c.View()
	assert.Equal(t, 0, v.CurrentStep)
	assert.Len(t, v.Steps, 4)
	assert.False(t, v.TermsAccepted)
	assert.Equal(t, []string{"client-001"}, v.Selection)

	require.NoError(t, c.SetActorRole(models.RoleIntermediary))
	assert.Empty(t, c.View().Selection)
}

// -----------------------------------------------------------------------------
// Submission
// -----------------------------------------------------------------------------

func TestSubmitRequiresSummaryAndTerms(t *testing.T) {
	h := newHarness()
	c := h.start(t, "broker-01", models.RoleIntermediary)

	_, err := c.Submit(context.Background())
	assert.Error(t, err)

	toSummary(t, c)
	_, err = c.Submit(context.Background())
	var verr *helpers.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "terms", verr.Field)
	assert.Zero(t, atomic.LoadInt32(&h.sink.calls))

	require.NoError(t, c.AcceptTerms(true))
	res, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, models.StatusSubmitted, c.Status())
	assert.Equal(t, res.ReferenceID, c.View().ReferenceID)

	p := h.sink.payloads[0]
	assert.Equal(t, "broker-01", p.ActorID)
	assert.Len(t, p.Selection, 1)
	assert.Equal(t, "13500", p.Snapshot.TotalInvestment.String())
	assert.True(t, p.GrandTotal.Equal(p.Charges.GrandTotal))

	assert.ErrorIs(t, c.Toggle("client-001"), helpers.ErrSessionClosed)
	_, err = c.Submit(context.Background())
	assert.ErrorIs(t, err, helpers.ErrSessionClosed)
}

func TestAtMostOneSubmissionInFlight(t *testing.T) {
	h := newHarness()
	h.sink.started = make(chan struct{}, 1)
	h.sink.release = make(chan struct{})
	c := h.start(t, "broker-01", models.RoleIntermediary)
	toSummary(t, c)
	require.NoError(t, c.AcceptTerms(true))

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background())
		done <- err
	}()
	<-h.sink.started

	_, err := c.Submit(context.Background())
	assert.ErrorIs(t, err, helpers.ErrOperationInFlight)
	assert.ErrorIs(t, c.Toggle("client-001"), helpers.ErrOperationInFlight)
	_, err = c.SaveDraft(context.Background())
	assert.ErrorIs(t, err, helpers.ErrOperationInFlight)
	assert.Equal(t, models.StatusSubmitting, c.Status())

	close(h.sink.release)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), atomic.LoadInt32(&h.sink.calls))
}

func TestSubmitFailureKeepsStateForManualRetry(t *testing.T) {
	h := newHarness()
	h.sink.err = errors.New("exchange gateway unavailable")
	c := h.start(t, "broker-01", models.RoleIntermediary)
	toSummary(t, c)
	require.NoError(t, c.AcceptTerms(true))

	_, err := c.Submit(context.Background())
	var serr *helpers.SubmissionError
	require.ErrorAs(t, err, &serr)

	v := c.View()
	assert.Equal(t, models.StatusActive, v.Status)
	assert.Equal(t, StepSummary, c.CurrentStep())
	assert.Contains(t, v.LastError, "exchange gateway unavailable")
	assert.Equal(t, []string{"client-002"}, v.Selection)
	assert.Equal(t, int32(1), atomic.LoadInt32(&h.sink.calls))

	h.sink.err = nil
	_, err = c.Submit(context.Background())
	require.NoError(t, err)
	require.Len(t, h.sink.payloads, 2)
	assert.Equal(t, h.sink.payloads[0].ApplicationID, h.sink.payloads[1].ApplicationID)
}

func TestSubmitRefusedWhenWindowClosed(t *testing.T) {
	h := newHarness()
	h.deps.EnforceWindow = true
	h.deps.Window = func(models.MIssueDescriptor) interfaces.ISubscriptionWindow { return fixedWindow{open: false} }
	c := h.start(t, "broker-01", models.RoleIntermediary)
	toSummary(t, c)
	require.NoError(t, c.AcceptTerms(true))

	_, err := c.Submit(context.Background())
	assert.Error(t, err)
	assert.Zero(t, atomic.LoadInt32(&h.sink.calls))

	v := c.View()
	assert.False(t, v.Issue.IsOpen)
	assert.Equal(t, "Closed", v.Issue.TimeRemaining)
}

// -----------------------------------------------------------------------------
// Drafts
// -----------------------------------------------------------------------------

func TestSaveDraftAndResume(t *testing.T) {
	h := newHarness()
	c := h.start(t, "broker-01", models.RoleIntermediary)
	advance(t, c)
	require.NoError(t, c.Toggle("client-002"))
	require.NoError(t, c.Toggle("client-005"))
	advance(t, c)
	require.NoError(t, c.SetLots("client-002", "3"))
	require.NoError(t, c.SetPriceOption(models.PriceCustom))
	require.NoError(t, c.SetCustomPrice("130"))
	advance(t, c)
	require.NoError(t, c.SelectPaymentMethod(models.PaymentUPI))
	require.NoError(t, c.SetUPIID("priya@okaxis"))

	res, err := c.SaveDraft(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, models.StatusDraftSaved, c.Status())
	assert.ErrorIs(t, c.Toggle("client-001"), helpers.ErrSessionClosed)

	stored := h.drafts.drafts[res.DraftID]
	assert.Equal(t, 3, stored.CurrentStep)
	assert.Equal(t, models.RoleIntermediary, stored.ActorRole)
	assert.Equal(t, []string{"client-002", "client-005"}, stored.Selection)

	r, err := Resume(context.Background(), h.deps, res.DraftID)
	require.NoError(t, err)

	v := r.View()
	assert.NotEqual(t, c.ID(), r.ID())
	assert.Equal(t, StepPayment, r.CurrentStep())
	assert.Equal(t, res.DraftID, v.DraftID)
	assert.Equal(t, []string{"client-002", "client-005"}, v.Selection)
	assert.Equal(t, 3, v.Snapshot.ClientCalculations[0].Lots)
	assert.Equal(t, "130", v.Snapshot.EffectivePrice.String())
	assert.Equal(t, "priya@okaxis", v.Payment.UPIID)
	assert.True(t, v.PaymentComplete)
}

func TestResumeStopsAtFirstFailingGate(t *testing.T) {
	h := newHarness()
	h.drafts.drafts["d-1"] = models.MWizardDraft{
		DraftID:     "d-1",
		ActorID:     "broker-01",
		ActorRole:   models.RoleIntermediary,
		IssueID:     "ipo-001",
		CurrentStep: 4,
		Selection:   []string{"client-004"},
		Allocations: []models.MAllocation{{ClientID: "client-004", Lots: 40}},
	}

	r, err := Resume(context.Background(), h.deps, "d-1")
	require.NoError(t, err)

	assert.Equal(t, StepClientSelection, r.CurrentStep())
	assert.Empty(t, r.View().Selection)
	assert.Empty(t, r.View().LastError)
}

func TestResumeUnknownDraft(t *testing.T) {
	_, err := Resume(context.Background(), newHarness().deps, "missing")
	assert.ErrorIs(t, err, helpers.ErrNotFound)
}

// -----------------------------------------------------------------------------
// Start failures
// -----------------------------------------------------------------------------

func TestMalformedIssueIsFatal(t *testing.T) {
	h := newHarness()
	bad := techCorp()
	bad.CutOffPrice = decimal.NewFromInt(150)
	h.deps.Catalog = &fakeCatalog{issues: map[string]models.MIssueDescriptor{"ipo-001": bad}}

	_, err := NewController(context.Background(), h.deps, StartRequest{IssueID: "ipo-001", ActorID: "broker-01", Role: models.RoleIntermediary})
	var ferr *helpers.FatalError
	assert.ErrorAs(t, err, &ferr)
}

func TestUnknownIssue(t *testing.T) {
	_, err := NewController(context.Background(), newHarness().deps, StartRequest{IssueID: "ipo-404", ActorID: "broker-01", Role: models.RoleIntermediary})
	assert.ErrorIs(t, err, helpers.ErrNotFound)
}

func TestValidateIssue(t *testing.T) {
	assert.NoError(t, ValidateIssue(techCorp()))

	mutations := map[string]func(*models.MIssueDescriptor){
		"zero lot size":   func(i *models.MIssueDescriptor) { i.LotSize = 0 },
		"zero max lots":   func(i *models.MIssueDescriptor) { i.MaxLotsPerApplication = 0 },
		"inverted band":   func(i *models.MIssueDescriptor) { i.PriceRange.Min = decimal.NewFromInt(145) },
		"min over max":    func(i *models.MIssueDescriptor) { i.MinInvestment = decimal.NewFromInt(300000) },
		"cut-off too low": func(i *models.MIssueDescriptor) { i.CutOffPrice = decimal.NewFromInt(100) },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			issue := techCorp()
			mutate(&issue)
			assert.Error(t, ValidateIssue(issue))
		})
	}
}
