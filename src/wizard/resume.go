package wizard

import (
	"context"

	"ipo-wizard/src/helpers"
)

// -----------------------------------------------------------------------------

// Resume rebuilds a session from a stored draft. The issue and roster are
// fetched again, so clients that are no longer verified drop out and lot
// counts are re-clamped against the current issue. The stored step is reached
// by replaying Next, which stops early at the first gate that no longer holds.
func Resume(ctx context.Context, deps Dependencies, draftID string) (*Controller, error) {
	if deps.Drafts == nil {
		return nil, helpers.NewFatalError("draft store is not configured", nil)
	}
	draft, err := deps.Drafts.LoadDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}

	c, err := NewController(ctx, deps, StartRequest{IssueID: draft.IssueID, ActorID: draft.ActorID, Role: draft.ActorRole})
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.draftID = draft.DraftID

	c.roster.Clear()
	for _, id := range draft.Selection {
		if !c.roster.Select(id) {
			c.log.Warning("Draft %s: client %s is no longer selectable, dropped", draft.DraftID, id)
		}
	}
	c.syncSelection()

	for _, a := range draft.Allocations {
		if _, ok := c.engine.Lots(a.ClientID); ok {
			_ = c.engine.SetLotCount(a.ClientID, a.Lots)
		}
	}

	if draft.PriceOption != "" {
		if err := c.engine.SetPriceOption(draft.PriceOption); err != nil {
			c.log.Warning("Draft %s: %v", draft.DraftID, err)
		}
	}
	if err := c.engine.SetCustomPrice(draft.CustomPrice); err != nil {
		c.log.Warning("Draft %s: %v", draft.DraftID, err)
	}
	if err := c.payment.Restore(draft.Payment); err != nil {
		c.log.Warning("Draft %s: payment not restored: %v", draft.DraftID, err)
	}
	c.termsAccepted = draft.TermsAccepted

	for c.current < draft.CurrentStep {
		if ok, _ := c.next(); !ok {
			break
		}
	}
	c.lastError = ""

	c.log.Info("Session %s resumed from draft %s at step %d of %d", c.sessionID, draft.DraftID, c.current, draft.CurrentStep)
	return c, nil
}
