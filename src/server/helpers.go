package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"ipo-wizard/src/helpers"
	"ipo-wizard/src/models"
	"ipo-wizard/src/wizard"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Request bodies
// -----------------------------------------------------------------------------

type startRequest struct {
	IssueID string           `json:"issue_id" binding:"required"`
	ActorID string           `json:"actor_id" binding:"required"`
	Role    models.ActorRole `json:"role" binding:"required"`
}

type resumeRequest struct {
	DraftID string `json:"draft_id" binding:"required"`
}

type roleRequest struct {
	Role models.ActorRole `json:"role" binding:"required"`
}

type searchRequest struct {
	Term string `json:"term"`
}

type lotsRequest struct {
	Lots rawInput `json:"lots"`
}

type priceRequest struct {
	Option      models.PriceOption `json:"option" binding:"required"`
	CustomPrice rawInput           `json:"custom_price"`
}

type paymentRequest struct {
	Method      models.PaymentMethod `json:"method" binding:"required"`
	UPIID       string               `json:"upi_id"`
	BankDetails *models.MBankDetails `json:"bank_details"`
}

type termsRequest struct {
	Accepted bool `json:"accepted"`
}

// -----------------------------------------------------------------------------

// rawInput carries form text to the wizard unparsed. JSON numbers and strings
// are both accepted so "5", 5 and "5abc" reach the lot parser as typed.
type rawInput string

func (r *rawInput) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = rawInput(s)
		return nil
	}
	if string(b) == "null" {
		*r = ""
		return nil
	}
	*r = rawInput(b)
	return nil
}

// -----------------------------------------------------------------------------
// Responses
// -----------------------------------------------------------------------------

// statusFor maps wizard errors onto HTTP status codes.
func statusFor(err error) int {
	var validation *helpers.ValidationError
	var submission *helpers.SubmissionError
	switch {
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity
	case errors.As(err, &submission):
		return http.StatusBadGateway
	case errors.Is(err, helpers.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, helpers.ErrOperationInFlight), errors.Is(err, helpers.ErrSessionClosed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error) gin.H {
	body := gin.H{"error": err.Error()}
	var validation *helpers.ValidationError
	if errors.As(err, &validation) && validation.Field != "" {
		body["field"] = validation.Field
	}
	return body
}

// -----------------------------------------------------------------------------

func (s *Server) abortWithError(c *gin.Context, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		s.Logger.Error("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(code, errorBody(err))
}

func (s *Server) abortWithBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// -----------------------------------------------------------------------------

// reply renders the session state, with extra top-level fields when given,
// and pushes the same state to websocket subscribers. Wizard errors are
// rendered alongside the state since the session stays usable.
func (s *Server) reply(c *gin.Context, ctrl *wizard.Controller, code int, err error, extra gin.H) {
	view := ctrl.View()
	s.publishState(view)

	body := gin.H{}
	for k, v := range extra {
		body[k] = v
	}
	if err != nil {
		code = statusFor(err)
		for k, v := range errorBody(err) {
			body[k] = v
		}
	}
	body["state"] = view
	c.JSON(code, body)
}

// -----------------------------------------------------------------------------

// lookup resolves the :id path parameter to a live session.
func (s *Server) lookup(c *gin.Context) (*wizard.Controller, bool) {
	ctrl, err := s.Sessions.Get(c.Param("id"))
	if err != nil {
		s.abortWithError(c, err)
		return nil, false
	}
	return ctrl, true
}

// -----------------------------------------------------------------------------

func stateEvent(view models.MWizardView) *models.MSessionEvent {
	return &models.MSessionEvent{
		Type:      "STATE",
		SessionID: view.SessionID,
		State:     &view,
		Timestamp: time.Now().Unix(),
	}
}

func closedEvent(sessionID string) *models.MSessionEvent {
	return &models.MSessionEvent{
		Type:      "CLOSED",
		SessionID: sessionID,
		Timestamp: time.Now().Unix(),
	}
}
