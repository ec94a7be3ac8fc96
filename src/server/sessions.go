package server

import (
	"net/http"

	"ipo-wizard/src/models"
	"ipo-wizard/src/wizard"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Session lifecycle
// -----------------------------------------------------------------------------

func (s *Server) createSession(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithBindError(c, err)
		return
	}

	ctrl, err := wizard.NewController(c.Request.Context(), s.Wizard, wizard.StartRequest{
		IssueID: req.IssueID,
		ActorID: req.ActorID,
		Role:    req.Role,
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	s.Sessions.Add(ctrl)
	s.Logger.Info("Session %s started for %s on issue %s", ctrl.ID(), req.ActorID, req.IssueID)

	s.reply(c, ctrl, http.StatusCreated, nil, nil)
}

// -----------------------------------------------------------------------------

func (s *Server) resumeSession(c *gin.Context) {
	var req resumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithBindError(c, err)
		return
	}

	ctrl, err := wizard.Resume(c.Request.Context(), s.Wizard, req.DraftID)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	s.Sessions.Add(ctrl)

	s.reply(c, ctrl, http.StatusCreated, nil, nil)
}

// -----------------------------------------------------------------------------

func (s *Server) getSession(c *gin.Context) {
	ctrl, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": ctrl.View()})
}

// -----------------------------------------------------------------------------

func (s *Server) deleteSession(c *gin.Context) {
	id := c.Param("id")
	if !s.Sessions.Remove(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session " + id + " not found"})
		return
	}
	s.publishClosed(id)
	c.Status(http.StatusNoContent)
}

// -----------------------------------------------------------------------------

func (s *Server) setRole(c *gin.Context) {
	ctrl, ok := s.lookup(c)
	if !ok {
		return
	}
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithBindError(c, err)
		return
	}
	s.reply(c, ctrl, http.StatusOK, ctrl.SetActorRole(req.Role), nil)
}

// -----------------------------------------------------------------------------
// Clients
// -----------------------------------------------------------------------------

func (s *Server) searchClients(c *gin.Context) {
	ctrl, ok := s.lookup(c)
	if !ok {
		return
	}
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithBindError(c, err)
		return
	}
	results, err := ctrl.Search(req.Term)
	s.reply(c, ctrl, http.StatusOK, err, gin.H{"results": results})
}

func (s *Server) selectAll(c *gin.Context) {
	ctrl, ok := s.lookup(c)
	if !ok {
		return
	}
	n, err := ctrl.SelectAll()
	s.reply(c, ctrl, http.StatusOK, err, gin.H{"selected": n})
}

func (s *Server) clearSelection(c *gin.Context) {
	ctrl, ok := s.lookup(c)
	if !ok {
		return
	}
	s.reply(c, ctrl, http.StatusOK, ctrl.ClearSelection(), nil)
}

func (s *Server) toggleClient(c *gin.Context) {
	ctrl, ok := s.lookup(c)
	if !ok {
		return
	}
	s.reply(c, ctrl, http.StatusOK, ctrl.Toggle(c.Param("clientId")), nil)
}

// -----------------------------------------------------------------------------
// Allocation
// -----------------------------------------------------------------------------

func (s *Server) bulkSetLots(c *gin.Context) {
	ctrl, ok := s.lookup(c)
	if !ok {
		return
	}
	var req lotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithBindError(c, err)
		return
	}
	n, err := ctrl.BulkSetLots(string(req.Lots))
	s.reply(c, ctrl, http.StatusOK, err, gin.H{"lots": n})
}

func (s *Server) setLots(c *gin.Context) {
	ctrl, ok := s.lookup(c)
	if !ok {
		return
	}
	var req lotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithBindError(c, err)
		return
	}
	s.reply(c, ctrl, http.StatusOK, ctrl.SetLots(c.Param("clientId"), string(req.Lots)), nil)
}

func (s *Server) setPrice(c *gin.Context) {
	ctrl, ok := s.lookup(c)
	if !ok {
		return
	}
	var req priceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithBindError(c, err)
		return
	}

	err := ctrl.SetPriceOption(req.Option)
	if err == nil && req.Option == models.PriceCustom {
		err = ctrl.SetCustomPrice(string(req.CustomPrice))
	}
	s.reply(c, ctrl, http.StatusOK, err, nil)
}

// -----------------------------------------------------------------------------
// Payment
// -----------------------------------------------------------------------------

func (s *Server) setPayment(c *gin.Context) {
	ctrl, ok := s.lookup(c)
	if !ok {
		return
	}
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithBindError(c, err)
		return
	}

	err := ctrl.SelectPaymentMethod(req.Method)
	if err == nil {
		switch req.Method {
		case models.PaymentUPI:
			if req.UPIID != "" {
				err = ctrl.SetUPIID(req.UPIID)
			}
		case models.PaymentASBA:
			if req.BankDetails != nil {
				err = ctrl.SetBankDetails(*req.BankDetails)
			}
		}
	}
	s.reply(c, ctrl, http.StatusOK, err, nil)
}

func (s *Server) bankForm(c *gin.Context) {
	ctrl, ok := s.lookup(c)
	if !ok {
		return
	}
	form, err := ctrl.BankForm()
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, form)
}

// -----------------------------------------------------------------------------
// Navigation and submission
// -----------------------------------------------------------------------------

func (s *Server) acceptTerms(c *gin.Context) {
	ctrl, ok := s.lookup(c)
	if !ok {
		return
	}
	var req termsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithBindError(c, err)
		return
	}
	s.reply(c, ctrl, http.StatusOK, ctrl.AcceptTerms(req.Accepted), nil)
}

func (s *Server) next(c *gin.Context) {
	ctrl, ok := s.lookup(c)
	if !ok {
		return
	}
	moved, err := ctrl.Next()
	s.reply(c, ctrl, http.StatusOK, err, gin.H{"moved": moved})
}

func (s *Server) previous(c *gin.Context) {
	ctrl, ok := s.lookup(c)
	if !ok {
		return
	}
	moved, err := ctrl.Previous()
	s.reply(c, ctrl, http.StatusOK, err, gin.H{"moved": moved})
}

func (s *Server) submit(c *gin.Context) {
	ctrl, ok := s.lookup(c)
	if !ok {
		return
	}
	res, err := ctrl.Submit(c.Request.Context())
	s.reply(c, ctrl, http.StatusOK, err, gin.H{"result": res})
}

func (s *Server) saveDraft(c *gin.Context) {
	ctrl, ok := s.lookup(c)
	if !ok {
		return
	}
	res, err := ctrl.SaveDraft(c.Request.Context())
	s.reply(c, ctrl, http.StatusOK, err, gin.H{"result": res})
}
