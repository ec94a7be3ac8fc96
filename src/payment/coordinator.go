package payment

import (
	"strings"
	"time"

	"ipo-wizard/src/helpers"
	"ipo-wizard/src/models"

	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------

// Coordinator holds the chosen payment method and the fields that method
// needs. Only the active method's fields are ever populated.
type Coordinator struct {
	method      models.PaymentMethod
	upiID       string
	bankDetails models.MBankDetails
}

func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// -----------------------------------------------------------------------------

// SelectMethod switches method and discards every other method's fields.
// Re-selecting the active method keeps its fields.
func (c *Coordinator) SelectMethod(method models.PaymentMethod) error {
	switch method {
	case models.PaymentUPI, models.PaymentNetBanking, models.PaymentASBA:
	default:
		return helpers.NewValidationError("method", "unsupported payment method %q", method)
	}
	if method == c.method {
		return nil
	}

	c.method = method
	c.upiID = ""
	c.bankDetails = models.MBankDetails{}
	return nil
}

// -----------------------------------------------------------------------------

func (c *Coordinator) SetUPIID(value string) error {
	if c.method != models.PaymentUPI {
		return helpers.NewValidationError("upi_id", "UPI ID can only be set when paying by UPI")
	}
	c.upiID = strings.TrimSpace(value)
	return nil
}

// -----------------------------------------------------------------------------

func (c *Coordinator) SetBankDetails(details models.MBankDetails) error {
	if c.method != models.PaymentASBA {
		return helpers.NewValidationError("bank_details", "bank details can only be set for ASBA")
	}
	c.bankDetails = models.MBankDetails{
		AccountNumber: strings.TrimSpace(details.AccountNumber),
		IFSCCode:      strings.ToUpper(strings.TrimSpace(details.IFSCCode)),
		BankName:      strings.TrimSpace(details.BankName),
	}
	return nil
}

// -----------------------------------------------------------------------------

func (c *Coordinator) Method() models.PaymentMethod {
	return c.method
}

// -----------------------------------------------------------------------------

func (c *Coordinator) IsComplete() bool {
	return c.Validate() == nil
}

// Validate explains why the payment is incomplete.
func (c *Coordinator) Validate() error {
	switch c.method {
	case models.PaymentUPI:
		if c.upiID == "" {
			return helpers.NewValidationError("upi_id", "UPI ID is required")
		}
	case models.PaymentNetBanking:
	case models.PaymentASBA:
		if c.bankDetails.AccountNumber == "" {
			return helpers.NewValidationError("account_number", "bank account number is required")
		}
		if c.bankDetails.IFSCCode == "" {
			return helpers.NewValidationError("ifsc_code", "IFSC code is required")
		}
		if c.bankDetails.BankName == "" {
			return helpers.NewValidationError("bank_name", "bank name is required")
		}
	default:
		return helpers.NewValidationError("method", "choose a payment method")
	}
	return nil
}

// -----------------------------------------------------------------------------

// Selection returns the serializable payment choice.
func (c *Coordinator) Selection() models.MPaymentSelection {
	sel := models.MPaymentSelection{Method: c.method}
	switch c.method {
	case models.PaymentUPI:
		sel.UPIID = c.upiID
	case models.PaymentASBA:
		bd := c.bankDetails
		sel.BankDetails = &bd
	}
	return sel
}

// -----------------------------------------------------------------------------

// Restore replays a stored selection through the regular setters.
func (c *Coordinator) Restore(sel models.MPaymentSelection) error {
	if sel.Method == models.PaymentNone {
		*c = Coordinator{}
		return nil
	}
	if err := c.SelectMethod(sel.Method); err != nil {
		return err
	}
	switch sel.Method {
	case models.PaymentUPI:
		return c.SetUPIID(sel.UPIID)
	case models.PaymentASBA:
		if sel.BankDetails != nil {
			return c.SetBankDetails(*sel.BankDetails)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

// BankForm builds the ASBA form for offline submission. Account number and
// IFSC code must be present.
func (c *Coordinator) BankForm(issue models.MIssueDescriptor, clients []models.MClient, total decimal.Decimal, now time.Time) (models.MBankForm, error) {
	if c.method != models.PaymentASBA {
		return models.MBankForm{}, helpers.NewValidationError("method", "bank form is only available for ASBA")
	}
	if c.bankDetails.AccountNumber == "" || c.bankDetails.IFSCCode == "" {
		return models.MBankForm{}, helpers.NewValidationError("bank_details", "account number and IFSC code are required for the bank form")
	}
	return models.MBankForm{
		IssueID:     issue.ID,
		CompanyName: issue.CompanyName,
		Clients:     append([]models.MClient(nil), clients...),
		TotalAmount: total,
		BankDetails: c.bankDetails,
		GeneratedAt: now.UTC(),
	}, nil
}
