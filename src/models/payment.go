package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentNone       PaymentMethod = ""
	PaymentUPI        PaymentMethod = "upi"
	PaymentNetBanking PaymentMethod = "netbanking"
	PaymentASBA       PaymentMethod = "asba"
)

type MBankDetails struct {
	AccountNumber string `json:"account_number" msgpack:"account_number"`
	IFSCCode      string `json:"ifsc_code" msgpack:"ifsc_code"`
	BankName      string `json:"bank_name" msgpack:"bank_name"`
}

// MPaymentSelection never carries more than one method's fields.
type MPaymentSelection struct {
	Method      PaymentMethod `json:"method" msgpack:"method"`
	UPIID       string        `json:"upi_id,omitempty" msgpack:"upi_id,omitempty"`
	BankDetails *MBankDetails `json:"bank_details,omitempty" msgpack:"bank_details,omitempty"`
}

// MBankForm is the ASBA form handed to the applicant's bank.
type MBankForm struct {
	IssueID     string          `json:"issue_id"`
	CompanyName string          `json:"company_name"`
	Clients     []MClient       `json:"clients"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	BankDetails MBankDetails    `json:"bank_details"`
	GeneratedAt time.Time       `json:"generated_at"`
}
