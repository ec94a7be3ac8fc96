package models

import "github.com/shopspring/decimal"

type KYCStatus string

const (
	KYCVerified KYCStatus = "Verified"
	KYCPending  KYCStatus = "Pending"
	KYCRejected KYCStatus = "Rejected"
)

// MClient is a directory entry as supplied by the client directory.
// The wizard never mutates it.
type MClient struct {
	ID             string          `json:"id" yaml:"id"`
	Name           string          `json:"name" yaml:"name"`
	Email          string          `json:"email" yaml:"email"`
	Phone          string          `json:"phone" yaml:"phone"`
	PANNumber      string          `json:"pan_number" yaml:"pan_number"`
	DematAccount   string          `json:"demat_account" yaml:"demat_account"`
	AccountType    string          `json:"account_type" yaml:"account_type"` // CDSL / NSDL
	AvailableFunds decimal.Decimal `json:"available_funds" yaml:"available_funds"`
	KYCStatus      KYCStatus       `json:"kyc_status" yaml:"kyc_status"`
	RiskProfile    string          `json:"risk_profile" yaml:"risk_profile"`
}

func (c MClient) IsVerified() bool {
	return c.KYCStatus == KYCVerified
}
