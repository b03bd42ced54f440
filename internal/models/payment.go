package models

import (
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentSuccess PaymentStatus = "SUCCESS"
	PaymentFailed  PaymentStatus = "FAILED"
	PaymentExpired PaymentStatus = "EXPIRED"
)

// Terminal reports whether polling should stop.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentSuccess, PaymentFailed, PaymentExpired:
		return true
	}
	return false
}

type UPIInitiateRequest struct {
	InvoiceID int64           `json:"invoiceId" validate:"required,gt=0"`
	Amount    decimal.Decimal `json:"amount"`
}

// UPIInitiation is what the gateway hands back for a new collect request.
type UPIInitiation struct {
	TransactionID string          `json:"transactionId"`
	UPIID         string          `json:"upiId"`
	PayeeName     string          `json:"payeeName"`
	Amount        decimal.Decimal `json:"amount"`
	Status        PaymentStatus   `json:"status"`
	Note          string          `json:"note,omitempty"`
}

type UPIStatus struct {
	TransactionID string        `json:"transactionId"`
	Status        PaymentStatus `json:"status"`
	Message       string        `json:"message,omitempty"`
}

// PaymentQR is rendered on the invoice payment page.
type PaymentQR struct {
	InvoiceID     int64           `json:"invoiceId"`
	TransactionID string          `json:"transactionId"`
	URI           string          `json:"uri"`
	PNG           []byte          `json:"-"`
	Amount        decimal.Decimal `json:"amount"`
	PayeeName     string          `json:"payeeName"`
	Status        PaymentStatus   `json:"status"`
}
