// Package payment holds the method-agnostic shapes exchanged between the
// processing layers: the Payment request value, the outcome types returned by
// validation, processing and refunds, and the error taxonomy shared by every
// payment method variant.
package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

// Method discriminates which strategy handles a payment.
type Method string

const (
	MethodCreditCard Method = "credit-card"
	MethodPayPal     Method = "paypal"
)

// Payment is a single payment request. It is treated as immutable once
// constructed; a retry builds a new Payment carrying the same ID so that the
// idempotency layer can recognize it as the same logical payment.
//
// Details is the method-specific payload. Its keys are owned by the strategy
// named in Method and must not be interpreted anywhere else.
type Payment struct {
	ID       string
	Amount   decimal.Decimal
	Currency string
	Method   Method
	Details  map[string]string
}

// Detail returns a method-specific field, or "" when absent.
func (p Payment) Detail(key string) string {
	if p.Details == nil {
		return ""
	}
	return p.Details[key]
}

// ValidationResult reports the outcome of a strategy's Validate call.
// Errors lists every violated rule, not just the first, so callers can
// report all problems at once. Errors is empty iff Valid is true.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// ValidOK returns a passing ValidationResult.
func ValidOK() ValidationResult {
	return ValidationResult{Valid: true}
}

// Invalid returns a failing ValidationResult enumerating the violated rules.
func Invalid(errs ...string) ValidationResult {
	return ValidationResult{Valid: false, Errors: errs}
}

// PaymentResult is the terminal outcome of processing a payment. Exactly one
// of TransactionID and Error is populated: success carries a non-empty
// transaction identifier assigned by the backend, failure carries a non-empty
// error message and the kind it maps to.
type PaymentResult struct {
	Success       bool      `json:"success"`
	TransactionID string    `json:"transactionId,omitempty"`
	ErrorKind     Kind      `json:"errorKind,omitempty"`
	Error         string    `json:"error,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Succeeded builds a successful PaymentResult.
func Succeeded(transactionID string, at time.Time) PaymentResult {
	return PaymentResult{Success: true, TransactionID: transactionID, Timestamp: at}
}

// Failed builds a failed PaymentResult.
func Failed(kind Kind, message string, at time.Time) PaymentResult {
	return PaymentResult{Success: false, ErrorKind: kind, Error: message, Timestamp: at}
}

// RefundResult mirrors PaymentResult for the reversal path. TransactionID
// references the original transaction being reversed; RefundID is the
// backend-assigned identifier of the reversal itself.
type RefundResult struct {
	Success       bool      `json:"success"`
	RefundID      string    `json:"refundId,omitempty"`
	TransactionID string    `json:"transactionId"`
	ErrorKind     Kind      `json:"errorKind,omitempty"`
	Error         string    `json:"error,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Refunded builds a successful RefundResult.
func Refunded(refundID, transactionID string, at time.Time) RefundResult {
	return RefundResult{Success: true, RefundID: refundID, TransactionID: transactionID, Timestamp: at}
}

// RefundFailed builds a failed RefundResult.
func RefundFailed(kind Kind, message, transactionID string, at time.Time) RefundResult {
	return RefundResult{Success: false, ErrorKind: kind, Error: message, TransactionID: transactionID, Timestamp: at}
}
