// Package gateway defines the boundary to the external settlement networks.
// A strategy connects to its configured Gateway per call, submits the payment
// over the resulting Session and releases the session on every exit path.
// Concrete clients live in subpackages; this package only carries the
// contract, the shared request/response shapes and the error types every
// client normalizes to.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Environment selects which backend deployment a session talks to.
type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentSandbox    Environment = "sandbox"
)

// Credentials authenticate a session against a settlement backend. They are
// supplied by configuration at construction time, never read from the
// environment inside a strategy.
type Credentials struct {
	APIKey    string
	APISecret string
}

// Empty reports whether no usable credential is present.
func (c Credentials) Empty() bool {
	return c.APIKey == ""
}

// SubmitRequest carries one payment submission to the backend.
type SubmitRequest struct {
	// IdempotencyKey dedupes retried submissions on the backend side.
	IdempotencyKey string
	Amount         decimal.Decimal
	Currency       string
	// Details is the method-specific payload forwarded verbatim.
	Details map[string]string
}

// SubmitResponse is the backend's answer to a successful submission.
type SubmitResponse struct {
	TransactionID string
}

// ReverseResponse is the backend's answer to a successful reversal.
type ReverseResponse struct {
	RefundID string
}

// Session is a scoped connection to a settlement backend. Callers must Close
// it on every exit path.
type Session interface {
	Submit(ctx context.Context, req SubmitRequest) (SubmitResponse, error)
	Reverse(ctx context.Context, transactionID string) (ReverseResponse, error)
	Close() error
}

// Gateway opens sessions against one settlement backend.
type Gateway interface {
	Connect(ctx context.Context, creds Credentials, env Environment) (Session, error)
	Name() string
}

// ErrNotFound is returned by Reverse when the transaction is unknown to the
// backend or was already reversed.
var ErrNotFound = errors.New("transaction not found")

// DeclineError is a definitive rejection by the settlement network. It is a
// terminal business outcome, not a transport fault.
type DeclineError struct {
	Code   string
	Reason string
}

func (e *DeclineError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("declined (%s): %s", e.Code, e.Reason)
	}
	return "declined: " + e.Reason
}
