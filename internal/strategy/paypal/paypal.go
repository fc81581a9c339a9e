// Package paypal implements the wallet payment strategy backed by a PayPal
// style settlement gateway. Validation checks the wallet account fields;
// processing and refunds follow the same gateway session discipline as the
// card strategy.
package paypal

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/yourorg/payment-processor/internal/gateway"
	"github.com/yourorg/payment-processor/internal/payment"
	"github.com/yourorg/payment-processor/internal/strategy"
)

// Detail payload keys owned by this strategy.
const (
	DetailEmail = "paypal_email"
)

const defaultGatewayTimeout = 10 * time.Second

// Config carries the gateway wiring for the wallet strategy.
type Config struct {
	Gateway     gateway.Gateway
	Credentials gateway.Credentials
	Environment gateway.Environment
	Timeout     time.Duration
}

// Strategy processes PayPal wallet payments.
type Strategy struct {
	gateway gateway.Gateway
	creds   gateway.Credentials
	env     gateway.Environment
	timeout time.Duration
	now     func() time.Time
}

// New creates the wallet strategy.
func New(cfg Config) *Strategy {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultGatewayTimeout
	}
	return &Strategy{
		gateway: cfg.Gateway,
		creds:   cfg.Credentials,
		env:     cfg.Environment,
		timeout: timeout,
		now:     time.Now,
	}
}

// Method implements strategy.Strategy.
func (s *Strategy) Method() payment.Method { return payment.MethodPayPal }

// Validate checks the wallet detail payload.
func (s *Strategy) Validate(p payment.Payment) payment.ValidationResult {
	var errs []string

	email := p.Detail(DetailEmail)
	switch {
	case email == "":
		errs = append(errs, "PayPal email is required")
	case !validEmail(email):
		errs = append(errs, "Invalid PayPal email")
	}

	if len(errs) > 0 {
		return payment.Invalid(errs...)
	}
	return payment.ValidOK()
}

// Process submits the wallet payment to the settlement gateway.
func (s *Strategy) Process(ctx context.Context, p payment.Payment) payment.PaymentResult {
	if s.creds.Empty() {
		return payment.Failed(payment.KindConfiguration, "paypal gateway is not configured", s.now())
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	session, err := s.gateway.Connect(ctx, s.creds, s.env)
	if err != nil {
		kind, msg := strategy.FailureFromGatewayError(err)
		return payment.Failed(kind, msg, s.now())
	}
	defer session.Close()

	resp, err := session.Submit(ctx, gateway.SubmitRequest{
		IdempotencyKey: p.ID,
		Amount:         p.Amount,
		Currency:       p.Currency,
		Details: map[string]string{
			DetailEmail: p.Detail(DetailEmail),
		},
	})
	if err != nil {
		kind, msg := strategy.FailureFromGatewayError(err)
		return payment.Failed(kind, msg, s.now())
	}
	return payment.Succeeded(resp.TransactionID, s.now())
}

// Refund reverses a previously successful wallet transaction in full.
func (s *Strategy) Refund(ctx context.Context, p payment.Payment, transactionID string) payment.RefundResult {
	if s.creds.Empty() {
		return payment.RefundFailed(payment.KindConfiguration, "paypal gateway is not configured", transactionID, s.now())
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	session, err := s.gateway.Connect(ctx, s.creds, s.env)
	if err != nil {
		kind, msg := strategy.FailureFromGatewayError(err)
		return payment.RefundFailed(kind, msg, transactionID, s.now())
	}
	defer session.Close()

	resp, err := session.Reverse(ctx, transactionID)
	if err != nil {
		kind, msg := strategy.FailureFromGatewayError(err)
		return payment.RefundFailed(kind, msg, transactionID, s.now())
	}
	return payment.Refunded(resp.RefundID, transactionID, s.now())
}

// validEmail accepts a plain address without display name.
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Address == email && strings.Contains(email, "@")
}
