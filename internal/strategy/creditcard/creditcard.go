// Package creditcard implements the card payment strategy. Validation covers
// the card number checksum, the expiry date and the CVV; processing and
// refunds run against the configured settlement gateway.
package creditcard

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yourorg/payment-processor/internal/gateway"
	"github.com/yourorg/payment-processor/internal/payment"
	"github.com/yourorg/payment-processor/internal/strategy"
)

// Detail payload keys owned by this strategy.
const (
	DetailCardNumber = "card_number"
	DetailExpiry     = "expiry" // MM/YY
	DetailCVV        = "cvv"
)

const defaultGatewayTimeout = 10 * time.Second

// Config carries the gateway wiring for the card strategy. Credentials come
// from explicit configuration, never from the process environment.
type Config struct {
	Gateway     gateway.Gateway
	Credentials gateway.Credentials
	Environment gateway.Environment
	// Timeout bounds each gateway call. Zero means the default.
	Timeout time.Duration
}

// Strategy processes card payments.
type Strategy struct {
	gateway gateway.Gateway
	creds   gateway.Credentials
	env     gateway.Environment
	timeout time.Duration
	now     func() time.Time
}

// New creates the card strategy.
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
func (s *Strategy) Method() payment.Method { return payment.MethodCreditCard }

// Validate checks the card detail payload. Every violated rule is reported.
func (s *Strategy) Validate(p payment.Payment) payment.ValidationResult {
	var errs []string

	number := p.Detail(DetailCardNumber)
	switch {
	case number == "":
		errs = append(errs, "Card number is required")
	case !validLuhn(number):
		errs = append(errs, "Invalid card number")
	}

	expiry := p.Detail(DetailExpiry)
	switch {
	case expiry == "":
		errs = append(errs, "Expiry date is required")
	default:
		end, err := parseExpiry(expiry)
		switch {
		case err != nil:
			errs = append(errs, "Invalid expiry date")
		case end.Before(s.now()):
			errs = append(errs, "Card has expired")
		}
	}

	cvv := p.Detail(DetailCVV)
	switch {
	case cvv == "":
		errs = append(errs, "CVV is required")
	case !validCVV(cvv):
		errs = append(errs, "Invalid CVV")
	}

	if len(errs) > 0 {
		return payment.Invalid(errs...)
	}
	return payment.ValidOK()
}

// Process submits the card payment to the settlement gateway.
func (s *Strategy) Process(ctx context.Context, p payment.Payment) payment.PaymentResult {
	if s.creds.Empty() {
		return payment.Failed(payment.KindConfiguration, "credit card gateway is not configured", s.now())
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
			DetailCardNumber: p.Detail(DetailCardNumber),
			DetailExpiry:     p.Detail(DetailExpiry),
			DetailCVV:        p.Detail(DetailCVV),
		},
	})
	if err != nil {
		kind, msg := strategy.FailureFromGatewayError(err)
		return payment.Failed(kind, msg, s.now())
	}
	return payment.Succeeded(resp.TransactionID, s.now())
}

// Refund reverses a previously successful card transaction in full.
func (s *Strategy) Refund(ctx context.Context, p payment.Payment, transactionID string) payment.RefundResult {
	if s.creds.Empty() {
		return payment.RefundFailed(payment.KindConfiguration, "credit card gateway is not configured", transactionID, s.now())
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

// validLuhn reports whether the card number passes the Luhn checksum.
// Spaces and hyphens are tolerated.
func validLuhn(number string) bool {
	digits := strings.NewReplacer(" ", "", "-", "").Replace(number)
	if len(digits) < 12 || len(digits) > 19 {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		c := digits[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// parseExpiry converts an MM/YY expiry into the instant the card stops being
// valid (the first moment after its expiry month).
func parseExpiry(expiry string) (time.Time, error) {
	parts := strings.Split(expiry, "/")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return time.Time{}, fmt.Errorf("expiry %q is not in MM/YY form", expiry)
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("expiry month %q out of range", parts[0])
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("expiry year %q is not numeric", parts[1])
	}
	return time.Date(2000+year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC), nil
}

func validCVV(cvv string) bool {
	if len(cvv) != 3 && len(cvv) != 4 {
		return false
	}
	for i := 0; i < len(cvv); i++ {
		if cvv[i] < '0' || cvv[i] > '9' {
			return false
		}
	}
	return true
}
