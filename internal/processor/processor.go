// Package processor sequences the payment lifecycle against one strategy:
// validate first, short-circuit invalid payments without touching the
// backend, then hand the payment to the strategy's Process. Failures from
// every layer are normalized into a single result shape.
package processor

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/yourorg/payment-processor/internal/payment"
	"github.com/yourorg/payment-processor/internal/strategy"
)

// Processor holds exactly one active strategy at a time. SetStrategy replaces
// it for subsequent calls; each call snapshots the field under a read lock,
// so calls already in flight are unaffected by a swap.
type Processor struct {
	mu       sync.RWMutex
	strategy strategy.Strategy

	logger *slog.Logger
	now    func() time.Time
}

// New creates a Processor. Both arguments may be nil; a nil strategy must be
// set before processing, a nil logger discards nothing but uses the default.
func New(s strategy.Strategy, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{strategy: s, logger: logger, now: time.Now}
}

// SetStrategy replaces the active strategy for subsequent calls.
func (p *Processor) SetStrategy(s strategy.Strategy) {
	p.mu.Lock()
	p.strategy = s
	p.mu.Unlock()
}

// Strategy returns the currently active strategy.
func (p *Processor) Strategy() strategy.Strategy {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.strategy
}

// ProcessPayment runs validate then process with the active strategy.
func (p *Processor) ProcessPayment(ctx context.Context, pay payment.Payment) payment.PaymentResult {
	return p.ProcessPaymentWith(ctx, p.Strategy(), pay)
}

// ProcessPaymentWith runs validate then process with an explicitly supplied
// strategy, bypassing the stored one. Concurrent callers handling different
// methods use this form so a stored-strategy swap cannot cross their calls.
func (p *Processor) ProcessPaymentWith(ctx context.Context, s strategy.Strategy, pay payment.Payment) payment.PaymentResult {
	if s == nil {
		return payment.Failed(payment.KindConfiguration, "no payment strategy configured", p.now())
	}

	validation := s.Validate(pay)
	if !validation.Valid {
		p.logger.Info("payment rejected by validation",
			"payment_id", pay.ID,
			"method", string(s.Method()),
			"errors", validation.Errors,
		)
		return payment.Failed(payment.KindValidation, strings.Join(validation.Errors, ", "), p.now())
	}

	result := s.Process(ctx, pay)
	return p.normalize(pay, s, result)
}

// Refund issues a reversal through the active strategy.
func (p *Processor) Refund(ctx context.Context, pay payment.Payment, transactionID string) payment.RefundResult {
	return p.RefundWith(ctx, p.Strategy(), pay, transactionID)
}

// RefundWith issues a reversal through an explicitly supplied strategy.
func (p *Processor) RefundWith(ctx context.Context, s strategy.Strategy, pay payment.Payment, transactionID string) payment.RefundResult {
	if s == nil {
		return payment.RefundFailed(payment.KindConfiguration, "no payment strategy configured", transactionID, p.now())
	}
	return s.Refund(ctx, pay, transactionID)
}

// normalize enforces the result invariant at the boundary: a success must
// carry a transaction identifier, a failure must carry an error message.
func (p *Processor) normalize(pay payment.Payment, s strategy.Strategy, result payment.PaymentResult) payment.PaymentResult {
	if result.Timestamp.IsZero() {
		result.Timestamp = p.now()
	}
	if result.Success && result.TransactionID == "" {
		p.logger.Error("strategy returned success without a transaction id",
			"payment_id", pay.ID,
			"method", string(s.Method()),
		)
		return payment.Failed(payment.KindBackend, "gateway returned no transaction identifier", result.Timestamp)
	}
	if !result.Success && result.Error == "" {
		result.Error = "payment failed"
		if result.ErrorKind == "" {
			result.ErrorKind = payment.KindBackend
		}
	}
	return result
}
