// Package mock provides a test double for the strategy contract. Behavior is
// overridden per test through the Func fields; defaults validate everything
// and approve with generated identifiers.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/payment-processor/internal/payment"
)

// MockStrategy is a configurable strategy.Strategy implementation.
type MockStrategy struct {
	MethodName   payment.Method
	ValidateFunc func(p payment.Payment) payment.ValidationResult
	ProcessFunc  func(ctx context.Context, p payment.Payment) payment.PaymentResult
	RefundFunc   func(ctx context.Context, p payment.Payment, transactionID string) payment.RefundResult

	mu            sync.Mutex
	validateCalls int
	processCalls  int
	refundCalls   int
}

// NewMockStrategy creates a MockStrategy answering for the given method.
func NewMockStrategy(method payment.Method) *MockStrategy {
	return &MockStrategy{MethodName: method}
}

// Method implements strategy.Strategy.
func (m *MockStrategy) Method() payment.Method { return m.MethodName }

// Validate implements strategy.Strategy. Defaults to valid.
func (m *MockStrategy) Validate(p payment.Payment) payment.ValidationResult {
	m.mu.Lock()
	m.validateCalls++
	m.mu.Unlock()

	if m.ValidateFunc != nil {
		return m.ValidateFunc(p)
	}
	return payment.ValidOK()
}

// Process implements strategy.Strategy. Defaults to success with a generated
// transaction id.
func (m *MockStrategy) Process(ctx context.Context, p payment.Payment) payment.PaymentResult {
	m.mu.Lock()
	m.processCalls++
	m.mu.Unlock()

	if m.ProcessFunc != nil {
		return m.ProcessFunc(ctx, p)
	}
	return payment.Succeeded("tx_"+uuid.NewString(), time.Now())
}

// Refund implements strategy.Strategy. Defaults to success with a generated
// refund id.
func (m *MockStrategy) Refund(ctx context.Context, p payment.Payment, transactionID string) payment.RefundResult {
	m.mu.Lock()
	m.refundCalls++
	m.mu.Unlock()

	if m.RefundFunc != nil {
		return m.RefundFunc(ctx, p, transactionID)
	}
	return payment.Refunded("rf_"+uuid.NewString(), transactionID, time.Now())
}

// ValidateCalls reports how many times Validate was invoked.
func (m *MockStrategy) ValidateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.validateCalls
}

// ProcessCalls reports how many times Process was invoked.
func (m *MockStrategy) ProcessCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.processCalls
}

// RefundCalls reports how many times Refund was invoked.
func (m *MockStrategy) RefundCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refundCalls
}
