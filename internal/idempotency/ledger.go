// Package idempotency guards against duplicate processing of the same
// logical payment. A Ledger records terminal results keyed by the payment's
// idempotency identifier; the Coordinator wraps execution so that concurrent
// duplicates join one in-flight call instead of triggering a second backend
// submission.
package idempotency

import (
	"context"
	"sync"

	"github.com/yourorg/payment-processor/internal/payment"
)

// Ledger stores terminal payment results by idempotency identifier. Only
// terminal results (success or definitive failure) are recorded; an entry,
// once written, never changes.
type Ledger interface {
	Get(ctx context.Context, id string) (payment.PaymentResult, bool, error)
	Put(ctx context.Context, id string, result payment.PaymentResult) error
}

// MemoryLedger is a process-local Ledger.
type MemoryLedger struct {
	mu      sync.RWMutex
	results map[string]payment.PaymentResult
}

// NewMemoryLedger creates an empty MemoryLedger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{results: make(map[string]payment.PaymentResult)}
}

// Get implements Ledger.
func (l *MemoryLedger) Get(_ context.Context, id string) (payment.PaymentResult, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	result, ok := l.results[id]
	return result, ok, nil
}

// Put implements Ledger. The first terminal result wins; later writes for
// the same identifier are ignored so a replay can never change the outcome.
func (l *MemoryLedger) Put(_ context.Context, id string, result payment.PaymentResult) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.results[id]; !exists {
		l.results[id] = result
	}
	return nil
}
