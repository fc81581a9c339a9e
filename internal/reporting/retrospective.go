// Package reporting accumulates processed payment outcomes and summarizes
// them into a retrospective report. The recorder keeps a bounded in-memory
// window; durable transaction history belongs to an external ledger.
package reporting

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yourorg/payment-processor/internal/payment"
)

// Entry is one recorded payment or refund outcome.
type Entry struct {
	Timestamp time.Time
	PaymentID string
	Method    payment.Method
	Refund    bool
	Success   bool
	Duplicate bool
	ErrorKind payment.Kind
	Amount    decimal.Decimal
	Currency  string
}

// Report summarizes recorded activity.
type Report struct {
	TotalPayments        int                        `json:"totalPayments"`
	SuccessfulPayments   int                        `json:"successfulPayments"`
	FailedPayments       int                        `json:"failedPayments"`
	TotalRefunds         int                        `json:"totalRefunds"`
	DuplicatesSuppressed int                        `json:"duplicatesSuppressed"`
	AmountByCurrency     map[string]decimal.Decimal `json:"amountByCurrency"`
	FailureBreakdown     map[payment.Kind]int       `json:"failureBreakdown"`
	MethodUsage          map[payment.Method]int     `json:"methodUsage"`
	DateFrom             time.Time                  `json:"dateFrom"`
	DateTo               time.Time                  `json:"dateTo"`
}

const defaultCapacity = 10_000

// Recorder collects entries and generates reports.
type Recorder struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int
}

// NewRecorder creates a Recorder retaining at most capacity entries; older
// entries are dropped first. A non-positive capacity uses the default.
func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Recorder{capacity: capacity}
}

// Record appends one outcome, evicting the oldest entry when full.
func (r *Recorder) Record(entry Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) >= r.capacity {
		r.entries = r.entries[1:]
	}
	r.entries = append(r.entries, entry)
}

// Generate summarizes every retained entry. Amounts are summed for
// successful, non-duplicate payments only; duplicates would double-count the
// single backend submission they were answered from.
func (r *Recorder) Generate() *Report {
	r.mu.Lock()
	entries := make([]Entry, len(r.entries))
	copy(entries, r.entries)
	r.mu.Unlock()

	report := &Report{
		AmountByCurrency: make(map[string]decimal.Decimal),
		FailureBreakdown: make(map[payment.Kind]int),
		MethodUsage:      make(map[payment.Method]int),
	}

	for _, entry := range entries {
		if report.DateFrom.IsZero() || entry.Timestamp.Before(report.DateFrom) {
			report.DateFrom = entry.Timestamp
		}
		if entry.Timestamp.After(report.DateTo) {
			report.DateTo = entry.Timestamp
		}

		report.MethodUsage[entry.Method]++
		if entry.Duplicate {
			report.DuplicatesSuppressed++
		}

		if entry.Refund {
			report.TotalRefunds++
			if !entry.Success {
				report.FailureBreakdown[entry.ErrorKind]++
			}
			continue
		}

		report.TotalPayments++
		if entry.Success {
			report.SuccessfulPayments++
			if !entry.Duplicate {
				total := report.AmountByCurrency[entry.Currency]
				report.AmountByCurrency[entry.Currency] = total.Add(entry.Amount)
			}
		} else {
			report.FailedPayments++
			report.FailureBreakdown[entry.ErrorKind]++
		}
	}
	return report
}
