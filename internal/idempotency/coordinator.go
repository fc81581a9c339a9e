package idempotency

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/yourorg/payment-processor/internal/payment"
)

// Coordinator provides at-most-once execution keyed by idempotency
// identifier. A recorded terminal result is replayed without invoking fn;
// concurrent calls for the same identifier collapse into one in-flight
// execution whose result every caller observes. The ledger record moves
// atomically from absent to terminal: it is written only after fn returns,
// while duplicates are still parked on the flight group.
type Coordinator struct {
	ledger Ledger
	group  singleflight.Group
}

// NewCoordinator creates a Coordinator over the given ledger.
func NewCoordinator(ledger Ledger) *Coordinator {
	return &Coordinator{ledger: ledger}
}

// Execute runs fn at most once for the identifier. The returned bool reports
// whether the result was replayed or joined rather than produced by this
// call's own fn invocation.
//
// If the ledger cannot be consulted the payment fails closed: executing
// without the dedupe record risks a duplicate charge, which is the one
// outcome this layer exists to prevent.
func (c *Coordinator) Execute(
	ctx context.Context,
	id string,
	fn func(ctx context.Context) payment.PaymentResult,
) (payment.PaymentResult, bool, error) {
	if id == "" {
		return payment.PaymentResult{}, false, payment.NewError(payment.KindValidation, "payment has no idempotency identifier")
	}

	if result, ok, err := c.ledger.Get(ctx, id); err != nil {
		return payment.PaymentResult{}, false, fmt.Errorf("idempotency lookup for %s: %w", id, err)
	} else if ok {
		return result, true, nil
	}

	type outcome struct {
		result payment.PaymentResult
		putErr error
	}

	v, _, shared := c.group.Do(id, func() (interface{}, error) {
		// A racing call may have recorded a result between the lookup
		// above and this flight winning the key.
		if result, ok, err := c.ledger.Get(ctx, id); err == nil && ok {
			return outcome{result: result}, nil
		}
		result := fn(ctx)
		return outcome{result: result, putErr: c.ledger.Put(ctx, id, result)}, nil
	})

	out := v.(outcome)
	if out.putErr != nil {
		// The backend was already invoked; surface the result and let the
		// caller decide how loudly to report the record failure.
		return out.result, shared, fmt.Errorf("idempotency record for %s: %w", id, out.putErr)
	}
	return out.result, shared, nil
}
