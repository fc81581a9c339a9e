// Package strategy defines the contract every payment method implementation
// satisfies. A strategy owns its method-specific validation rules and its
// backend gateway configuration; the processor sequences the calls without
// knowing which variant it is driving.
package strategy

import (
	"context"
	"errors"

	"github.com/yourorg/payment-processor/internal/gateway"
	"github.com/yourorg/payment-processor/internal/payment"
)

// Strategy is the three-operation contract implemented once per payment
// method.
//
// Validate is a pure check of the method-specific detail payload. It performs
// no I/O, is unaffected by gateway configuration, and enumerates every
// violated rule rather than stopping at the first.
//
// Process assumes validation already passed. It opens a scoped session to the
// configured backend, submits the payment and maps every adapter-level
// failure onto a failed PaymentResult; no business outcome escapes as an
// error.
//
// Refund reverses a previously successful transaction. Unknown or
// already-reversed transaction identifiers yield a KindNotFound result, not a
// fault.
type Strategy interface {
	Method() payment.Method
	Validate(p payment.Payment) payment.ValidationResult
	Process(ctx context.Context, p payment.Payment) payment.PaymentResult
	Refund(ctx context.Context, p payment.Payment, transactionID string) payment.RefundResult
}

// FailureFromGatewayError classifies an error coming back from a gateway
// call. Strategies share this mapping so heterogeneous backends surface
// failures consistently: deadline overruns become timeouts, declines and
// transport faults become backend errors, unknown transactions become
// not-found.
func FailureFromGatewayError(err error) (payment.Kind, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return payment.KindTimeout, "timeout"
	case errors.Is(err, gateway.ErrNotFound):
		return payment.KindNotFound, err.Error()
	default:
		var decline *gateway.DeclineError
		if errors.As(err, &decline) {
			return payment.KindBackend, decline.Error()
		}
		return payment.KindBackend, err.Error()
	}
}
