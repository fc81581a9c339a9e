// Package orchestrator coordinates the full payment pipeline: strategy
// selection, policy enforcement, idempotent execution of the
// validate-process sequence, and outcome recording. It is the seam the
// transport layer talks to.
package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yourorg/payment-processor/internal/idempotency"
	"github.com/yourorg/payment-processor/internal/metrics"
	"github.com/yourorg/payment-processor/internal/payment"
	"github.com/yourorg/payment-processor/internal/policy"
	"github.com/yourorg/payment-processor/internal/processor"
	"github.com/yourorg/payment-processor/internal/registry"
	"github.com/yourorg/payment-processor/internal/reporting"
)

// Orchestrator executes payments and refunds end to end.
type Orchestrator struct {
	registry    *registry.Registry
	processor   *processor.Processor
	coordinator *idempotency.Coordinator
	enforcer    *policy.Enforcer
	metrics     *metrics.Metrics
	recorder    *reporting.Recorder
	logger      *slog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// Options carries the optional collaborators. Enforcer, Metrics and Recorder
// may be nil; the pipeline then runs without that concern.
type Options struct {
	Enforcer *policy.Enforcer
	Metrics  *metrics.Metrics
	Recorder *reporting.Recorder
	Logger   *slog.Logger
}

// New creates an Orchestrator over the given registry and ledger.
func New(reg *registry.Registry, ledger idempotency.Ledger, opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		registry:    reg,
		processor:   processor.New(nil, logger),
		coordinator: idempotency.NewCoordinator(ledger),
		enforcer:    opts.Enforcer,
		metrics:     opts.Metrics,
		recorder:    opts.Recorder,
		logger:      logger,
		tracer:      otel.Tracer("payment-processor/orchestrator"),
		now:         time.Now,
	}
}

// Execute processes one payment. Every failure mode is converted into a
// PaymentResult; the only errors that escape are programming faults.
func (o *Orchestrator) Execute(ctx context.Context, p payment.Payment) payment.PaymentResult {
	ctx, span := o.tracer.Start(ctx, "orchestrator.Execute", trace.WithAttributes(
		attribute.String("payment.id", p.ID),
		attribute.String("payment.method", string(p.Method)),
		attribute.String("payment.currency", p.Currency),
	))
	defer span.End()

	start := o.now()

	strat, err := o.registry.Select(p.Method)
	if err != nil {
		result := payment.Failed(payment.KindOf(err), err.Error(), o.now())
		o.finishPayment(p, result, false, start)
		return result
	}

	if o.enforcer != nil {
		decision, err := o.enforcer.Evaluate(p)
		if err != nil {
			o.logger.Error("policy evaluation failed", "payment_id", p.ID, "error", err)
			result := payment.Failed(payment.KindBackend, "policy evaluation failed", o.now())
			o.finishPayment(p, result, false, start)
			return result
		}
		if !decision.Allow {
			result := payment.Failed(payment.KindValidation, decision.Reason, o.now())
			o.finishPayment(p, result, false, start)
			return result
		}
	}

	result, duplicate, err := o.coordinator.Execute(ctx, p.ID, func(ctx context.Context) payment.PaymentResult {
		return o.processor.ProcessPaymentWith(ctx, strat, p)
	})
	if err != nil {
		if result.Timestamp.IsZero() {
			// The lookup failed before the backend was ever contacted.
			result = payment.Failed(payment.KindBackend, "idempotency store unavailable", o.now())
		} else {
			// The payment executed but the terminal record could not be
			// written; the result itself is still authoritative.
			o.logger.Error("failed to record terminal result", "payment_id", p.ID, "error", err)
		}
	}

	span.SetAttributes(
		attribute.Bool("payment.success", result.Success),
		attribute.Bool("payment.duplicate", duplicate),
	)
	o.finishPayment(p, result, duplicate, start)
	return result
}

// Refund reverses a previously successful transaction through the payment's
// strategy.
func (o *Orchestrator) Refund(ctx context.Context, p payment.Payment, transactionID string) payment.RefundResult {
	ctx, span := o.tracer.Start(ctx, "orchestrator.Refund", trace.WithAttributes(
		attribute.String("payment.id", p.ID),
		attribute.String("payment.method", string(p.Method)),
		attribute.String("payment.transaction_id", transactionID),
	))
	defer span.End()

	strat, err := o.registry.Select(p.Method)
	if err != nil {
		result := payment.RefundFailed(payment.KindOf(err), err.Error(), transactionID, o.now())
		o.finishRefund(p, result)
		return result
	}

	result := o.processor.RefundWith(ctx, strat, p, transactionID)
	span.SetAttributes(attribute.Bool("refund.success", result.Success))
	o.finishRefund(p, result)
	return result
}

func (o *Orchestrator) finishPayment(p payment.Payment, result payment.PaymentResult, duplicate bool, start time.Time) {
	elapsed := o.now().Sub(start)

	if result.Success {
		o.logger.Info("payment processed",
			"payment_id", p.ID,
			"method", string(p.Method),
			"transaction_id", result.TransactionID,
			"duplicate", duplicate,
			"elapsed_ms", elapsed.Milliseconds(),
		)
	} else {
		o.logger.Warn("payment failed",
			"payment_id", p.ID,
			"method", string(p.Method),
			"error_kind", string(result.ErrorKind),
			"error", result.Error,
			"elapsed_ms", elapsed.Milliseconds(),
		)
	}

	if o.metrics != nil {
		o.metrics.ObservePayment(string(p.Method), result.Success, duplicate, elapsed)
	}
	if o.recorder != nil {
		o.recorder.Record(reporting.Entry{
			Timestamp: result.Timestamp,
			PaymentID: p.ID,
			Method:    p.Method,
			Success:   result.Success,
			Duplicate: duplicate,
			ErrorKind: result.ErrorKind,
			Amount:    p.Amount,
			Currency:  p.Currency,
		})
	}
}

func (o *Orchestrator) finishRefund(p payment.Payment, result payment.RefundResult) {
	if result.Success {
		o.logger.Info("refund processed",
			"payment_id", p.ID,
			"method", string(p.Method),
			"transaction_id", result.TransactionID,
			"refund_id", result.RefundID,
		)
	} else {
		o.logger.Warn("refund failed",
			"payment_id", p.ID,
			"method", string(p.Method),
			"transaction_id", result.TransactionID,
			"error_kind", string(result.ErrorKind),
			"error", result.Error,
		)
	}

	if o.metrics != nil {
		o.metrics.ObserveRefund(string(p.Method), result.Success)
	}
	if o.recorder != nil {
		o.recorder.Record(reporting.Entry{
			Timestamp: result.Timestamp,
			PaymentID: p.ID,
			Method:    p.Method,
			Refund:    true,
			Success:   result.Success,
			ErrorKind: result.ErrorKind,
			Amount:    p.Amount,
			Currency:  p.Currency,
		})
	}
}
