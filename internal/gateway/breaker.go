package gateway

import (
	"context"
	"errors"

	"github.com/sony/gobreaker"
)

// WithBreaker wraps a Gateway so that Submit and Reverse calls run through a
// circuit breaker. While the circuit is open, calls fail fast with
// ErrCircuitOpen instead of hammering an unhealthy backend. Declines and
// unknown-transaction answers are definitive business outcomes and do not
// count as provider failures.
func WithBreaker(gw Gateway, settings gobreaker.Settings) Gateway {
	if settings.Name == "" {
		settings.Name = gw.Name()
	}
	return &breakerGateway{
		inner: gw,
		cb:    gobreaker.NewCircuitBreaker(settings),
	}
}

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("gateway circuit open")

type breakerGateway struct {
	inner Gateway
	cb    *gobreaker.CircuitBreaker
}

func (g *breakerGateway) Name() string { return g.inner.Name() }

func (g *breakerGateway) Connect(ctx context.Context, creds Credentials, env Environment) (Session, error) {
	session, err := g.inner.Connect(ctx, creds, env)
	if err != nil {
		return nil, err
	}
	return &breakerSession{inner: session, cb: g.cb}, nil
}

type breakerSession struct {
	inner Session
	cb    *gobreaker.CircuitBreaker
}

func (s *breakerSession) Submit(ctx context.Context, req SubmitRequest) (SubmitResponse, error) {
	var businessErr error
	out, err := s.cb.Execute(func() (interface{}, error) {
		res, err := s.inner.Submit(ctx, req)
		if isBusinessOutcome(err) {
			businessErr = err
			return res, nil
		}
		return res, err
	})
	if err != nil {
		return SubmitResponse{}, translateBreakerErr(err)
	}
	if businessErr != nil {
		return SubmitResponse{}, businessErr
	}
	return out.(SubmitResponse), nil
}

func (s *breakerSession) Reverse(ctx context.Context, transactionID string) (ReverseResponse, error) {
	var businessErr error
	out, err := s.cb.Execute(func() (interface{}, error) {
		res, err := s.inner.Reverse(ctx, transactionID)
		if isBusinessOutcome(err) {
			businessErr = err
			return res, nil
		}
		return res, err
	})
	if err != nil {
		return ReverseResponse{}, translateBreakerErr(err)
	}
	if businessErr != nil {
		return ReverseResponse{}, businessErr
	}
	return out.(ReverseResponse), nil
}

func (s *breakerSession) Close() error { return s.inner.Close() }

func isBusinessOutcome(err error) bool {
	if err == nil {
		return false
	}
	var decline *DeclineError
	return errors.As(err, &decline) || errors.Is(err, ErrNotFound)
}

func translateBreakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	return err
}
