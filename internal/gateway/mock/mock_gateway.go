// Package mock provides an in-memory Gateway for tests. Behavior is
// overridden per test through the Func fields; call counts are recorded so
// tests can assert that the backend was, or was not, contacted.
package mock

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/yourorg/payment-processor/internal/gateway"
)

// MockGateway is a test double for the gateway.Gateway interface.
type MockGateway struct {
	GatewayName string
	ConnectFunc func(ctx context.Context, creds gateway.Credentials, env gateway.Environment) (gateway.Session, error)

	mu           sync.Mutex
	session      *MockSession
	connectCalls int
}

// NewMockGateway creates a MockGateway whose default session approves every
// submission with a generated transaction id.
func NewMockGateway(name string) *MockGateway {
	return &MockGateway{GatewayName: name}
}

func (m *MockGateway) Name() string {
	if m.GatewayName == "" {
		return "mock"
	}
	return m.GatewayName
}

// Connect implements gateway.Gateway. Without a ConnectFunc it hands out a
// single shared MockSession so tests can inspect calls after the fact.
func (m *MockGateway) Connect(ctx context.Context, creds gateway.Credentials, env gateway.Environment) (gateway.Session, error) {
	m.mu.Lock()
	m.connectCalls++
	m.mu.Unlock()

	if m.ConnectFunc != nil {
		return m.ConnectFunc(ctx, creds, env)
	}
	return m.Session(), nil
}

// Session returns the shared default session, creating it on first use.
func (m *MockGateway) Session() *MockSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		m.session = &MockSession{}
	}
	return m.session
}

// ConnectCalls reports how many times Connect was invoked.
func (m *MockGateway) ConnectCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectCalls
}

// MockSession is a test double for the gateway.Session interface.
type MockSession struct {
	SubmitFunc  func(ctx context.Context, req gateway.SubmitRequest) (gateway.SubmitResponse, error)
	ReverseFunc func(ctx context.Context, transactionID string) (gateway.ReverseResponse, error)

	mu           sync.Mutex
	submitCalls  []gateway.SubmitRequest
	reverseCalls []string
	closed       int
}

// Submit implements gateway.Session. The default behavior approves the
// submission with a fresh transaction id.
func (s *MockSession) Submit(ctx context.Context, req gateway.SubmitRequest) (gateway.SubmitResponse, error) {
	s.mu.Lock()
	s.submitCalls = append(s.submitCalls, req)
	s.mu.Unlock()

	if s.SubmitFunc != nil {
		return s.SubmitFunc(ctx, req)
	}
	return gateway.SubmitResponse{TransactionID: "tx_" + uuid.NewString()}, nil
}

// Reverse implements gateway.Session. The default behavior approves the
// reversal with a fresh refund id.
func (s *MockSession) Reverse(ctx context.Context, transactionID string) (gateway.ReverseResponse, error) {
	s.mu.Lock()
	s.reverseCalls = append(s.reverseCalls, transactionID)
	s.mu.Unlock()

	if s.ReverseFunc != nil {
		return s.ReverseFunc(ctx, transactionID)
	}
	return gateway.ReverseResponse{RefundID: "rf_" + uuid.NewString()}, nil
}

// Close implements gateway.Session.
func (s *MockSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

// SubmitCalls returns a copy of every recorded submission.
func (s *MockSession) SubmitCalls() []gateway.SubmitRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]gateway.SubmitRequest, len(s.submitCalls))
	copy(out, s.submitCalls)
	return out
}

// ReverseCalls returns a copy of every recorded reversal.
func (s *MockSession) ReverseCalls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.reverseCalls))
	copy(out, s.reverseCalls)
	return out
}

// CloseCalls reports how many times Close was invoked.
func (s *MockSession) CloseCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
