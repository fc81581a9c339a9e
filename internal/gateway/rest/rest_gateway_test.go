package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/payment-processor/internal/gateway"
)

func newTestClient(serverURL string) *Client {
	return New(Config{
		Name:          "test-gateway",
		BaseURL:       serverURL,
		RetryAttempts: 2,
		RetryDelay:    time.Millisecond,
	})
}

func testCreds() gateway.Credentials {
	return gateway.Credentials{APIKey: "sk_test_123"}
}

func submitRequest() gateway.SubmitRequest {
	return gateway.SubmitRequest{
		IdempotencyKey: "p1",
		Amount:         decimal.RequireFromString("100.00"),
		Currency:       "USD",
		Details:        map[string]string{"card_number": "4111111111111111"},
	}
}

func TestNew(t *testing.T) {
	client := New(Config{})
	require.NotNil(t, client)
	assert.Equal(t, "rest", client.Name())
	assert.NotNil(t, client.httpClient)
	assert.Equal(t, defaultRetryAttempts, client.retryAttempts)
}

func TestConnect(t *testing.T) {
	client := newTestClient("http://gateway.invalid")

	t.Run("missing credentials are rejected", func(t *testing.T) {
		_, err := client.Connect(context.Background(), gateway.Credentials{}, gateway.EnvironmentSandbox)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing API key")
	})

	t.Run("credentials accepted", func(t *testing.T) {
		session, err := client.Connect(context.Background(), testCreds(), gateway.EnvironmentSandbox)
		require.NoError(t, err)
		assert.NotNil(t, session)
	})
}

func TestSubmit(t *testing.T) {
	t.Run("successful charge", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/charges", r.URL.Path)
			assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
			assert.Equal(t, "p1", r.Header.Get("Idempotency-Key"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			body, _ := io.ReadAll(r.Body)
			var req map[string]interface{}
			require.NoError(t, json.Unmarshal(body, &req))
			assert.Equal(t, "100", req["amount"])
			assert.Equal(t, "USD", req["currency"])
			assert.Equal(t, "sandbox", req["environment"])

			json.NewEncoder(w).Encode(map[string]string{"id": "tx_1"})
		}))
		defer server.Close()

		session, err := newTestClient(server.URL).Connect(context.Background(), testCreds(), gateway.EnvironmentSandbox)
		require.NoError(t, err)
		defer session.Close()

		resp, err := session.Submit(context.Background(), submitRequest())
		require.NoError(t, err)
		assert.Equal(t, "tx_1", resp.TransactionID)
	})

	t.Run("decline envelope maps to DeclineError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusPaymentRequired)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]string{"code": "insufficient_funds", "message": "Insufficient funds"},
			})
		}))
		defer server.Close()

		session, err := newTestClient(server.URL).Connect(context.Background(), testCreds(), gateway.EnvironmentSandbox)
		require.NoError(t, err)

		_, err = session.Submit(context.Background(), submitRequest())
		require.Error(t, err)

		var decline *gateway.DeclineError
		require.ErrorAs(t, err, &decline)
		assert.Equal(t, "insufficient_funds", decline.Code)
		assert.Equal(t, "Insufficient funds", decline.Reason)
	})

	t.Run("retries transient server errors", func(t *testing.T) {
		var hits int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&hits, 1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"id": "tx_retry"})
		}))
		defer server.Close()

		session, err := newTestClient(server.URL).Connect(context.Background(), testCreds(), gateway.EnvironmentSandbox)
		require.NoError(t, err)

		resp, err := session.Submit(context.Background(), submitRequest())
		require.NoError(t, err)
		assert.Equal(t, "tx_retry", resp.TransactionID)
		assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
	})

	t.Run("persistent server error surfaces after retries", func(t *testing.T) {
		var hits int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		session, err := newTestClient(server.URL).Connect(context.Background(), testCreds(), gateway.EnvironmentSandbox)
		require.NoError(t, err)

		_, err = session.Submit(context.Background(), submitRequest())
		require.Error(t, err)
		assert.Equal(t, int32(3), atomic.LoadInt32(&hits), "initial attempt plus two retries")
	})

	t.Run("context deadline aborts the call", func(t *testing.T) {
		started := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			close(started)
			<-r.Context().Done()
		}))
		defer server.Close()

		session, err := newTestClient(server.URL).Connect(context.Background(), testCreds(), gateway.EnvironmentSandbox)
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err = session.Submit(ctx, submitRequest())
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		<-started
	})

	t.Run("malformed success body is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status": "ok"}`))
		}))
		defer server.Close()

		session, err := newTestClient(server.URL).Connect(context.Background(), testCreds(), gateway.EnvironmentSandbox)
		require.NoError(t, err)

		_, err = session.Submit(context.Background(), submitRequest())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "malformed charge response")
	})

	t.Run("closed session rejects further calls", func(t *testing.T) {
		session, err := newTestClient("http://gateway.invalid").Connect(context.Background(), testCreds(), gateway.EnvironmentSandbox)
		require.NoError(t, err)
		require.NoError(t, session.Close())

		_, err = session.Submit(context.Background(), submitRequest())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "session closed")
	})
}

func TestReverse(t *testing.T) {
	t.Run("successful reversal", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/charges/tx_1/reversals", r.URL.Path)
			json.NewEncoder(w).Encode(map[string]string{"id": "rf_1"})
		}))
		defer server.Close()

		session, err := newTestClient(server.URL).Connect(context.Background(), testCreds(), gateway.EnvironmentSandbox)
		require.NoError(t, err)

		resp, err := session.Reverse(context.Background(), "tx_1")
		require.NoError(t, err)
		assert.Equal(t, "rf_1", resp.RefundID)
	})

	t.Run("unknown transaction maps to ErrNotFound", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]string{"code": "not_found", "message": "No such transaction"},
			})
		}))
		defer server.Close()

		session, err := newTestClient(server.URL).Connect(context.Background(), testCreds(), gateway.EnvironmentSandbox)
		require.NoError(t, err)

		_, err = session.Reverse(context.Background(), "tx_missing")
		require.ErrorIs(t, err, gateway.ErrNotFound)
	})

	t.Run("already reversed maps to ErrNotFound", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]string{"code": "already_reversed", "message": "Charge already reversed"},
			})
		}))
		defer server.Close()

		session, err := newTestClient(server.URL).Connect(context.Background(), testCreds(), gateway.EnvironmentSandbox)
		require.NoError(t, err)

		_, err = session.Reverse(context.Background(), "tx_1")
		require.ErrorIs(t, err, gateway.ErrNotFound)
	})
}
