package idempotency_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/payment-processor/internal/idempotency"
	"github.com/yourorg/payment-processor/internal/payment"
)

func TestMemoryLedger(t *testing.T) {
	ledger := idempotency.NewMemoryLedger()
	ctx := context.Background()

	t.Run("absent key", func(t *testing.T) {
		_, ok, err := ledger.Get(ctx, "p1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("roundtrip", func(t *testing.T) {
		want := payment.Succeeded("tx_1", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
		require.NoError(t, ledger.Put(ctx, "p1", want))

		got, ok, err := ledger.Get(ctx, "p1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, want, got)
	})

	t.Run("first terminal result wins", func(t *testing.T) {
		require.NoError(t, ledger.Put(ctx, "p1", payment.Failed(payment.KindBackend, "late write", time.Now())))

		got, ok, err := ledger.Get(ctx, "p1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, got.Success)
		assert.Equal(t, "tx_1", got.TransactionID)
	})
}

func TestCoordinatorExecute(t *testing.T) {
	ctx := context.Background()

	t.Run("first call executes, second replays", func(t *testing.T) {
		coord := idempotency.NewCoordinator(idempotency.NewMemoryLedger())
		var calls int32
		fn := func(context.Context) payment.PaymentResult {
			atomic.AddInt32(&calls, 1)
			return payment.Succeeded("tx_1", time.Now())
		}

		first, duplicate, err := coord.Execute(ctx, "p1", fn)
		require.NoError(t, err)
		assert.False(t, duplicate)

		second, duplicate, err := coord.Execute(ctx, "p1", fn)
		require.NoError(t, err)
		assert.True(t, duplicate)

		assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "backend must be submitted exactly once")
		assert.Equal(t, first, second, "both calls must observe the identical result")
	})

	t.Run("definitive failures are replayed too", func(t *testing.T) {
		coord := idempotency.NewCoordinator(idempotency.NewMemoryLedger())
		var calls int32

		for i := 0; i < 3; i++ {
			result, _, err := coord.Execute(ctx, "p2", func(context.Context) payment.PaymentResult {
				atomic.AddInt32(&calls, 1)
				return payment.Failed(payment.KindBackend, "declined", time.Now())
			})
			require.NoError(t, err)
			assert.False(t, result.Success)
		}
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("concurrent duplicates join one in-flight execution", func(t *testing.T) {
		coord := idempotency.NewCoordinator(idempotency.NewMemoryLedger())
		var calls int32
		release := make(chan struct{})

		const workers = 8
		results := make([]payment.PaymentResult, workers)
		var wg sync.WaitGroup
		wg.Add(workers)
		for i := 0; i < workers; i++ {
			go func(i int) {
				defer wg.Done()
				result, _, err := coord.Execute(ctx, "p3", func(context.Context) payment.PaymentResult {
					atomic.AddInt32(&calls, 1)
					<-release
					return payment.Succeeded("tx_3", time.Now())
				})
				assert.NoError(t, err)
				results[i] = result
			}(i)
		}

		// Give the workers a moment to pile onto the same key, then let
		// the single flight finish.
		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "only one backend submission may happen")
		for _, result := range results {
			assert.True(t, result.Success)
			assert.Equal(t, "tx_3", result.TransactionID)
		}
	})

	t.Run("distinct identifiers execute independently", func(t *testing.T) {
		coord := idempotency.NewCoordinator(idempotency.NewMemoryLedger())
		var calls int32

		var wg sync.WaitGroup
		for _, id := range []string{"a", "b", "c"} {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				_, _, err := coord.Execute(ctx, id, func(context.Context) payment.PaymentResult {
					atomic.AddInt32(&calls, 1)
					return payment.Succeeded("tx_"+id, time.Now())
				})
				assert.NoError(t, err)
			}(id)
		}
		wg.Wait()

		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})

	t.Run("empty identifier is rejected", func(t *testing.T) {
		coord := idempotency.NewCoordinator(idempotency.NewMemoryLedger())

		_, _, err := coord.Execute(ctx, "", func(context.Context) payment.PaymentResult {
			t.Fatal("fn must not run without an idempotency identifier")
			return payment.PaymentResult{}
		})

		require.Error(t, err)
		assert.Equal(t, payment.KindValidation, payment.KindOf(err))
	})

	t.Run("ledger lookup failure fails closed", func(t *testing.T) {
		coord := idempotency.NewCoordinator(failingLedger{})

		_, _, err := coord.Execute(ctx, "p4", func(context.Context) payment.PaymentResult {
			t.Fatal("fn must not run when the ledger is unreachable")
			return payment.PaymentResult{}
		})

		require.Error(t, err)
	})
}

type failingLedger struct{}

func (failingLedger) Get(context.Context, string) (payment.PaymentResult, bool, error) {
	return payment.PaymentResult{}, false, assert.AnError
}

func (failingLedger) Put(context.Context, string, payment.PaymentResult) error {
	return assert.AnError
}
