// Package registry maps payment method identifiers to strategy instances.
// Adding a payment method means registering a new variant here; nothing in
// the processor changes.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/yourorg/payment-processor/internal/payment"
	"github.com/yourorg/payment-processor/internal/strategy"
)

// Registry is the strategy lookup table.
type Registry struct {
	mu         sync.RWMutex
	strategies map[payment.Method]strategy.Strategy
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{strategies: make(map[payment.Method]strategy.Strategy)}
}

// Register adds or replaces the strategy for its method.
func (r *Registry) Register(s strategy.Strategy) {
	r.mu.Lock()
	r.strategies[s.Method()] = s
	r.mu.Unlock()
}

// Select resolves a method identifier to its strategy. Unknown identifiers
// yield a KindUnsupportedMethod error; they are driven by external input and
// must surface as a result, never a fault.
func (r *Registry) Select(method payment.Method) (strategy.Strategy, error) {
	r.mu.RLock()
	s, ok := r.strategies[method]
	r.mu.RUnlock()
	if !ok {
		return nil, payment.NewError(payment.KindUnsupportedMethod,
			fmt.Sprintf("unsupported payment method: %s", method))
	}
	return s, nil
}

// Methods lists the registered method identifiers in stable order.
func (r *Registry) Methods() []payment.Method {
	r.mu.RLock()
	defer r.mu.RUnlock()
	methods := make([]payment.Method, 0, len(r.strategies))
	for m := range r.strategies {
		methods = append(methods, m)
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i] < methods[j] })
	return methods
}
