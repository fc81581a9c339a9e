// Package policy evaluates configured limit rules before a payment reaches
// the backend. Rules are govaluate expressions over the payment's amount,
// currency and method; a rule evaluating to true blocks the payment. This is
// static limit enforcement, not fraud scoring.
package policy

import (
	"fmt"

	"github.com/Knetic/govaluate"

	"github.com/yourorg/payment-processor/internal/payment"
)

// RuleConfig is one blocking rule. Expression must evaluate to a boolean;
// true means the payment is blocked. Available parameters: amount (float),
// currency (string), method (string).
type RuleConfig struct {
	Name       string
	Expression string
}

// Decision is the outcome of evaluating all rules against one payment.
type Decision struct {
	Allow bool
	// Rule names the first rule that blocked the payment.
	Rule   string
	Reason string
}

type compiledRule struct {
	name string
	expr *govaluate.EvaluableExpression
}

// Enforcer holds the compiled rule set.
type Enforcer struct {
	rules []compiledRule
}

// NewEnforcer compiles the rule set. A rule that fails to parse is a
// configuration error reported at construction, not at evaluation.
func NewEnforcer(rules []RuleConfig) (*Enforcer, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		expr, err := govaluate.NewEvaluableExpression(rule.Expression)
		if err != nil {
			return nil, fmt.Errorf("policy: compile rule %q: %w", rule.Name, err)
		}
		compiled = append(compiled, compiledRule{name: rule.Name, expr: expr})
	}
	return &Enforcer{rules: compiled}, nil
}

// Evaluate checks the payment against every rule in order and blocks on the
// first match.
func (e *Enforcer) Evaluate(p payment.Payment) (Decision, error) {
	amount, _ := p.Amount.Float64()
	params := map[string]interface{}{
		"amount":   amount,
		"currency": p.Currency,
		"method":   string(p.Method),
	}

	for _, rule := range e.rules {
		out, err := rule.expr.Evaluate(params)
		if err != nil {
			return Decision{}, fmt.Errorf("policy: evaluate rule %q: %w", rule.name, err)
		}
		blocked, ok := out.(bool)
		if !ok {
			return Decision{}, fmt.Errorf("policy: rule %q did not evaluate to a boolean", rule.name)
		}
		if blocked {
			return Decision{
				Allow:  false,
				Rule:   rule.name,
				Reason: fmt.Sprintf("payment blocked by policy rule %q", rule.name),
			}, nil
		}
	}
	return Decision{Allow: true}, nil
}
