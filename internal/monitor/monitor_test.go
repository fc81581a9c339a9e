package monitor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/payment-processor/internal/monitor"
)

const testSchema = `{
  "type": "object",
  "required": ["id", "amount", "currency", "method"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "amount": {"type": "string", "pattern": "^[0-9]+(\\.[0-9]{1,8})?$"},
    "currency": {"type": "string", "pattern": "^[A-Z]{3}$"},
    "method": {"type": "string", "minLength": 1},
    "details": {"type": "object", "additionalProperties": {"type": "string"}}
  },
  "additionalProperties": false
}`

func TestNew(t *testing.T) {
	t.Run("valid schema", func(t *testing.T) {
		mon, err := monitor.New([]byte(testSchema))
		require.NoError(t, err)
		assert.NotNil(t, mon)
	})

	t.Run("malformed schema", func(t *testing.T) {
		_, err := monitor.New([]byte(`{"type": 42}`))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	mon, err := monitor.New([]byte(testSchema))
	require.NoError(t, err)

	t.Run("conforming request", func(t *testing.T) {
		valid, violations, err := mon.Validate([]byte(`{
			"id": "p1",
			"amount": "100.00",
			"currency": "USD",
			"method": "credit-card",
			"details": {"card_number": "4111111111111111"}
		}`))
		require.NoError(t, err)
		assert.True(t, valid)
		assert.Empty(t, violations)
	})

	t.Run("every violation is reported", func(t *testing.T) {
		valid, violations, err := mon.Validate([]byte(`{
			"id": "",
			"amount": "12.5.1",
			"currency": "usd",
			"method": "credit-card"
		}`))
		require.NoError(t, err)
		assert.False(t, valid)
		assert.GreaterOrEqual(t, len(violations), 3)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		valid, violations, err := mon.Validate([]byte(`{
			"id": "p1",
			"amount": "100.00",
			"currency": "USD",
			"method": "credit-card",
			"surprise": true
		}`))
		require.NoError(t, err)
		assert.False(t, valid)
		assert.NotEmpty(t, violations)
	})

	t.Run("invalid JSON is an error", func(t *testing.T) {
		_, _, err := mon.Validate([]byte(`{not json`))
		assert.Error(t, err)
	})
}

func TestFormatErrors(t *testing.T) {
	assert.Empty(t, monitor.FormatErrors(nil))
	assert.Equal(t,
		"Validation errors: id is required; amount does not match pattern",
		monitor.FormatErrors([]string{"id is required", "amount does not match pattern"}),
	)
}
