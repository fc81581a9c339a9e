// Package config assembles the service configuration from the process
// environment in one place. Strategies and gateways receive explicit values
// from here; nothing below the entry point reads the environment itself.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/yourorg/payment-processor/internal/gateway"
)

// GatewayConfig wires one payment method to its settlement backend.
type GatewayConfig struct {
	BaseURL     string
	Credentials gateway.Credentials
	Timeout     time.Duration
}

// Configured reports whether this gateway can be used.
func (g GatewayConfig) Configured() bool {
	return g.BaseURL != "" && !g.Credentials.Empty()
}

// Config is the full service configuration.
type Config struct {
	ListenAddr  string
	Environment gateway.Environment

	// RedisAddr enables the shared idempotency ledger; empty keeps the
	// process-local one.
	RedisAddr      string
	RedisDB        int
	RedisPassword  string
	IdempotencyTTL time.Duration

	// MaxAmount blocks payments above this limit; zero disables the rule.
	MaxAmount float64

	CreditCard GatewayConfig
	PayPal     GatewayConfig
}

// FromEnv reads the configuration from the process environment.
func FromEnv() (Config, error) {
	cfg := Config{
		ListenAddr:     envOr("PAYMENT_LISTEN_ADDR", ":8080"),
		Environment:    gateway.Environment(envOr("PAYMENT_ENVIRONMENT", string(gateway.EnvironmentSandbox))),
		RedisAddr:      os.Getenv("PAYMENT_REDIS_ADDR"),
		RedisPassword:  os.Getenv("PAYMENT_REDIS_PASSWORD"),
		IdempotencyTTL: 24 * time.Hour,
		CreditCard: GatewayConfig{
			BaseURL: os.Getenv("CREDIT_CARD_GATEWAY_URL"),
			Credentials: gateway.Credentials{
				APIKey:    os.Getenv("CREDIT_CARD_API_KEY"),
				APISecret: os.Getenv("CREDIT_CARD_API_SECRET"),
			},
			Timeout: 10 * time.Second,
		},
		PayPal: GatewayConfig{
			BaseURL: os.Getenv("PAYPAL_GATEWAY_URL"),
			Credentials: gateway.Credentials{
				APIKey:    os.Getenv("PAYPAL_API_KEY"),
				APISecret: os.Getenv("PAYPAL_API_SECRET"),
			},
			Timeout: 10 * time.Second,
		},
	}

	switch cfg.Environment {
	case gateway.EnvironmentProduction, gateway.EnvironmentSandbox:
	default:
		return Config{}, fmt.Errorf("config: unknown environment %q", cfg.Environment)
	}

	if raw := os.Getenv("PAYMENT_REDIS_DB"); raw != "" {
		db, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("config: PAYMENT_REDIS_DB: %w", err)
		}
		cfg.RedisDB = db
	}

	if raw := os.Getenv("PAYMENT_MAX_AMOUNT"); raw != "" {
		limit, err := strconv.ParseFloat(raw, 64)
		if err != nil || limit < 0 {
			return Config{}, fmt.Errorf("config: PAYMENT_MAX_AMOUNT %q is not a valid limit", raw)
		}
		cfg.MaxAmount = limit
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
