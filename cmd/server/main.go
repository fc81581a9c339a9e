package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/yourorg/payment-processor/internal/config"
	"github.com/yourorg/payment-processor/internal/gateway"
	"github.com/yourorg/payment-processor/internal/gateway/rest"
	"github.com/yourorg/payment-processor/internal/idempotency"
	"github.com/yourorg/payment-processor/internal/metrics"
	"github.com/yourorg/payment-processor/internal/monitor"
	"github.com/yourorg/payment-processor/internal/orchestrator"
	"github.com/yourorg/payment-processor/internal/payment"
	"github.com/yourorg/payment-processor/internal/policy"
	"github.com/yourorg/payment-processor/internal/registry"
	"github.com/yourorg/payment-processor/internal/reporting"
	"github.com/yourorg/payment-processor/internal/strategy/creditcard"
	"github.com/yourorg/payment-processor/internal/strategy/paypal"
	"github.com/yourorg/payment-processor/pkg/logging"
)

//go:embed payment-request.schema.json
var paymentRequestSchema []byte

type server struct {
	orch     *orchestrator.Orchestrator
	mon      *monitor.ContractMonitor
	recorder *reporting.Recorder
	promReg  *prometheus.Registry
}

type paymentRequest struct {
	ID       string            `json:"id"`
	Amount   string            `json:"amount"`
	Currency string            `json:"currency"`
	Method   string            `json:"method"`
	Details  map[string]string `json:"details"`
}

type refundRequest struct {
	TransactionID string            `json:"transactionId" binding:"required"`
	Method        string            `json:"method" binding:"required"`
	Details       map[string]string `json:"details"`
}

func (s *server) handleProcessPayment(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unable to read request body"})
		return
	}

	valid, violations, err := s.mon.Validate(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": monitor.FormatErrors(violations)})
		return
	}

	var req paymentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed: Amount must be positive"})
		return
	}

	result := s.orch.Execute(c.Request.Context(), payment.Payment{
		ID:       req.ID,
		Amount:   amount,
		Currency: req.Currency,
		Method:   payment.Method(req.Method),
		Details:  req.Details,
	})
	c.JSON(http.StatusOK, result)
}

func (s *server) handleRefund(c *gin.Context) {
	var req refundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	result := s.orch.Refund(c.Request.Context(), payment.Payment{
		ID:      c.Param("id"),
		Method:  payment.Method(req.Method),
		Details: req.Details,
	}, req.TransactionID)
	c.JSON(http.StatusOK, result)
}

func (s *server) handleReport(c *gin.Context) {
	c.JSON(http.StatusOK, s.recorder.Generate())
}

func setupRouter(s *server) *gin.Engine {
	r := gin.Default()
	r.Use(otelgin.Middleware("payment-processor"))
	r.POST("/payments", s.handleProcessPayment)
	r.POST("/payments/:id/refund", s.handleRefund)
	r.GET("/report", s.handleReport)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.promReg, promhttp.HandlerOpts{})))
	return r
}

// buildRegistry registers every supported method. A variant without
// credentials is still registered: validation stays available and Process
// reports the missing configuration as a result.
func buildRegistry(cfg config.Config) *registry.Registry {
	reg := registry.New()

	cardGateway := gateway.WithBreaker(rest.New(rest.Config{
		Name:    "creditcard-gateway",
		BaseURL: cfg.CreditCard.BaseURL,
	}), gobreaker.Settings{})
	reg.Register(creditcard.New(creditcard.Config{
		Gateway:     cardGateway,
		Credentials: cfg.CreditCard.Credentials,
		Environment: cfg.Environment,
		Timeout:     cfg.CreditCard.Timeout,
	}))

	paypalGateway := gateway.WithBreaker(rest.New(rest.Config{
		Name:    "paypal-gateway",
		BaseURL: cfg.PayPal.BaseURL,
	}), gobreaker.Settings{})
	reg.Register(paypal.New(paypal.Config{
		Gateway:     paypalGateway,
		Credentials: cfg.PayPal.Credentials,
		Environment: cfg.Environment,
		Timeout:     cfg.PayPal.Timeout,
	}))

	return reg
}

func buildLedger(cfg config.Config) idempotency.Ledger {
	if cfg.RedisAddr == "" {
		return idempotency.NewMemoryLedger()
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return idempotency.NewRedisLedger(rdb, cfg.IdempotencyTTL)
}

func buildEnforcer(cfg config.Config) (*policy.Enforcer, error) {
	if cfg.MaxAmount <= 0 {
		return nil, nil
	}
	return policy.NewEnforcer([]policy.RuleConfig{
		{Name: "MaxAmount", Expression: "amount > " + decimal.NewFromFloat(cfg.MaxAmount).String()},
	})
}

func initTracing(ctx context.Context) (func(), error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return func() { _ = tp.Shutdown(ctx) }, nil
}

func main() {
	logger := logging.New(slog.LevelInfo)
	slog.SetDefault(logger)

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if !cfg.CreditCard.Configured() {
		logger.Warn("credit card gateway not configured; card payments will fail with a configuration error")
	}
	if !cfg.PayPal.Configured() {
		logger.Warn("paypal gateway not configured; wallet payments will fail with a configuration error")
	}

	shutdownTracing, err := initTracing(context.Background())
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer shutdownTracing()

	mon, err := monitor.New(paymentRequestSchema)
	if err != nil {
		logger.Error("failed to compile request schema", "error", err)
		os.Exit(1)
	}

	enforcer, err := buildEnforcer(cfg)
	if err != nil {
		logger.Error("failed to compile policy rules", "error", err)
		os.Exit(1)
	}

	promReg := prometheus.NewRegistry()
	recorder := reporting.NewRecorder(0)

	orch := orchestrator.New(buildRegistry(cfg), buildLedger(cfg), orchestrator.Options{
		Enforcer: enforcer,
		Metrics:  metrics.New(promReg),
		Recorder: recorder,
		Logger:   logger,
	})

	srv := &server{orch: orch, mon: mon, recorder: recorder, promReg: promReg}
	logger.Info("starting server", "addr", cfg.ListenAddr, "environment", string(cfg.Environment))
	if err := setupRouter(srv).Run(cfg.ListenAddr); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}
