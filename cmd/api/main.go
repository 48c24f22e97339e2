package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	rd "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/dejobratic/orderintake/internal/config"
	"github.com/dejobratic/orderintake/internal/downstream"
	idemmemory "github.com/dejobratic/orderintake/internal/idempotency/memory"
	idemredis "github.com/dejobratic/orderintake/internal/idempotency/redis"
	"github.com/dejobratic/orderintake/internal/kafka"
	"github.com/dejobratic/orderintake/internal/orders/adapters"
	"github.com/dejobratic/orderintake/internal/orders/adapters/conversion"
	"github.com/dejobratic/orderintake/internal/orders/adapters/courier"
	httpadapter "github.com/dejobratic/orderintake/internal/orders/adapters/http"
	"github.com/dejobratic/orderintake/internal/orders/adapters/ledger"
	ordersapp "github.com/dejobratic/orderintake/internal/orders/app"
	"github.com/dejobratic/orderintake/internal/orders/domain"
	ordersmetrics "github.com/dejobratic/orderintake/internal/orders/metrics"
	"github.com/dejobratic/orderintake/internal/orders/ports"
	"github.com/dejobratic/orderintake/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := telemetry.NewLogger(parseLogLevel(cfg.Telemetry.LogLevel))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    cfg.Service.Name,
		ServiceVersion: cfg.Service.Version,
		Environment:    cfg.Service.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTelEndpoint,
		EnableTracing:  cfg.Telemetry.EnableTracing,
		EnableMetrics:  cfg.Telemetry.EnableMetrics,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()

	meter := otel.Meter(cfg.Service.Name)

	intakeMetrics, err := ordersmetrics.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create intake metrics", "error", err)
		os.Exit(1)
	}
	downstreamMetrics, err := downstream.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create downstream metrics", "error", err)
		os.Exit(1)
	}
	kafkaMetrics, err := kafka.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create kafka metrics", "error", err)
		os.Exit(1)
	}
	httpMetrics, err := httpadapter.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create http metrics", "error", err)
		os.Exit(1)
	}

	client := downstream.NewHTTPClient(cfg.Downstream.Timeout)

	var ledgerForwarder ports.LedgerForwarder
	if cfg.Ledger.URL != "" {
		ledgerForwarder = adapters.NewObservableLedgerForwarder(
			ledger.NewForwarder(cfg.Ledger.URL, client), downstreamMetrics)
	} else {
		logger.Warn("ledger forwarding disabled: LEDGER_URL not set")
	}

	courierDispatcher := adapters.NewObservableCourierDispatcher(
		courier.NewDispatcher(cfg.Courier.BaseURL, cfg.Courier.APIKey, cfg.Courier.SecretKey, client),
		downstreamMetrics)

	var conversionReporter ports.ConversionReporter
	if cfg.Conversion.PixelID != "" && cfg.Conversion.AccessToken != "" {
		conversionReporter = adapters.NewObservableConversionReporter(
			conversion.NewReporter(cfg.Conversion.GraphURL, cfg.Conversion.PixelID, cfg.Conversion.AccessToken, cfg.Conversion.TestEventCode, client),
			downstreamMetrics)
	} else {
		logger.Warn("conversion reporting disabled: pixel id or access token not set")
	}

	var eventBus ports.EventBus
	var kafkaBus *kafka.EventBus
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaBus = kafka.NewEventBus(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() {
			if err := kafkaBus.Close(); err != nil {
				logger.Error("kafka writer close failed", "error", err)
			}
		}()
		eventBus = kafkaBus
	} else {
		logger.Warn("event publishing disabled: KAFKA_BROKERS not set")
		eventBus = kafka.NewNoopEventBus()
	}
	eventBus = adapters.NewObservableEventBus(eventBus, kafkaMetrics)

	var idemStore ports.IdempotencyStore
	var redisStore *idemredis.Store
	switch cfg.Idempotency.Backend {
	case "redis":
		redisClient := rd.NewClient(&rd.Options{
			Addr: cfg.Idempotency.RedisAddr,
			DB:   cfg.Idempotency.RedisDB,
		})
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error("redis client close failed", "error", err)
			}
		}()
		redisStore = idemredis.NewStore(redisClient, cfg.Idempotency.TTL)
		idemStore = redisStore
	default:
		idemStore = idemmemory.NewStore()
	}

	defaults := domain.Defaults{
		Product:        cfg.Order.Product,
		PriceMinor:     cfg.Order.FallbackPrice,
		ShippingMethod: "free",
		SourceURL:      cfg.Order.SourceURL,
		Currency:       cfg.Order.Currency,
	}

	service := ordersapp.NewService(
		ledgerForwarder,
		courierDispatcher,
		conversionReporter,
		eventBus,
		idemStore,
		defaults,
		logger,
		intakeMetrics,
	)
	ordersHandler := httpadapter.NewHandler(service, cfg.HTTP.AllowedOrigins)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if redisStore != nil {
			if err := redisStore.Ping(r.Context()); err != nil {
				respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	mux.HandleFunc(cfg.HTTP.MetricsPath, func(w http.ResponseWriter, _ *http.Request) {
		// Metrics are pushed over OTLP; this endpoint only confirms liveness of
		// the pipeline for probes that still scrape.
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("# metrics are exported via OTLP\n"))
	})

	ordersHandler.Register(mux)

	handler := withRecovery(withLogging(httpadapter.WithMetrics(mux, httpMetrics)))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "port", cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownGrace)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	} else {
		logger.Info("http server stopped")
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		slog.InfoContext(r.Context(), "http request", "method", r.Method, "path", r.URL.Path, "status", rw.status, "duration", time.Since(start))
	})
}

func withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("panic recovered", "error", rec)
				respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
