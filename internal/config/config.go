package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures runtime configuration for the intake service. All service
// URLs, keys, and tokens are injected here; core code never embeds secrets.
type Config struct {
	HTTP        HTTPConfig
	Ledger      LedgerConfig
	Courier     CourierConfig
	Conversion  ConversionConfig
	Order       OrderConfig
	Downstream  DownstreamConfig
	Idempotency IdempotencyConfig
	Kafka       KafkaConfig
	Telemetry   TelemetryConfig
	Service     ServiceConfig
}

type HTTPConfig struct {
	Port           int
	MetricsPath    string
	ShutdownGrace  int
	AllowedOrigins []string
}

// LedgerConfig points at the bookkeeping endpoint. An empty URL disables the
// ledger forward entirely; the response then reports it as skipped.
type LedgerConfig struct {
	URL string
}

type CourierConfig struct {
	BaseURL   string
	APIKey    string
	SecretKey string
}

// ConversionConfig holds the ad-attribution credentials. An empty pixel id or
// token disables conversion reporting.
type ConversionConfig struct {
	GraphURL      string
	PixelID       string
	AccessToken   string
	TestEventCode string
}

// OrderConfig supplies fallback values for optional submission fields.
type OrderConfig struct {
	Product       string
	FallbackPrice int64
	SourceURL     string
	Currency      string
}

type DownstreamConfig struct {
	Timeout time.Duration
}

// IdempotencyConfig selects the stored-response backend: "memory" or "redis".
type IdempotencyConfig struct {
	Backend   string
	RedisAddr string
	RedisDB   int
	TTL       time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type TelemetryConfig struct {
	LogLevel      string
	OTelEndpoint  string
	EnableTracing bool
	EnableMetrics bool
	SampleRate    float64
}

type ServiceConfig struct {
	Name        string
	Version     string
	Environment string
}

const (
	defaultHTTPPort          = 8080
	defaultMetricsPath       = "/metrics"
	defaultShutdownGrace     = 15
	defaultCourierBaseURL    = "https://portal.packzy.com/api/v1"
	defaultGraphURL          = "https://graph.facebook.com/v18.0"
	defaultProduct           = "Classic Bundle"
	defaultFallbackPrice     = 1990
	defaultSourceURL         = "https://shop.example.com/checkout"
	defaultCurrency          = "BDT"
	defaultDownstreamTimeout = 10 * time.Second
	defaultIdemBackend       = "memory"
	defaultIdemTTL           = 24 * time.Hour
	defaultKafkaTopic        = "order.events"
	defaultServiceName       = "orderintake-api"
	defaultServiceVersion    = "0.1.0"
	defaultEnvironment       = "development"
	defaultLogLevel          = "info"
	defaultOTelSampleRate    = 1.0
)

// Load reads configuration from environment variables, applying defaults when needed.
func Load() (*Config, error) {
	httpCfg, err := loadHTTPConfig()
	if err != nil {
		return nil, fmt.Errorf("loading HTTP config: %w", err)
	}

	courierCfg, err := loadCourierConfig()
	if err != nil {
		return nil, fmt.Errorf("loading courier config: %w", err)
	}

	orderCfg, err := loadOrderConfig()
	if err != nil {
		return nil, fmt.Errorf("loading order config: %w", err)
	}

	downstreamCfg, err := loadDownstreamConfig()
	if err != nil {
		return nil, fmt.Errorf("loading downstream config: %w", err)
	}

	idemCfg, err := loadIdempotencyConfig()
	if err != nil {
		return nil, fmt.Errorf("loading idempotency config: %w", err)
	}

	telCfg, err := loadTelemetryConfig()
	if err != nil {
		return nil, fmt.Errorf("loading telemetry config: %w", err)
	}

	return &Config{
		HTTP:        httpCfg,
		Ledger:      LedgerConfig{URL: os.Getenv("LEDGER_URL")},
		Courier:     courierCfg,
		Conversion:  loadConversionConfig(),
		Order:       orderCfg,
		Downstream:  downstreamCfg,
		Idempotency: idemCfg,
		Kafka:       loadKafkaConfig(),
		Telemetry:   telCfg,
		Service:     loadServiceConfig(),
	}, nil
}

func loadHTTPConfig() (HTTPConfig, error) {
	port := defaultHTTPPort
	if value, ok := os.LookupEnv("API_HTTP_PORT"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return HTTPConfig{}, fmt.Errorf("invalid API_HTTP_PORT: %w", err)
		}
		port = parsed
	}

	shutdownGrace := defaultShutdownGrace
	if value, ok := os.LookupEnv("API_SHUTDOWN_GRACE_SECONDS"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return HTTPConfig{}, fmt.Errorf("invalid API_SHUTDOWN_GRACE_SECONDS: %w", err)
		}
		shutdownGrace = parsed
	}

	return HTTPConfig{
		Port:           port,
		MetricsPath:    getEnvOrDefault("API_METRICS_PATH", defaultMetricsPath),
		ShutdownGrace:  shutdownGrace,
		AllowedOrigins: splitCSV(os.Getenv("ALLOWED_ORIGINS")),
	}, nil
}

func loadCourierConfig() (CourierConfig, error) {
	cfg := CourierConfig{
		BaseURL:   getEnvOrDefault("COURIER_BASE_URL", defaultCourierBaseURL),
		APIKey:    os.Getenv("COURIER_API_KEY"),
		SecretKey: os.Getenv("COURIER_SECRET_KEY"),
	}

	if cfg.APIKey == "" {
		return CourierConfig{}, fmt.Errorf("COURIER_API_KEY is required")
	}
	if cfg.SecretKey == "" {
		return CourierConfig{}, fmt.Errorf("COURIER_SECRET_KEY is required")
	}

	return cfg, nil
}

func loadConversionConfig() ConversionConfig {
	return ConversionConfig{
		GraphURL:      getEnvOrDefault("CONVERSION_GRAPH_URL", defaultGraphURL),
		PixelID:       os.Getenv("CONVERSION_PIXEL_ID"),
		AccessToken:   os.Getenv("CONVERSION_ACCESS_TOKEN"),
		TestEventCode: os.Getenv("CONVERSION_TEST_EVENT_CODE"),
	}
}

func loadOrderConfig() (OrderConfig, error) {
	fallbackPrice := int64(defaultFallbackPrice)
	if value, ok := os.LookupEnv("ORDER_FALLBACK_PRICE"); ok {
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return OrderConfig{}, fmt.Errorf("invalid ORDER_FALLBACK_PRICE: %w", err)
		}
		if parsed <= 0 {
			return OrderConfig{}, fmt.Errorf("ORDER_FALLBACK_PRICE must be positive")
		}
		fallbackPrice = parsed
	}

	return OrderConfig{
		Product:       getEnvOrDefault("ORDER_PRODUCT_NAME", defaultProduct),
		FallbackPrice: fallbackPrice,
		SourceURL:     getEnvOrDefault("ORDER_SOURCE_URL", defaultSourceURL),
		Currency:      getEnvOrDefault("ORDER_CURRENCY", defaultCurrency),
	}, nil
}

func loadDownstreamConfig() (DownstreamConfig, error) {
	timeout := defaultDownstreamTimeout
	if value, ok := os.LookupEnv("DOWNSTREAM_TIMEOUT_SECONDS"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return DownstreamConfig{}, fmt.Errorf("invalid DOWNSTREAM_TIMEOUT_SECONDS: %w", err)
		}
		if parsed <= 0 {
			return DownstreamConfig{}, fmt.Errorf("DOWNSTREAM_TIMEOUT_SECONDS must be positive")
		}
		timeout = time.Duration(parsed) * time.Second
	}

	return DownstreamConfig{Timeout: timeout}, nil
}

func loadIdempotencyConfig() (IdempotencyConfig, error) {
	backend := getEnvOrDefault("IDEMPOTENCY_BACKEND", defaultIdemBackend)
	if backend != "memory" && backend != "redis" {
		return IdempotencyConfig{}, fmt.Errorf("invalid IDEMPOTENCY_BACKEND %q: must be memory or redis", backend)
	}

	redisDB := 0
	if value, ok := os.LookupEnv("REDIS_DB"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return IdempotencyConfig{}, fmt.Errorf("invalid REDIS_DB: %w", err)
		}
		redisDB = parsed
	}

	ttl := defaultIdemTTL
	if value, ok := os.LookupEnv("IDEMPOTENCY_TTL_HOURS"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return IdempotencyConfig{}, fmt.Errorf("invalid IDEMPOTENCY_TTL_HOURS: %w", err)
		}
		if parsed <= 0 {
			return IdempotencyConfig{}, fmt.Errorf("IDEMPOTENCY_TTL_HOURS must be positive")
		}
		ttl = time.Duration(parsed) * time.Hour
	}

	cfg := IdempotencyConfig{
		Backend:   backend,
		RedisAddr: getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisDB:   redisDB,
		TTL:       ttl,
	}

	return cfg, nil
}

func loadKafkaConfig() KafkaConfig {
	return KafkaConfig{
		Brokers: splitCSV(os.Getenv("KAFKA_BROKERS")),
		Topic:   getEnvOrDefault("KAFKA_TOPIC", defaultKafkaTopic),
	}
}

func loadTelemetryConfig() (TelemetryConfig, error) {
	sampleRate := defaultOTelSampleRate
	if value, ok := os.LookupEnv("OTEL_SAMPLE_RATE"); ok {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return TelemetryConfig{}, fmt.Errorf("invalid OTEL_SAMPLE_RATE: %w", err)
		}
		sampleRate = parsed
	}

	return TelemetryConfig{
		LogLevel:      getEnvOrDefault("LOG_LEVEL", defaultLogLevel),
		OTelEndpoint:  getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		EnableTracing: getBoolEnv("OTEL_ENABLE_TRACING", true),
		EnableMetrics: getBoolEnv("OTEL_ENABLE_METRICS", true),
		SampleRate:    sampleRate,
	}, nil
}

func loadServiceConfig() ServiceConfig {
	return ServiceConfig{
		Name:        getEnvOrDefault("API_SERVICE_NAME", defaultServiceName),
		Version:     getEnvOrDefault("SERVICE_VERSION", defaultServiceVersion),
		Environment: getEnvOrDefault("ENVIRONMENT", defaultEnvironment),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		return value == "true"
	}
	return defaultValue
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
