package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() failed: %v", err)
	}
	return metrics, reader
}

func collectMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect metrics: %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m
			}
		}
	}
	t.Fatalf("metric %s not found", name)
	return metricdata.Metrics{}
}

func TestRecordRequest(t *testing.T) {
	t.Run("splits series by status code", func(t *testing.T) {
		metrics, reader := newTestMetrics(t)
		ctx := context.Background()

		metrics.RecordRequest(ctx, "POST", "/order", 200, 120*time.Millisecond)
		metrics.RecordRequest(ctx, "POST", "/order", 200, 90*time.Millisecond)
		metrics.RecordRequest(ctx, "POST", "/order", 502, 340*time.Millisecond)

		counter := collectMetric(t, reader, "http_requests_total")
		sum, ok := counter.Data.(metricdata.Sum[int64])
		if !ok {
			t.Fatal("expected Sum[int64] data")
		}
		if len(sum.DataPoints) != 2 {
			t.Fatalf("expected 2 series, got %d", len(sum.DataPoints))
		}
		for _, dp := range sum.DataPoints {
			status, _ := dp.Attributes.Value(attribute.Key("status_code"))
			switch status.AsInt64() {
			case 200:
				if dp.Value != 2 {
					t.Errorf("expected 2 successful requests, got %d", dp.Value)
				}
			case 502:
				if dp.Value != 1 {
					t.Errorf("expected 1 gateway failure, got %d", dp.Value)
				}
			default:
				t.Errorf("unexpected status series %d", status.AsInt64())
			}
		}
	})

	t.Run("records latency per status series", func(t *testing.T) {
		metrics, reader := newTestMetrics(t)

		metrics.RecordRequest(context.Background(), "POST", "/order", 200, 100*time.Millisecond)

		histogram := collectMetric(t, reader, "http_request_duration_seconds")
		hist, ok := histogram.Data.(metricdata.Histogram[float64])
		if !ok {
			t.Fatal("expected Histogram[float64] data")
		}
		if len(hist.DataPoints) != 1 {
			t.Fatalf("expected 1 data point, got %d", len(hist.DataPoints))
		}
		if hist.DataPoints[0].Count != 1 {
			t.Errorf("expected 1 sample, got %d", hist.DataPoints[0].Count)
		}
	})
}

func TestWithMetrics(t *testing.T) {
	t.Run("captures explicit status codes", func(t *testing.T) {
		metrics, reader := newTestMetrics(t)

		handler := WithMetrics(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}), metrics)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/order", nil))

		counter := collectMetric(t, reader, "http_requests_total")
		sum := counter.Data.(metricdata.Sum[int64])
		status, _ := sum.DataPoints[0].Attributes.Value(attribute.Key("status_code"))
		if status.AsInt64() != 502 {
			t.Errorf("expected 502 series, got %d", status.AsInt64())
		}
	})

	t.Run("defaults to 200 when handler never writes a header", func(t *testing.T) {
		metrics, reader := newTestMetrics(t)

		handler := WithMetrics(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("ok"))
		}), metrics)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		counter := collectMetric(t, reader, "http_requests_total")
		sum := counter.Data.(metricdata.Sum[int64])
		status, _ := sum.DataPoints[0].Attributes.Value(attribute.Key("status_code"))
		if status.AsInt64() != 200 {
			t.Errorf("expected 200 series, got %d", status.AsInt64())
		}
	})
}
