package prometheus

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	client, err := New(&Config{
		Namespace:  "test",
		HTTPServer: HTTPServerConfig{Enabled: false},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Namespace != "app" {
		t.Errorf("Namespace = %q", cfg.Namespace)
	}
	if !cfg.HTTPServer.Enabled || cfg.HTTPServer.Addr != ":9090" || cfg.HTTPServer.Path != "/metrics" {
		t.Errorf("HTTPServer = %+v", cfg.HTTPServer)
	}
	if !cfg.EnableGoCollector || !cfg.EnableProcessCollector {
		t.Error("runtime collectors should default to enabled")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name:    "valid",
			config:  DefaultConfig(),
			wantErr: false,
		},
		{
			name:    "missing namespace",
			config:  &Config{},
			wantErr: true,
		},
		{
			name: "server enabled without addr",
			config: &Config{
				Namespace:  "test",
				HTTPServer: HTTPServerConfig{Enabled: true},
			},
			wantErr: true,
		},
		{
			name: "server disabled",
			config: &Config{
				Namespace:  "test",
				HTTPServer: HTTPServerConfig{Enabled: false},
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error not wrapped: %v", err)
			}
		})
	}
}

func TestValidateBackfillsDefaults(t *testing.T) {
	cfg := &Config{
		Namespace:  "test",
		HTTPServer: HTTPServerConfig{Enabled: true, Addr: ":0"},
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.HTTPServer.Path != "/metrics" {
		t.Errorf("Path = %q", cfg.HTTPServer.Path)
	}
	if cfg.HTTPServer.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v", cfg.HTTPServer.Timeout)
	}
}

func TestCounterLifecycle(t *testing.T) {
	client := newTestClient(t)

	counter, err := client.NewCounter("messages_sent_total", "Messages handed to the gateway", []string{"result"})
	if err != nil {
		t.Fatalf("NewCounter() error = %v", err)
	}

	counter.WithLabelValues("ok").Inc()
	counter.WithLabelValues("dropped").Add(5)

	if _, err := client.NewCounter("messages_sent_total", "dup", []string{"result"}); !errors.Is(err, ErrMetricExists) {
		t.Errorf("duplicate NewCounter() = %v, want ErrMetricExists", err)
	}

	got, ok := client.GetCounter("messages_sent_total")
	if !ok || got != counter {
		t.Error("GetCounter should return the registered vector")
	}
	if _, ok := client.GetCounter("unknown_total"); ok {
		t.Error("GetCounter should miss for unknown name")
	}
}

func TestGaugeOperations(t *testing.T) {
	client := newTestClient(t)

	gauge, err := client.NewGauge("active_connections", "Connections currently established", []string{"endpoint"})
	if err != nil {
		t.Fatalf("NewGauge() error = %v", err)
	}

	g := gauge.WithLabelValues("wss://gw-1")
	g.Set(10)
	g.Inc()
	g.Dec()
	g.Add(4)
	g.Sub(2)

	if got, ok := client.GetGauge("active_connections"); !ok || got != gauge {
		t.Error("GetGauge should return the registered vector")
	}
}

func TestHistogramBuckets(t *testing.T) {
	client := newTestClient(t)

	custom, err := client.NewHistogram("echo_latency_seconds", "Round trip latency", nil,
		[]float64{.005, .05, .5, 5})
	if err != nil {
		t.Fatalf("NewHistogram() error = %v", err)
	}
	custom.WithLabelValues().Observe(0.042)

	// nil buckets 回落到 DefBuckets
	fallback, err := client.NewHistogram("enqueue_wait_seconds", "Queue wait time", nil, nil)
	if err != nil {
		t.Fatalf("NewHistogram() with nil buckets error = %v", err)
	}
	fallback.WithLabelValues().Observe(1.5)
}

func TestSummaryDefaults(t *testing.T) {
	client := newTestClient(t)

	summary, err := client.NewSummary("reconnect_delay_seconds", "Observed reconnect delays", nil, nil)
	if err != nil {
		t.Fatalf("NewSummary() error = %v", err)
	}
	summary.WithLabelValues().Observe(0.8)
	summary.WithLabelValues().Observe(12.5)

	if _, ok := client.GetSummary("reconnect_delay_seconds"); !ok {
		t.Error("GetSummary should find the registered vector")
	}
}

func TestMustNewPanicsOnDuplicate(t *testing.T) {
	client := newTestClient(t)
	client.MustNewCounter("unique_total", "first registration", nil)

	defer func() {
		if recover() == nil {
			t.Error("MustNewCounter should panic on duplicate")
		}
	}()
	client.MustNewCounter("unique_total", "second registration", nil)
}

func TestCloseLifecycle(t *testing.T) {
	client := newTestClient(t)

	if client.IsClosed() {
		t.Error("client should start open")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !client.IsClosed() {
		t.Error("IsClosed() should be true after Close")
	}
	if err := client.Close(); !errors.Is(err, ErrClientClosed) {
		t.Errorf("second Close() = %v, want ErrClientClosed", err)
	}
	if _, err := client.NewCounter("late_total", "registered after close", nil); !errors.Is(err, ErrClientClosed) {
		t.Errorf("NewCounter() after close = %v, want ErrClientClosed", err)
	}
}

func TestRegisterCollector(t *testing.T) {
	client := newTestClient(t)

	uptime := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "test",
			Name:      "uptime_seconds",
			Help:      "Process uptime",
		},
		func() float64 { return 1 },
	)

	if err := client.RegisterCollector(uptime); err != nil {
		t.Fatalf("RegisterCollector() error = %v", err)
	}
	if err := client.RegisterCollector(uptime); err == nil {
		t.Error("registering the same collector twice should fail")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	client, err := New(&Config{
		Namespace: "xchat",
		Subsystem: "probe",
		HTTPServer: HTTPServerConfig{
			Enabled: true,
			Addr:    "127.0.0.1:0",
			Path:    "/metrics",
			Timeout: 5 * time.Second,
		},
		EnableGoCollector: true,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	counter := client.MustNewCounter("messages_sent_total", "Messages handed to the gateway", nil)
	counter.WithLabelValues().Add(3)

	url := "http://" + client.MetricsAddr() + "/metrics"
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s error = %v", url, err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read body error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	text := string(body)
	if !strings.Contains(text, "xchat_probe_messages_sent_total 3") {
		t.Errorf("metric with namespace prefix missing from exposition:\n%s", text)
	}
	if !strings.Contains(text, "go_goroutines") {
		t.Error("go collector metrics missing from exposition")
	}

	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := http.Get(url); err == nil {
		t.Error("metrics endpoint should stop serving after Close")
	}
}
