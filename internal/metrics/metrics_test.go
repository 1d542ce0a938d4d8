package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertMetricLine checks that the Prometheus output contains a metric with
// the given name, partial label pattern, and value. Regex based to tolerate
// the OTel scope labels the Prometheus exporter injects.
func assertMetricLine(t *testing.T, output, name, labels, value string) {
	t.Helper()
	pattern := name + `\{[^}]*` + labels + `[^}]*\} ` + value
	assert.Regexp(t, pattern, output)
}

func scrape(t *testing.T, provider *Provider) string {
	t.Helper()
	rec := httptest.NewRecorder()
	provider.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestNewProvider(t *testing.T) {
	provider, err := NewProvider("keyloft_test")

	require.NoError(t, err)
	assert.NotNil(t, provider.meterProvider)
	assert.NotNil(t, provider.exporter)
	assert.NotNil(t, provider.registry)
	assert.NotNil(t, provider.MeterProvider())
	assert.NotNil(t, provider.Handler())
}

func TestProvider_Shutdown(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		provider, err := NewProvider("keyloft_test")
		require.NoError(t, err)

		assert.NoError(t, provider.Shutdown(context.Background()))
	})

	t.Run("NilMeterProvider", func(t *testing.T) {
		provider := &Provider{meterProvider: nil}

		assert.NoError(t, provider.Shutdown(context.Background()))
	})
}

func TestBusinessMetrics_RecordOperation(t *testing.T) {
	provider, err := NewProvider("keyloft_test")
	require.NoError(t, err)

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "keyloft_test")
	require.NoError(t, err)

	bm.RecordOperation(context.Background(), "kms", "key_resolve", "success")
	bm.RecordOperation(context.Background(), "kms", "key_resolve", "success")
	bm.RecordOperation(context.Background(), "sshca", "user_cert_issue", "error")

	output := scrape(t, provider)
	assertMetricLine(t, output, "keyloft_test_operations_total",
		`domain="kms",operation="key_resolve",.*status="success"`, "2")
	assertMetricLine(t, output, "keyloft_test_operations_total",
		`domain="sshca",operation="user_cert_issue",.*status="error"`, "1")
}

func TestBusinessMetrics_RecordDuration(t *testing.T) {
	provider, err := NewProvider("keyloft_test")
	require.NoError(t, err)

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "keyloft_test")
	require.NoError(t, err)

	bm.RecordDuration(context.Background(), "secrets", "secret_list", 120*time.Millisecond, "success")

	output := scrape(t, provider)
	assert.Contains(t, output, "keyloft_test_operation_duration_seconds")
}

func TestBusinessMetrics_RecordCacheEvent(t *testing.T) {
	provider, err := NewProvider("keyloft_test")
	require.NoError(t, err)

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "keyloft_test")
	require.NoError(t, err)

	bm.RecordCacheEvent(context.Background(), "secrets", "hit")
	bm.RecordCacheEvent(context.Background(), "secrets", "miss")
	bm.RecordCacheEvent(context.Background(), "secrets", "hit")

	output := scrape(t, provider)
	assertMetricLine(t, output, "keyloft_test_cache_events_total",
		`domain="secrets",event="hit"`, "2")
	assertMetricLine(t, output, "keyloft_test_cache_events_total",
		`domain="secrets",event="miss"`, "1")
}

func TestNoOpBusinessMetrics(t *testing.T) {
	bm := NewNoOpBusinessMetrics()

	bm.RecordOperation(context.Background(), "kms", "key_resolve", "success")
	bm.RecordDuration(context.Background(), "kms", "key_resolve", time.Second, "success")
	bm.RecordCacheEvent(context.Background(), "secrets", "hit")
}
