package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics_FlowLifecycle(t *testing.T) {
	m := New()

	m.FlowStarted("mint")
	out := scrape(t, m)
	assert.Contains(t, out, `xnftctl_flows_in_flight{op="mint"} 1`)

	m.FlowFinished("mint", ResultSuccess, 1500*time.Millisecond)
	m.FlowStarted("supply")
	m.FlowFinished("supply", ResultError, 10*time.Millisecond)
	m.StaleDiscarded("supply")

	out = scrape(t, m)
	assert.Contains(t, out, `xnftctl_flows_in_flight{op="mint"} 0`)
	assert.Contains(t, out, `xnftctl_flows_total{op="mint",result="success"} 1`)
	assert.Contains(t, out, `xnftctl_flows_total{op="supply",result="error"} 1`)
	assert.Contains(t, out, `xnftctl_flow_duration_seconds_count{op="mint"} 1`)
	assert.Contains(t, out, `xnftctl_stale_responses_total{op="supply"} 1`)
	assert.Contains(t, out, "go_goroutines")
}

func TestNop(t *testing.T) {
	var r Recorder = Nop{}
	r.FlowStarted("x")
	r.FlowFinished("x", ResultSuccess, time.Second)
	r.StaleDiscarded("x")
}
