package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_CountersAndHandler(t *testing.T) {
	m := New("")
	m.QuotesTotal.WithLabelValues(OutcomeOK).Inc()
	m.QuotesTotal.WithLabelValues(OutcomeOK).Inc()
	m.AuditWriteFailures.Inc()

	require.Equal(t, 2.0, testutil.ToFloat64(m.QuotesTotal.WithLabelValues(OutcomeOK)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.AuditWriteFailures))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	require.Contains(t, string(body), "quotebox_quotes_total")
}
