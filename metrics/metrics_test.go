package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tagstream/parser"
)

func TestObserveParse(t *testing.T) {
	m := New()

	m.ObserveParse(parser.Parse("<think>a</think><think>b", true), time.Millisecond)
	m.ObserveParse(parser.Parse("<think>a</think><think>b", false), time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.parses.WithLabelValues("true")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.parses.WithLabelValues("false")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.tags.WithLabelValues("think", "finished")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.tags.WithLabelValues("think", "pending")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.tags.WithLabelValues("think", "aborted")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.syntheticCloses.WithLabelValues("think")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveParse(parser.Parse("x", true), 0)
	m.ObserveChunk()
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveChunk()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "tagstream_stream_chunks_total 1"))
}
