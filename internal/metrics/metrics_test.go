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
)

func TestObserveRequest(t *testing.T) {
	m := New()

	m.ObserveRequest("/v1/encode", 200, time.Millisecond)
	m.ObserveRequest("/v1/encode", 200, time.Millisecond)
	m.ObserveRequest("/v1/encode", 422, time.Millisecond)
	m.ObserveRequest("", 404, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("/v1/encode", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/v1/encode", "422")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("unmatched", "404")))
}

func TestAddTokens(t *testing.T) {
	m := New()
	m.AddTokens("encode", 5)
	m.AddTokens("encode", 3)
	m.AddTokens("decode", 2)

	assert.Equal(t, 8.0, testutil.ToFloat64(m.tokens.WithLabelValues("encode")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.tokens.WithLabelValues("decode")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.SetVocabulary("Hastings", "abc", 32768)
	m.AddTokens("encode", 1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `hastings_vocabulary_size{fingerprint="abc",name="Hastings"} 32768`), body)
	assert.Contains(t, body, `hastings_tokens_total{op="encode"} 1`)
}

func TestNew_Independent(t *testing.T) {
	a, b := New(), New()
	a.AddTokens("encode", 1)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.tokens.WithLabelValues("encode")))
}
