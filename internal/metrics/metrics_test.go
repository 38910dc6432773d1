package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveCharge(t *testing.T) {
	m := New()
	m.ObserveCharge("trending_hashtags", "ok", 3)
	m.ObserveCharge("trending_hashtags", "insufficient_credits", 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.MeteredRequestsTotal.WithLabelValues("trending_hashtags", "ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.CreditsDebitedTotal.WithLabelValues("trending_hashtags")))
}

func TestObserveProvider(t *testing.T) {
	m := New()
	m.ObserveProvider("openai", 200*time.Millisecond, nil)
	m.ObserveProvider("openai", time.Second, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRequestsTotal.WithLabelValues("openai", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ProviderRequestDuration))
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New()
	m.ObserveWebhook("checkout.session.completed", "applied")
	m.ObserveHTTP(http.MethodPost, "/hashtags", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `creatorhub_webhook_events_total{outcome="applied",type="checkout.session.completed"} 1`)
	assert.Contains(t, rec.Body.String(), "creatorhub_http_requests_total")
}

func TestObserveInteractionDropped(t *testing.T) {
	m := New()
	m.ObserveInteractionDropped()
	m.ObserveInteractionDropped()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.InteractionsDropped))
}
