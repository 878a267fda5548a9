package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectorRecordsCounters(t *testing.T) {
	c := NewCollector()

	before := testutil.ToFloat64(AuthenticationTotal.WithLabelValues("basic", "true"))
	c.RecordAuthentication("basic", true)
	assert.Equal(t, before+1, testutil.ToFloat64(AuthenticationTotal.WithLabelValues("basic", "true")))

	before = testutil.ToFloat64(LoginFailuresTotal.WithLabelValues("invalid_credentials"))
	c.RecordLoginFailure("invalid_credentials")
	assert.Equal(t, before+1, testutil.ToFloat64(LoginFailuresTotal.WithLabelValues("invalid_credentials")))

	before = testutil.ToFloat64(ProviderSwitchTotal.WithLabelValues("dummy"))
	c.RecordProviderSwitch("dummy")
	assert.Equal(t, before+1, testutil.ToFloat64(ProviderSwitchTotal.WithLabelValues("dummy")))

	before = testutil.ToFloat64(ProviderCallsTotal.WithLabelValues("zosmf", "unavailable"))
	c.RecordProviderCall("zosmf", "unavailable", 20*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(ProviderCallsTotal.WithLabelValues("zosmf", "unavailable")))

	before = testutil.ToFloat64(RequestsTotal.WithLabelValues(http.MethodPost, "login", "No Content"))
	c.RecordRequest(http.MethodPost, "login", http.StatusNoContent, time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(RequestsTotal.WithLabelValues(http.MethodPost, "login", "No Content")))
}

func TestRecordRequestBoundsMethod(t *testing.T) {
	c := NewCollector()

	before := testutil.ToFloat64(RequestsTotal.WithLabelValues(MethodOther, RouteUnmatched, "Not Found"))
	c.RecordRequest("BREW", RouteUnmatched, http.StatusNotFound, time.Millisecond)
	c.RecordRequest("PROPFIND", RouteUnmatched, http.StatusNotFound, time.Millisecond)
	assert.Equal(t, before+2, testutil.ToFloat64(RequestsTotal.WithLabelValues(MethodOther, RouteUnmatched, "Not Found")))
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordAuthentication("body", false)
		c.RecordLoginFailure("malformed_request")
		c.RecordProviderSwitch("dummy")
		c.RecordProviderCall("dummy", "ok", 0)
		c.RecordRequest(http.MethodGet, "/", http.StatusOK, 0)
	})
}
