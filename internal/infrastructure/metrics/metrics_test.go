package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-group-relay/internal/infrastructure/hub"
)

func TestHubMetrics_MembershipChanged(t *testing.T) {
	m := NewHubMetrics(prometheus.NewRegistry())

	m.MembershipChanged(3, 7)

	assert.Equal(t, float64(3), testutil.ToFloat64(m.Groups))
	assert.Equal(t, float64(7), testutil.ToFloat64(m.Connections))
}

func TestHubMetrics_BroadcastCompleted(t *testing.T) {
	m := NewHubMetrics(prometheus.NewRegistry())

	m.BroadcastCompleted(&hub.DeliveryReport{
		GroupID:   "lobby",
		Attempted: 4,
		Delivered: 2,
		Failures: []hub.DeliveryFailure{
			{ConnectionID: "a", Err: hub.ErrConnectionClosed, Permanent: true},
			{ConnectionID: "b", Err: errors.New("timeout")},
		},
	}, 10*time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Broadcasts))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Deliveries.WithLabelValues(OutcomeDelivered)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Deliveries.WithLabelValues(OutcomePermanent)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Deliveries.WithLabelValues(OutcomeTransient)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.BroadcastDuration))
}

func TestHandler_ServesRegisteredMetrics(t *testing.T) {
	reg := NewRegistry()
	m := NewHubMetrics(reg)
	m.MembershipChanged(1, 1)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "group_relay_registry_groups 1")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
