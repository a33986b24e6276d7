package stats

import (
	"expvar"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// expvar map names are process-global, so the package shares one
// updater across subtests.
func TestStatsUpdater(t *testing.T) {
	mux := http.NewServeMux()
	su := NewStatsUpdater(mux)
	require.NotNil(t, su, "expected StatsUpdater to be non-nil")
	require.NotNil(t, su.updateChan, "expected updateChan to be initialized")

	t.Run("registers the debug vars handler", func(t *testing.T) {
		handler, pattern := mux.Handler(&http.Request{URL: &url.URL{Path: "/debug/vars"}, Method: http.MethodGet})
		assert.NotNil(t, handler, "expected handler for /debug/vars to be set")
		assert.Equal(t, "GET /debug/vars", pattern, "expected handler to be registered for GET method on /debug/vars")
	})

	t.Run("registered metrics start at zero", func(t *testing.T) {
		su.RegisterMetric("ParticipantTouchFailures")
		su.RegisterMetric("ActiveConnections")

		metric, ok := su.vars.Get("ParticipantTouchFailures").(*expvar.Int)
		require.True(t, ok, "expected ParticipantTouchFailures to be an int metric")
		assert.Zero(t, metric.Value())
	})

	t.Run("applies increments and decrements", func(t *testing.T) {
		su.Run()
		defer su.Stop()

		su.Incr("ParticipantTouchFailures")
		su.Incr("ParticipantTouchFailures")
		su.Incr("ActiveConnections")
		su.Decr("ActiveConnections")

		counterIs := func(name string, want int64) func() bool {
			return func() bool {
				return su.vars.Get(name).(*expvar.Int).Value() == want
			}
		}

		assert.Eventually(t, counterIs("ParticipantTouchFailures", 2), time.Second, 10*time.Millisecond,
			"expected ParticipantTouchFailures to reach 2")
		assert.Eventually(t, counterIs("ActiveConnections", 0), time.Second, 10*time.Millisecond,
			"expected ActiveConnections to return to 0")
	})
}
