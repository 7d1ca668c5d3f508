// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopMetrics(t *testing.T) {
	assert.Nil(t, defaultNoopMetrics().GetOrCreateHandler())
	// noop meters accept everything
	n := defaultNoopMetrics()
	n.GetOrCreateCountMeter("c").Add(1)
	n.GetOrCreateCountVecMeter("cv", []string{"a"}).AddWithLabel(1, map[string]string{"a": "b"})
	n.GetOrCreateGaugeMeter("g").Set(1)
	n.GetOrCreateHistogramVecMeter("h", []string{"a"}, BucketExecution).ObserveWithLabels(1, map[string]string{"a": "b"})
}

func TestPrometheusMetrics(t *testing.T) {
	InitializePrometheusMetrics()
	t.Cleanup(func() { metrics = defaultNoopMetrics() })

	ops := LazyLoadCounterVec("test_ops_count", []string{"op"})
	ops().AddWithLabel(2, map[string]string{"op": "pools.deposit"})
	// same name yields the same meter
	assert.Equal(t, ops(), CounterVec("test_ops_count", []string{"op"}))

	LazyLoadGauge("test_gauge")().Set(7)
	LazyLoadCounter("test_counter")().Add(1)
	LazyLoadHistogramVec("test_latency_ms", []string{"op"}, BucketExecution)().
		ObserveWithLabels(3, map[string]string{"op": "pools.deposit"})

	srv := httptest.NewServer(HTTPHandler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `stakepool_test_ops_count{op="pools.deposit"} 2`)
	assert.Contains(t, string(body), "stakepool_test_gauge 7")
	assert.Contains(t, string(body), "stakepool_test_latency_ms_bucket")
}
