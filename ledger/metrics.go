// Copyright (c) 2026 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import "github.com/vechain/stakepool/metrics"

var (
	metricOpCount    = metrics.LazyLoadCounterVec("ledger_op_count", []string{"op", "result"})
	metricOpDuration = metrics.LazyLoadHistogramVec("ledger_op_duration_ms", []string{"op"}, metrics.BucketExecution)
	metricHead       = metrics.LazyLoadGauge("ledger_head_seq")
)
