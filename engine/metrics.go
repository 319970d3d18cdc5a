// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type engineMetrics struct {
	invocations        *prometheus.CounterVec
	denied             *prometheus.CounterVec
	invocationDuration *prometheus.HistogramVec
}

func (m *engineMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.invocations = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forge_contract_invocations_total",
			Help: "contract invocations by operation and result",
		},
		[]string{"operation", "result"},
	)
	m.denied = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forge_contract_denied_total",
			Help: "contract invocations rejected by a precondition",
		},
		[]string{"operation", "reason"},
	)
	m.invocationDuration = promautoFactory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forge_contract_invocation_duration_seconds",
			Help:    "time spent executing and committing an invocation",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		},
		[]string{"operation"},
	)
}
