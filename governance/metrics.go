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

package governance

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type registryMetrics struct {
	votesCast       prometheus.Counter
	votersEnrolled  prometheus.Counter
	locationsPosted prometheus.Counter
	locationCount   prometheus.Gauge
}

func (m *registryMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.votesCast = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "forge_governance_votes_total",
		Help: "votes cast",
	})
	m.votersEnrolled = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "forge_governance_voters_enrolled_total",
		Help: "successful voter enrollments",
	})
	m.locationsPosted = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "forge_governance_locations_posted_total",
		Help: "locations posted",
	})
	m.locationCount = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "forge_governance_location_count",
		Help: "number of registered locations",
	})
}
