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

package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type ledgerMetrics struct {
	minted      prometheus.Counter
	burned      prometheus.Counter
	transferred prometheus.Counter
	totalSupply prometheus.Gauge
}

func (m *ledgerMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.minted = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "forge_ledger_minted_total",
		Help: "minimal units minted, including the genesis supply",
	})
	m.burned = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "forge_ledger_burned_total",
		Help: "minimal units burned",
	})
	m.transferred = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "forge_ledger_transferred_total",
		Help: "minimal units moved between accounts",
	})
	m.totalSupply = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "forge_ledger_total_supply",
		Help: "current total supply in minimal units",
	})
}
