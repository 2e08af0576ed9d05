// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
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

package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metric names and labels per SPEC_FULL.md's METRICS section, adapted from
// the teacher's telemetry/churn Prometheus wiring.
var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pushgateway_requests_total",
		Help: "Total requests handled, by route and outcome.",
	}, []string{"route", "outcome"})

	sendDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pushgateway_send_duration_seconds",
		Help:    "Gateway Send latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	rateLimitNotificationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pushgateway_rate_limit_notifications_total",
		Help: "Total one-shot rate-limit pushes sent.",
	})

	storeErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pushgateway_store_errors_total",
		Help: "Total RateLimitStore failures by operation.",
	}, []string{"op"})
)

func init() {
	prometheus.MustRegister(requestsTotal, sendDurationSeconds, rateLimitNotificationsTotal, storeErrorsTotal)
}

// requestAccumulator batches RecordRequest's hot-path increment through the
// mutex-guarded Accumulator instead of touching requestsTotal on every
// request; see accumulator.go.
var requestAccumulator = NewAccumulator(500 * time.Millisecond)

// Outcome values for the "outcome" label of pushgateway_requests_total.
const (
	OutcomeOK           = "ok"
	OutcomeRateLimited  = "rate_limited"
	OutcomeRejectedToken = "rejected_token"
	OutcomeError        = "error"
)

// StoreOp values for the "op" label of pushgateway_store_errors_total.
const (
	StoreOpRead             = "read"
	StoreOpIncrementAttempt = "increment_attempt"
	StoreOpRecordSuccess    = "record_success"
	StoreOpRecordError      = "record_error"
)

// RecordRequest bumps the in-memory (route, outcome) counter for a
// completed request. The increment itself never touches requestsTotal
// directly — requestAccumulator periodically flushes the accumulated delta
// into it, collapsing Prometheus-counter contention under heavy concurrent
// traffic to the same route/outcome pair.
func RecordRequest(route, outcome string) {
	requestAccumulator.Record(route, outcome)
}

// ObserveSendDuration records how long a gateway Send call for route took.
func ObserveSendDuration(route string, d time.Duration) {
	sendDurationSeconds.WithLabelValues(route).Observe(d.Seconds())
}

// RecordRateLimitNotification increments the one-shot-push counter.
func RecordRateLimitNotification() {
	rateLimitNotificationsTotal.Inc()
}

// RecordStoreError increments the store-failure counter for op.
func RecordStoreError(op string) {
	storeErrorsTotal.WithLabelValues(op).Inc()
}

// MetricsHandler exposes the registered collectors on SPEC_FULL.md's
// opt-in /metrics endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
