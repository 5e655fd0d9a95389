/*
 * Copyright 2024 Jonas Kaninda
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics holds all Prometheus metrics
type PrometheusMetrics struct {
	TotalRequests   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	UpstreamErrors  *prometheus.CounterVec
	AuthRejections  *prometheus.CounterVec
}

// NewPrometheusMetrics registers the gateway collectors with reg.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		TotalRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "proxy_center_requests_total",
				Help: "Total number of proxied requests",
			},
			[]string{"route", "method", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "proxy_center_request_duration_seconds",
				Help:    "Duration of proxied requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		UpstreamErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "proxy_center_upstream_errors_total",
				Help: "Total number of failed upstream calls",
			},
			[]string{"route"},
		),
		AuthRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "proxy_center_auth_rejections_total",
				Help: "Total number of requests rejected with 401",
			},
			[]string{"route"},
		),
	}
}

// ObserveRequest records a completed proxied request. A nil receiver is a no-op.
func (m *PrometheusMetrics) ObserveRequest(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.TotalRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

func (m *PrometheusMetrics) UpstreamError(route string) {
	if m == nil {
		return
	}
	m.UpstreamErrors.WithLabelValues(route).Inc()
}

func (m *PrometheusMetrics) AuthRejected(route string) {
	if m == nil {
		return
	}
	m.AuthRejections.WithLabelValues(route).Inc()
}
