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

package internal

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jkaninda/proxy-center/internal/middlewares"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler builds the HTTP handler. The gateway's own endpoints are matched first; every
// other request goes through the proxy, and requests no route matches get a 404.
func (gatewayServer *GatewayServer) Handler() http.Handler {
	r := mux.NewRouter()
	// Proxied paths are forwarded as received.
	r.SkipClean(true)
	r.HandleFunc("/healthz", gatewayServer.livenessHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", gatewayServer.readinessHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/healthz/routes", gatewayServer.routesHealthHandler).Methods(http.MethodGet)
	if gatewayServer.gateway.Monitoring.EnableMetrics {
		r.Handle(gatewayServer.gateway.Monitoring.MetricsPath, promhttp.HandlerFor(gatewayServer.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	r.NotFoundHandler = gatewayServer.proxy.Middleware(http.HandlerFunc(notFoundHandler))
	r.MethodNotAllowedHandler = r.NotFoundHandler
	return middlewares.RequestIDMiddleware(r)
}
