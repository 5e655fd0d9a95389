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
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jkaninda/proxy-center/internal/middlewares"
)

// HealthCheckResponse represents the health check response structure
type HealthCheckResponse struct {
	Status string                     `json:"status"`
	Routes []HealthCheckRouteResponse `json:"routes,omitempty"`
	Error  string                     `json:"error,omitempty"`
}

// HealthCheckRouteResponse represents the health check response for a route
type HealthCheckRouteResponse struct {
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checkedAt"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("Failed to write response", "error", err)
	}
}

// livenessHandler reports that the process is serving.
func (gatewayServer *GatewayServer) livenessHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthCheckResponse{Status: "healthy"})
}

// readinessHandler reports whether the credential store answers.
func (gatewayServer *GatewayServer) readinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := gatewayServer.store.Ping(ctx); err != nil {
		logger.Warn("Credential store is not ready", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, HealthCheckResponse{Status: "unhealthy", Error: "credential store unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, HealthCheckResponse{Status: "healthy"})
}

// routesHealthHandler returns the last health check result of each route.
func (gatewayServer *GatewayServer) routesHealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthCheckResponse{Status: "healthy", Routes: gatewayServer.health.snapshot()})
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	middlewares.RespondWithError(w, http.StatusNotFound, "")
}
