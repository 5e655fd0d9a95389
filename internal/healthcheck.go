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
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/jkaninda/proxy-center/internal/proxy"
	"github.com/jkaninda/proxy-center/internal/version"
	"github.com/robfig/cron/v3"
)

// routeHealth runs the periodic upstream checks of routes declaring a healthCheck and
// keeps the last result of each.
type routeHealth struct {
	mu      sync.RWMutex
	results map[string]HealthCheckRouteResponse
	client  *http.Client
	cancel  context.CancelFunc
}

func newRouteHealth(insecureSkipVerify bool) *routeHealth {
	return &routeHealth{
		results: make(map[string]HealthCheckRouteResponse),
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				TLSClientConfig: &tls.Config{InsecureSkipVerify: insecureSkipVerify},
			},
		},
	}
}

// check performs a single GET against the route health endpoint.
func (h *routeHealth) check(ctx context.Context, route proxy.RouteConfig) error {
	hc := route.HealthCheck
	timeout, err := hc.TimeoutDuration()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, route.TargetURL().JoinPath(hc.Path).String(), nil)
	if err != nil {
		return fmt.Errorf("creating health check request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("performing health check request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	if !hc.IsHealthy(resp.StatusCode) {
		return fmt.Errorf("health check failed with status code %d", resp.StatusCode)
	}
	return nil
}

func (h *routeHealth) record(ctx context.Context, route proxy.RouteConfig) {
	result := HealthCheckRouteResponse{Name: route.Name, Status: "healthy"}
	if err := h.check(ctx, route); err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.Error("Route is unhealthy", "route", route.Name, "error", err)
		result.Status = "unhealthy"
		result.Error = err.Error()
	} else {
		logger.Debug("Route is healthy", "route", route.Name)
	}
	result.CheckedAt = time.Now().UTC()
	h.save(ctx, result)
}

// save keeps result unless the run that produced it was superseded. start cancels
// under the lock, so a stale run never writes into the new map.
func (h *routeHealth) save(ctx context.Context, result HealthCheckRouteResponse) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	h.results[result.Name] = result
}

// start replaces any running schedule with one for routes.
func (h *routeHealth) start(ctx context.Context, routes []proxy.RouteConfig) {
	ctx, cancel := context.WithCancel(ctx)
	h.mu.Lock()
	if h.cancel != nil {
		h.cancel()
	}
	h.cancel = cancel
	h.results = make(map[string]HealthCheckRouteResponse)
	h.mu.Unlock()
	go h.run(ctx, routes)
}

func (h *routeHealth) run(ctx context.Context, routes []proxy.RouteConfig) {
	c := cron.New()
	jobs := 0
	for _, route := range routes {
		if route.HealthCheck == nil {
			continue
		}
		_, err := c.AddFunc(route.HealthCheck.Schedule(), func() { h.record(ctx, route) })
		if err != nil {
			logger.Error("Error creating healthcheck job", "route", route.Name, "error", err)
			continue
		}
		jobs++
		go h.record(ctx, route)
	}
	if jobs == 0 {
		return
	}
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	logger.Debug("Route health checks stopped", "jobs", jobs)
}

// snapshot returns the last results ordered by route name.
func (h *routeHealth) snapshot() []HealthCheckRouteResponse {
	h.mu.RLock()
	defer h.mu.RUnlock()
	routes := make([]HealthCheckRouteResponse, 0, len(h.results))
	for _, r := range h.results {
		routes = append(routes, r)
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i].Name < routes[j].Name })
	return routes
}
