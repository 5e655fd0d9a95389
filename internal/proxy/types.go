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

package proxy

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jkaninda/proxy-center/internal/middlewares"
	"github.com/jkaninda/proxy-center/internal/transform"
	"github.com/jkaninda/proxy-center/util"
)

// Header is a static header forced onto every request forwarded by a route.
type Header struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// HealthCheck polls a route's upstream periodically.
type HealthCheck struct {
	Path            string `yaml:"path"`
	Interval        string `yaml:"interval,omitempty"`
	Timeout         string `yaml:"timeout,omitempty"`
	HealthyStatuses []int  `yaml:"healthyStatuses,omitempty"`
}

// RouteConfig maps an inbound path prefix to an upstream service.
type RouteConfig struct {
	Name                 string                 `yaml:"name"`
	Path                 string                 `yaml:"path"`
	Target               string                 `yaml:"target"`
	Headers              []Header               `yaml:"headers,omitempty"`
	RequestFieldRenames  []transform.Rule       `yaml:"requestFieldRenames,omitempty"`
	ResponseFieldRenames []transform.Rule       `yaml:"responseFieldRenames,omitempty"`
	AuthRequired         bool                   `yaml:"authRequired"`
	RateLimit            *middlewares.RateLimit `yaml:"rateLimit,omitempty"`
	HealthCheck          *HealthCheck           `yaml:"healthCheck,omitempty"`

	targetURL *url.URL
}

// UnmarshalYAML requires authentication unless a route opts out.
func (r *RouteConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	r.AuthRequired = true
	type tmp RouteConfig
	return unmarshal((*tmp)(r))
}

// TargetURL returns the parsed upstream base URL. It is set once the route is validated.
func (r *RouteConfig) TargetURL() *url.URL {
	return r.targetURL
}

// Validate checks the route and parses its target.
func (r *RouteConfig) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("route name is required")
	}
	if r.Path == "" || !strings.HasPrefix(r.Path, "/") {
		return fmt.Errorf("route %s: path must start with '/'", r.Name)
	}
	target, err := url.Parse(r.Target)
	if err != nil {
		return fmt.Errorf("route %s: invalid target: %w", r.Name, err)
	}
	if (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		return fmt.Errorf("route %s: target must be an absolute http(s) URL, got %q", r.Name, r.Target)
	}
	for _, h := range r.Headers {
		if h.Name == "" || util.HasWhitespace(h.Name) {
			return fmt.Errorf("route %s: invalid header name %q", r.Name, h.Name)
		}
	}
	for _, rules := range [][]transform.Rule{r.RequestFieldRenames, r.ResponseFieldRenames} {
		for _, rule := range rules {
			if rule.From == "" || rule.To == "" {
				return fmt.Errorf("route %s: field renames need both from and to", r.Name)
			}
		}
	}
	if err := r.RateLimit.Validate(); err != nil {
		return fmt.Errorf("route %s: %w", r.Name, err)
	}
	if hc := r.HealthCheck; hc != nil {
		if _, err := hc.IntervalDuration(); err != nil {
			return fmt.Errorf("route %s: health check interval: %w", r.Name, err)
		}
		if _, err := hc.TimeoutDuration(); err != nil {
			return fmt.Errorf("route %s: health check timeout: %w", r.Name, err)
		}
		if !util.IsValidCronExpression(hc.Schedule()) {
			return fmt.Errorf("route %s: invalid health check interval %q", r.Name, hc.Interval)
		}
	}
	r.targetURL = target
	return nil
}

const (
	defaultHealthCheckInterval = "30s"
	defaultHealthCheckTimeout  = 5 * time.Second
)

func (hc *HealthCheck) IntervalDuration() (time.Duration, error) {
	interval := hc.Interval
	if interval == "" {
		interval = defaultHealthCheckInterval
	}
	d, err := util.ParseDuration(interval)
	if err == nil && d <= 0 {
		err = fmt.Errorf("must be positive")
	}
	return d, err
}

func (hc *HealthCheck) TimeoutDuration() (time.Duration, error) {
	d, err := util.ParseDuration(hc.Timeout)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		d = defaultHealthCheckTimeout
	}
	return d, nil
}

// Schedule returns the cron expression of the check.
func (hc *HealthCheck) Schedule() string {
	interval := hc.Interval
	if interval == "" {
		interval = defaultHealthCheckInterval
	}
	return "@every " + interval
}

// IsHealthy reports whether status counts as healthy. Without configured statuses
// anything below 400 is healthy.
func (hc *HealthCheck) IsHealthy(status int) bool {
	if len(hc.HealthyStatuses) == 0 {
		return status > 0 && status < 400
	}
	for _, s := range hc.HealthyStatuses {
		if s == status {
			return true
		}
	}
	return false
}
