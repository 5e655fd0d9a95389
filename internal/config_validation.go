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
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/jkaninda/proxy-center/internal/proxy"
)

// ConfigError reports an invalid configuration. The gateway refuses to start with one.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Validate checks the configuration and builds nothing. Errors are *ConfigError.
func (c *GatewayConfig) Validate() error {
	g := &c.Gateway
	if _, _, err := net.SplitHostPort(g.EntryPoint); err != nil {
		return &ConfigError{Field: "gateway.entryPoint", Err: err}
	}
	if len(g.Routes) == 0 {
		return &ConfigError{Field: "gateway.routes", Err: errors.New("at least one route is required")}
	}
	if _, err := proxy.NewRouteTable(g.Routes); err != nil {
		return &ConfigError{Field: "gateway.routes", Err: err}
	}
	if g.authRequired() {
		if g.Auth.Secret == "" && g.Auth.JwksUrl == "" {
			return &ConfigError{Field: "gateway.auth.secret", Err: errors.New("a secret or jwksUrl is required when a route requires authentication")}
		}
		if g.Auth.DownstreamSecret == "" {
			return &ConfigError{Field: "gateway.auth.downstreamSecret", Err: errors.New("required when a route requires authentication")}
		}
	}
	if g.Auth.DownstreamSecret != "" && g.Auth.DownstreamSecret == g.Auth.Secret {
		return &ConfigError{Field: "gateway.auth.downstreamSecret", Err: errors.New("must differ from the session secret")}
	}
	if strings.TrimSpace(g.Auth.DownstreamHeader) == "" || strings.ContainsAny(g.Auth.DownstreamHeader, " \t:") {
		return &ConfigError{Field: "gateway.auth.downstreamHeader", Err: fmt.Errorf("invalid header name %q", g.Auth.DownstreamHeader)}
	}
	if d, err := time.ParseDuration(g.Auth.DownstreamTTL); err != nil || d <= 0 {
		return &ConfigError{Field: "gateway.auth.downstreamTTL", Err: fmt.Errorf("invalid duration %q", g.Auth.DownstreamTTL)}
	}
	if g.Auth.MaxTokensPerUser <= 0 {
		return &ConfigError{Field: "gateway.auth.maxTokensPerUser", Err: errors.New("must be positive")}
	}
	if g.Upstream.Timeout <= 0 {
		return &ConfigError{Field: "gateway.upstream.timeout", Err: errors.New("must be positive")}
	}
	if err := g.Proxy.Init(); err != nil {
		return &ConfigError{Field: "gateway.proxy.trustedProxies", Err: err}
	}
	if g.Monitoring.EnableMetrics && !strings.HasPrefix(g.Monitoring.MetricsPath, "/") {
		return &ConfigError{Field: "gateway.monitoring.metricsPath", Err: errors.New("must start with '/'")}
	}
	return nil
}
