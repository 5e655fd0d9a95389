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
	"time"

	"github.com/jkaninda/proxy-center/internal/auth"
	"github.com/jkaninda/proxy-center/internal/config"
	"github.com/jkaninda/proxy-center/internal/proxy"
	"github.com/jkaninda/proxy-center/internal/store"
)

// GatewayConfig is the root of the configuration file.
type GatewayConfig struct {
	Version string  `yaml:"version"`
	Gateway Gateway `yaml:"gateway"`
}

// Gateway contains the configuration options for the gateway.
type Gateway struct {
	// EntryPoint is the listen address of the HTTP server.
	EntryPoint string `yaml:"entryPoint,omitempty"`
	// Timeouts defines server timeouts in seconds
	Timeouts Timeouts `yaml:"timeouts,omitempty"`
	// Log defines the logging config
	Log Log `yaml:"log,omitempty"`
	// Redis holds the credential store connection. Without an address an
	// in-memory store is used.
	Redis RedisConfig `yaml:"redis,omitempty"`
	// Monitoring grouped monitoring and diagnostics configuration
	Monitoring Monitoring `yaml:"monitoring,omitempty"`
	Auth       AuthConfig `yaml:"auth,omitempty"`
	Upstream   Upstream   `yaml:"upstream,omitempty"`
	// Proxy lists the load balancers allowed to announce client addresses.
	Proxy config.ProxyConfig `yaml:"proxy,omitempty"`
	// Watch reloads routes when the configuration file changes.
	Watch bool `yaml:"watch,omitempty"`
	// Routes defines the list of proxy routes. The first matching route wins.
	Routes []proxy.RouteConfig `yaml:"routes"`
}

type Timeouts struct {
	Write int `yaml:"write"`
	Read  int `yaml:"read"`
	Idle  int `yaml:"idle"`
}

type Log struct {
	// Level defines the logging level (e.g., info, debug, off).
	Level string `yaml:"level,omitempty"`
	// FilePath specifies the file path for logs, default Stdout.
	FilePath string `yaml:"filePath,omitempty"`
	// Format defines the logging format (eg. text, json)
	Format string `yaml:"format,omitempty"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr,omitempty"`
	Password  string `yaml:"password,omitempty"`
	DB        int    `yaml:"db,omitempty"`
	KeyPrefix string `yaml:"keyPrefix,omitempty"`
}

// Monitoring defines the observability and health-related configuration.
type Monitoring struct {
	EnableMetrics bool   `yaml:"enableMetrics,omitempty"`
	MetricsPath   string `yaml:"metricsPath,omitempty"`
}

type AuthConfig struct {
	// Secret verifies inbound HS256 session tokens.
	Secret string `yaml:"secret,omitempty"`
	// JwksUrl verifies inbound RS/ES session tokens. It takes precedence over Secret.
	JwksUrl    string `yaml:"jwksUrl,omitempty"`
	CookieName string `yaml:"cookieName,omitempty"`
	// DownstreamSecret signs the credential attached to forwarded requests.
	DownstreamSecret string `yaml:"downstreamSecret,omitempty"`
	DownstreamHeader string `yaml:"downstreamHeader,omitempty"`
	DownstreamTTL    string `yaml:"downstreamTTL,omitempty"`
	MaxTokensPerUser int    `yaml:"maxTokensPerUser,omitempty"`
}

type Upstream struct {
	InsecureSkipVerify bool `yaml:"insecureSkipVerify,omitempty"`
	// Timeout in seconds for connecting to and completing an upstream call.
	Timeout int `yaml:"timeout,omitempty"`
}

func (g *Gateway) UnmarshalYAML(unmarshal func(interface{}) error) error {
	g.setDefaults()
	type tmp Gateway
	return unmarshal((*tmp)(g))
}

func (g *Gateway) setDefaults() {
	g.EntryPoint = defaultEntryPoint
	g.Timeouts = Timeouts{Write: 60, Read: 30, Idle: 90}
	g.Log = Log{Level: "info", Format: "text"}
	g.Redis.KeyPrefix = store.DefaultKeyPrefix
	g.Monitoring.MetricsPath = defaultMetricsPath
	g.Auth = AuthConfig{
		CookieName:       auth.DefaultCookieName,
		DownstreamHeader: auth.DefaultDownstreamHeader,
		DownstreamTTL:    auth.DefaultDownstreamTTL.String(),
		MaxTokensPerUser: store.DefaultMaxTokensPerUser,
	}
	g.Upstream.Timeout = 30
}

// authRequired reports whether any route needs credentials.
func (g *Gateway) authRequired() bool {
	for _, route := range g.Routes {
		if route.AuthRequired {
			return true
		}
	}
	return false
}

func (g *Gateway) downstreamTTL() time.Duration {
	d, err := time.ParseDuration(g.Auth.DownstreamTTL)
	if err != nil || d <= 0 {
		return auth.DefaultDownstreamTTL
	}
	return d
}
