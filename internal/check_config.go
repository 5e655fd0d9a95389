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
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jkaninda/proxy-center/internal/version"
)

// ConfigSummary describes what a valid configuration will run.
type ConfigSummary struct {
	Routes          int
	AuthRoutes      int
	RateLimited     int
	HealthChecked   int
	CredentialStore string
	Verification    string
	Warnings        []string
}

// CheckConfig loads and validates configFile, prints its routes and summary, and
// returns the summary.
func CheckConfig(configFile string) (*ConfigSummary, error) {
	c, err := LoadConfig(configFile)
	if err != nil {
		return nil, err
	}
	s := summarize(c)
	printRoutes(c.Gateway.Routes)
	printSummary(s)
	return s, nil
}

func summarize(c *GatewayConfig) *ConfigSummary {
	g := &c.Gateway
	s := &ConfigSummary{Routes: len(g.Routes), CredentialStore: "memory", Verification: "none"}
	for _, route := range g.Routes {
		if route.AuthRequired {
			s.AuthRoutes++
		}
		if route.RateLimit.Enabled() {
			s.RateLimited++
		}
		if route.HealthCheck != nil {
			s.HealthChecked++
		}
	}
	switch {
	case g.Auth.JwksUrl != "":
		s.Verification = "JWKS " + g.Auth.JwksUrl
	case g.Auth.Secret != "":
		s.Verification = "HS256 secret"
	}
	if g.Redis.Addr != "" {
		s.CredentialStore = "redis " + g.Redis.Addr
	} else {
		s.Warnings = append(s.Warnings, "redis.addr is empty: sessions are kept in memory and lost on restart")
		if s.RateLimited > 0 {
			s.Warnings = append(s.Warnings, fmt.Sprintf("%d route(s) declare rateLimit but rate limiting needs redis", s.RateLimited))
		}
	}
	if g.Upstream.InsecureSkipVerify {
		s.Warnings = append(s.Warnings, "upstream.insecureSkipVerify is on: upstream certificates are not verified")
	}
	if c.Version != "" && c.Version != version.ConfigVersion {
		s.Warnings = append(s.Warnings, fmt.Sprintf("config version %q, this build reads version %q", c.Version, version.ConfigVersion))
	}
	return s
}

func printSummary(s *ConfigSummary) {
	t := table.NewWriter()
	t.AppendRows([]table.Row{
		{"Routes", fmt.Sprintf("%d (%d authenticated, %d public)", s.Routes, s.AuthRoutes, s.Routes-s.AuthRoutes)},
		{"Rate limited", s.RateLimited},
		{"Health checked", s.HealthChecked},
		{"Credential store", s.CredentialStore},
		{"Token verification", s.Verification},
	})
	fmt.Println(t.Render())
}
