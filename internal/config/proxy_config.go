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

package config

import (
	"fmt"
	"net/http"
	"net/netip"
	"strings"
)

// ProxyConfig restricts which peers may set client address headers. When disabled the
// headers are always honoured.
type ProxyConfig struct {
	Enabled bool `yaml:"enabled,omitempty"`
	// TrustedProxies lists CIDRs or single addresses of load balancers in front of the gateway.
	TrustedProxies []string `yaml:"trustedProxies,omitempty"`
	// IPHeaders is the header order of trust.
	IPHeaders []string `yaml:"ipHeaders,omitempty"`
	prefixes  []netip.Prefix
}

// Init parses TrustedProxies. It must be called before the config is shared.
func (p *ProxyConfig) Init() error {
	if !p.Enabled {
		return nil
	}
	p.prefixes = make([]netip.Prefix, 0, len(p.TrustedProxies))
	for _, entry := range p.TrustedProxies {
		entry = strings.TrimSpace(entry)
		if !strings.Contains(entry, "/") {
			addr, err := netip.ParseAddr(entry)
			if err != nil {
				return fmt.Errorf("trusted proxy %q: %w", entry, err)
			}
			p.prefixes = append(p.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(entry)
		if err != nil {
			return fmt.Errorf("trusted proxy %q: %w", entry, err)
		}
		p.prefixes = append(p.prefixes, prefix.Masked())
	}
	if len(p.IPHeaders) == 0 {
		p.IPHeaders = []string{"X-Forwarded-For", "X-Real-IP"}
	}
	return nil
}

// IsTrustedSource checks whether ip belongs to a trusted proxy.
func (p *ProxyConfig) IsTrustedSource(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range p.prefixes {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP returns the address announced by a trusted peer in the first populated
// IPHeaders entry, or peer itself.
func (p *ProxyConfig) ClientIP(r *http.Request, peer string) string {
	if !p.IsTrustedSource(peer) {
		return peer
	}
	for _, name := range p.IPHeaders {
		value := r.Header.Get(name)
		if value == "" {
			continue
		}
		first, _, _ := strings.Cut(value, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return peer
}
