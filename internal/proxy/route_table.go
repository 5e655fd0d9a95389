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
	"strings"
)

// RouteTable is an immutable, ordered set of validated routes.
type RouteTable struct {
	routes []RouteConfig
}

// NewRouteTable validates routes and freezes them in declaration order.
func NewRouteTable(routes []RouteConfig) (*RouteTable, error) {
	table := &RouteTable{routes: make([]RouteConfig, len(routes))}
	names := make(map[string]struct{}, len(routes))
	for i, route := range routes {
		if err := route.Validate(); err != nil {
			return nil, err
		}
		if _, dup := names[route.Name]; dup {
			return nil, fmt.Errorf("duplicate route name %q", route.Name)
		}
		names[route.Name] = struct{}{}
		table.routes[i] = route
	}
	return table, nil
}

// Match returns the first route, in declaration order, whose path prefix is a
// prefix of path. path is the escaped request path without the query string.
func (t *RouteTable) Match(path string) (*RouteConfig, bool) {
	if t == nil {
		return nil, false
	}
	for i := range t.routes {
		if strings.HasPrefix(path, t.routes[i].Path) {
			return &t.routes[i], true
		}
	}
	return nil, false
}

// Routes returns a copy of the routes.
func (t *RouteTable) Routes() []RouteConfig {
	if t == nil {
		return nil
	}
	out := make([]RouteConfig, len(t.routes))
	copy(out, t.routes)
	return out
}

func (t *RouteTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.routes)
}
