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

package middlewares

import "fmt"

// ProxyResponseError is the JSON body of every error produced by the gateway itself.
type ProxyResponseError struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RateLimit is the per-route request budget.
type RateLimit struct {
	RequestsPerUnit int    `yaml:"requestsPerUnit"`
	Unit            string `yaml:"unit"`
}

func (r *RateLimit) Enabled() bool {
	return r != nil && r.RequestsPerUnit > 0
}

func (r *RateLimit) Validate() error {
	if r == nil {
		return nil
	}
	if r.RequestsPerUnit < 0 {
		return fmt.Errorf("requestsPerUnit must not be negative")
	}
	switch r.Unit {
	case "", "second", "minute", "hour":
		return nil
	default:
		return fmt.Errorf("unsupported rate limit unit %q, expected second, minute or hour", r.Unit)
	}
}
