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

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
)

// RealIP returns the originating client address, honouring X-Real-IP and X-Forwarded-For.
// With trusted proxies configured the headers are only read from trusted peers.
func RealIP(r *http.Request) string {
	if p := trustedProxies.Load(); p != nil && p.Enabled {
		return p.ClientIP(r, remoteHost(r))
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return strings.TrimSpace(ip)
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	return remoteHost(r)
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RespondWithError writes a JSON error body with statusCode. An empty message
// falls back to the status text.
func RespondWithError(w http.ResponseWriter, statusCode int, logMessage string) {
	message := http.StatusText(statusCode)
	if len(logMessage) != 0 {
		message = logMessage
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	err := json.NewEncoder(w).Encode(ProxyResponseError{
		Success: false,
		Code:    statusCode,
		Message: message,
	})
	if err != nil {
		return
	}

}
