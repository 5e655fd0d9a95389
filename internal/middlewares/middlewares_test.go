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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jkaninda/proxy-center/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithError(rec, http.StatusUnauthorized, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body ProxyResponseError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, ProxyResponseError{Success: false, Code: 401, Message: "Unauthorized"}, body)
}

func TestRealIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", RealIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", RealIP(r))

	r.Header.Set("X-Real-IP", "198.51.100.4")
	assert.Equal(t, "198.51.100.4", RealIP(r))
}

func TestRealIPTrustedProxies(t *testing.T) {
	p := &config.ProxyConfig{Enabled: true, TrustedProxies: []string{"10.0.0.0/8"}}
	require.NoError(t, p.Init())
	SetTrustedProxies(p)
	defer SetTrustedProxies(nil)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.9")
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "203.0.113.9", RealIP(r))
	r.RemoteAddr = "192.0.2.7:5555"
	assert.Equal(t, "192.0.2.7", RealIP(r))
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	const inbound = "0b6f5a0c-8a51-4b4e-9a77-3f1d1f3d2b10"
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(RequestIDHeader, inbound)
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.Equal(t, inbound, seen)

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(RequestIDHeader, "not a uuid")
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.NotEqual(t, "not a uuid", seen)
}

func TestRateLimitValidate(t *testing.T) {
	assert.NoError(t, (&RateLimit{RequestsPerUnit: 10, Unit: "minute"}).Validate())
	assert.NoError(t, (*RateLimit)(nil).Validate())
	assert.Error(t, (&RateLimit{RequestsPerUnit: 10, Unit: "day"}).Validate())
	assert.Error(t, (&RateLimit{RequestsPerUnit: -1}).Validate())
	assert.False(t, (*RateLimit)(nil).Enabled())
	assert.False(t, (&RateLimit{}).Enabled())
}
