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
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRoute(t *testing.T, target string) *RouteConfig {
	t.Helper()
	route := &RouteConfig{Name: "r", Path: "/r", Target: target, Headers: []Header{{Name: "X-Static", Value: "1"}}}
	require.NoError(t, route.Validate())
	return route
}

func TestOutboundHeader(t *testing.T) {
	d := NewDispatcher(DispatcherOptions{})
	in := httptest.NewRequest(http.MethodGet, "http://gw.example/r/x", nil)
	in.Header.Set("Connection", "keep-alive, X-Hop")
	in.Header.Set("X-Hop", "drop me")
	in.Header.Set("Keep-Alive", "timeout=5")
	in.Header.Set("Authorization", "Bearer t")
	in.Header.Set("X-Static", "caller")
	in.Header.Set("X-Custom", "kept")
	in.Header.Set("X-Forwarded-For", "203.0.113.1")

	h := d.outboundHeader(&OutboundRequest{Route: validRoute(t, "http://up.internal"), Inbound: in, Credential: "cred"})
	assert.Empty(t, h.Get("Connection"))
	assert.Empty(t, h.Get("X-Hop"))
	assert.Empty(t, h.Get("Keep-Alive"))
	assert.Empty(t, h.Get("Authorization"))
	assert.Equal(t, "1", h.Get("X-Static"))
	assert.Equal(t, "kept", h.Get("X-Custom"))
	assert.Equal(t, "cred", h.Get("AdminAuthorization"))
	assert.Equal(t, "203.0.113.1, 192.0.2.1", h.Get("X-Forwarded-For"))
	assert.Equal(t, "gw.example", h.Get("X-Forwarded-Host"))
	assert.Equal(t, "http", h.Get("X-Forwarded-Proto"))
	assert.Equal(t, "0", h.Get("Expires"))

	assert.Equal(t, "kept", in.Header.Get("X-Custom"))
	assert.Equal(t, "Bearer t", in.Header.Get("Authorization"), "inbound headers are not mutated")
}

func TestCheckRedirectDropsCredentialAcrossHosts(t *testing.T) {
	d := NewDispatcher(DispatcherOptions{CredentialHeader: "X-Cred"})
	first := httptest.NewRequest(http.MethodGet, "http://a.internal/x", nil)

	same := httptest.NewRequest(http.MethodGet, "http://a.internal/y", nil)
	same.Header.Set("X-Cred", "c")
	require.NoError(t, d.checkRedirect(same, []*http.Request{first}))
	assert.Equal(t, "c", same.Header.Get("X-Cred"))

	other := httptest.NewRequest(http.MethodGet, "http://b.internal/y", nil)
	other.Header.Set("X-Cred", "c")
	require.NoError(t, d.checkRedirect(other, []*http.Request{first}))
	assert.Empty(t, other.Header.Get("X-Cred"))

	via := make([]*http.Request, maxRedirects)
	for i := range via {
		via[i] = first
	}
	assert.Error(t, d.checkRedirect(same, via))
}

func TestDispatchWrapsFailures(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	target := srv.URL
	srv.Close()

	d := NewDispatcher(DispatcherOptions{})
	in := httptest.NewRequest(http.MethodGet, "/r", nil)
	_, err := d.Dispatch(context.Background(), &OutboundRequest{Route: validRoute(t, target), Inbound: in, ContentLength: -1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamUnreachable)
	var uerr *UpstreamError
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, "r", uerr.Route)
	assert.NotContains(t, uerr.Message(), target)
}
