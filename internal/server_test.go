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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jkaninda/proxy-center/internal/proxy"
	"github.com/jkaninda/proxy-center/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const serverConfig = `version: "1"
gateway:
  log:
    level: "off"
  monitoring:
    enableMetrics: true
  auth:
    secret: session-secret
    downstreamSecret: downstream-secret
  routes:
    - name: orders
      path: /orders
      target: %[1]s/api
      responseFieldRenames:
        - from: list
          to: items
    - name: catalog
      path: /catalog
      target: %[1]s
      authRequired: false
`

type upstreamCall struct {
	path       string
	credential string
}

func newTestServer(t *testing.T) (*GatewayServer, *store.MemoryStore, chan upstreamCall) {
	t.Helper()
	return newTestServerWithConfig(t, serverConfig)
}

// newTestServerWithConfig starts an upstream and a gateway whose config is format
// applied to the upstream URL.
func newTestServerWithConfig(t *testing.T, format string) (*GatewayServer, *store.MemoryStore, chan upstreamCall) {
	t.Helper()
	calls := make(chan upstreamCall, 10)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls <- upstreamCall{path: r.URL.Path, credential: r.Header.Get("AdminAuthorization")}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"list":[1,2]}`)
	}))
	t.Cleanup(upstream.Close)

	// NewGatewayServer exports the log settings; t.Setenv restores them.
	for _, env := range []string{"PROXY_LOG_LEVEL", "PROXY_LOG_FORMAT", "PROXY_LOG_FILE"} {
		t.Setenv(env, "")
	}
	gs, err := NewGatewayServer(context.Background(), writeConfig(t, fmt.Sprintf(format, upstream.URL)))
	require.NoError(t, err)
	st := store.NewMemoryStore(store.Options{})
	gs.store = st
	require.NoError(t, gs.Initialize())
	return gs, st, calls
}

func signSession(t *testing.T, st store.Store, userID int) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":    userID,
		"roles": []int{1},
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("session-secret"))
	require.NoError(t, err)
	require.NoError(t, st.AddToken(context.Background(), fmt.Sprint(userID), token))
	return token
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	gs, _, calls := newTestServer(t)
	h := gs.Handler()

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/healthz/routes", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, calls)
}

func TestUnmatchedPathIsNotFound(t *testing.T) {
	gs, _, calls := newTestServer(t)
	rec := serve(gs.Handler(), httptest.NewRequest(http.MethodGet, "/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"code":404,"message":"Not Found"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Empty(t, calls)
}

func TestProxiedThroughRouter(t *testing.T) {
	gs, st, calls := newTestServer(t)
	h := gs.Handler()

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/orders/1", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, calls)

	req := httptest.NewRequest(http.MethodGet, "/orders/1", nil)
	req.Header.Set("Authorization", "Bearer "+signSession(t, st, 42))
	rec = serve(h, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[1,2]}`, rec.Body.String())
	call := <-calls
	assert.Equal(t, "/api/1", call.path)
	assert.NotEmpty(t, call.credential)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/catalog/books", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	call = <-calls
	assert.Equal(t, "/books", call.path)
	assert.Empty(t, call.credential)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `proxy_center_requests_total{method="GET",route="orders",status="200"} 1`)
	assert.Contains(t, rec.Body.String(), `proxy_center_auth_rejections_total{route="orders"} 1`)
}

func TestReloadSwapsRoutes(t *testing.T) {
	gs, _, calls := newTestServer(t)
	h := gs.Handler()
	upstream := gs.proxy.Routes().Routes()[1].Target
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updated := fmt.Sprintf(`version: "1"
gateway:
  auth:
    secret: session-secret
    downstreamSecret: downstream-secret
  routes:
    - name: books
      path: /books
      target: %s
      authRequired: false
`, upstream)
	require.NoError(t, os.WriteFile(gs.configFile, []byte(updated), 0o644))
	require.NoError(t, gs.reload(ctx))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/books/1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/1", (<-calls).path)
	rec = serve(h, httptest.NewRequest(http.MethodGet, "/catalog/1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, os.WriteFile(gs.configFile, []byte("gateway:\n  routes: []\n"), 0o644))
	assert.Error(t, gs.reload(ctx))
	assert.Equal(t, 1, gs.proxy.Routes().Len())

	t.Run("changed auth settings need a restart", func(t *testing.T) {
		rotated := strings.Replace(updated, "downstream-secret", "rotated-secret", 1)
		require.NoError(t, os.WriteFile(gs.configFile, []byte(rotated), 0o644))
		err := gs.reload(ctx)
		var cerr *ConfigError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, "gateway.auth", cerr.Field)
		assert.Equal(t, "books", gs.proxy.Routes().Routes()[0].Name)
	})
}

const publicOnlyConfig = `version: "1"
gateway:
  log:
    level: "off"
  routes:
    - name: catalog
      path: /catalog
      target: %s
      authRequired: false
`

func TestReloadRejectsAuthRoutesWithoutVerifier(t *testing.T) {
	gs, _, calls := newTestServerWithConfig(t, publicOnlyConfig)
	require.Nil(t, gs.verifier)
	upstream := gs.proxy.Routes().Routes()[0].Target
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	withAuth := fmt.Sprintf(`version: "1"
gateway:
  auth:
    secret: session-secret
    downstreamSecret: downstream-secret
  routes:
    - name: orders
      path: /orders
      target: %[1]s
    - name: catalog
      path: /catalog
      target: %[1]s
      authRequired: false
`, upstream)
	require.NoError(t, os.WriteFile(gs.configFile, []byte(withAuth), 0o644))
	var cerr *ConfigError
	require.ErrorAs(t, gs.reload(ctx), &cerr)
	assert.Equal(t, 1, gs.proxy.Routes().Len())

	rec := serve(gs.Handler(), httptest.NewRequest(http.MethodGet, "/orders/1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, calls)

	// Same auth block, new auth-required route: still nothing to verify with.
	sameAuth := fmt.Sprintf(`version: "1"
gateway:
  routes:
    - name: orders
      path: /orders
      target: %s
`, upstream)
	g := &Gateway{}
	g.setDefaults()
	g.Routes = []proxy.RouteConfig{{Name: "orders", Path: "/orders", Target: upstream, AuthRequired: true}}
	require.ErrorAs(t, gs.reloadable(g), &cerr)
	assert.Equal(t, "gateway.routes", cerr.Field)
	require.NoError(t, os.WriteFile(gs.configFile, []byte(sameAuth), 0o644))
	assert.Error(t, gs.reload(ctx))
	assert.Equal(t, 1, gs.proxy.Routes().Len())
}

func TestRouteHealth(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer upstream.Close()

	routes := []proxy.RouteConfig{
		{Name: "up", Path: "/up", Target: upstream.URL + "/api", HealthCheck: &proxy.HealthCheck{Path: "/health"}},
		{Name: "down", Path: "/down", Target: upstream.URL, HealthCheck: &proxy.HealthCheck{Path: "/health"}},
		{Name: "picky", Path: "/picky", Target: upstream.URL + "/api", HealthCheck: &proxy.HealthCheck{Path: "/health", HealthyStatuses: []int{204}}},
	}
	table, err := proxy.NewRouteTable(routes)
	require.NoError(t, err)
	h := newRouteHealth(false)
	for _, route := range table.Routes() {
		h.record(context.Background(), route)
	}
	results := h.snapshot()
	require.Len(t, results, 3)
	status := map[string]string{}
	for _, r := range results {
		status[r.Name] = r.Status
	}
	assert.Equal(t, map[string]string{"down": "unhealthy", "picky": "unhealthy", "up": "healthy"}, status)
	assert.Equal(t, "down", results[0].Name)

	body, err := json.Marshal(results[0])
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "status code 503"))
}

func TestRouteHealthIgnoresSupersededRun(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()
	table, err := proxy.NewRouteTable([]proxy.RouteConfig{
		{Name: "removed", Path: "/removed", Target: upstream.URL, HealthCheck: &proxy.HealthCheck{Path: "/health"}},
	})
	require.NoError(t, err)
	route := table.Routes()[0]

	h := newRouteHealth(false)
	ctx, cancel := context.WithCancel(context.Background())
	h.record(ctx, route)
	require.Len(t, h.snapshot(), 1)

	cancel()
	h.start(context.Background(), nil)
	h.save(ctx, HealthCheckRouteResponse{Name: "removed", Status: "healthy"})
	assert.Empty(t, h.snapshot())
	h.record(ctx, route)
	assert.Empty(t, h.snapshot())
}
