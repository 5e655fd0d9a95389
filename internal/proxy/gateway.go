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
	"io"
	"math"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/jkaninda/logger"
	"github.com/jkaninda/proxy-center/internal/auth"
	"github.com/jkaninda/proxy-center/internal/metrics"
	"github.com/jkaninda/proxy-center/internal/middlewares"
	"github.com/jkaninda/proxy-center/internal/transform"
	"github.com/jkaninda/proxy-center/util"
)

// TokenVerifier validates inbound session tokens.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (*auth.IdentityClaims, error)
}

// CredentialMinter signs downstream credentials.
type CredentialMinter interface {
	Mint(ctx context.Context, claims *auth.IdentityClaims) (string, error)
}

// RateLimiter spends one request from a keyed budget.
type RateLimiter interface {
	Allow(ctx context.Context, key string, rule middlewares.RateLimit) (bool, time.Duration, error)
}

type Options struct {
	Verifier    TokenVerifier
	Minter      CredentialMinter
	Dispatcher  *Dispatcher
	RateLimiter RateLimiter
	Metrics     *metrics.PrometheusMetrics
	Logger      *logger.Logger
	CookieName  string
}

// Gateway proxies requests matching a route table and lets everything else through.
type Gateway struct {
	routes     atomic.Pointer[RouteTable]
	verifier   TokenVerifier
	minter     CredentialMinter
	dispatcher *Dispatcher
	limiter    RateLimiter
	metrics    *metrics.PrometheusMetrics
	logger     *logger.Logger
	cookieName string
}

func NewGateway(table *RouteTable, opts Options) *Gateway {
	g := &Gateway{
		verifier:   opts.Verifier,
		minter:     opts.Minter,
		dispatcher: opts.Dispatcher,
		limiter:    opts.RateLimiter,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		cookieName: opts.CookieName,
	}
	if g.dispatcher == nil {
		g.dispatcher = NewDispatcher(DispatcherOptions{})
	}
	if g.logger == nil {
		g.logger = logger.Default()
	}
	if g.cookieName == "" {
		g.cookieName = auth.DefaultCookieName
	}
	g.routes.Store(table)
	return g
}

// SetRoutes swaps the route table. In-flight requests keep the table they matched against.
func (g *Gateway) SetRoutes(table *RouteTable) {
	g.routes.Store(table)
}

func (g *Gateway) Routes() *RouteTable {
	return g.routes.Load()
}

// Middleware proxies matched requests and hands unmatched ones to next untouched.
func (g *Gateway) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, ok := g.routes.Load().Match(r.URL.EscapedPath())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		g.serve(w, r, route)
	})
}

func (g *Gateway) serve(w http.ResponseWriter, r *http.Request, route *RouteConfig) {
	start := time.Now()
	sw := &statusWriter{ResponseWriter: w}
	defer func() {
		status := sw.status
		if status == 0 {
			status = StatusClientClosedRequest
		}
		duration := time.Since(start)
		g.metrics.ObserveRequest(route.Name, r.Method, status, duration)
		g.logResponse(status, r, route, duration)
	}()

	ctx := r.Context()
	claims, err := g.authenticate(ctx, r, route)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			g.metrics.AuthRejected(route.Name)
			g.logger.Debug("Rejected request", "route", route.Name, "path", r.URL.Path, "reason", err)
			middlewares.RespondWithError(sw, http.StatusUnauthorized, "")
			return
		}
		g.fail(ctx, sw, route, "Failed to verify credential", err)
		return
	}
	if !g.allow(sw, r, route, claims) {
		return
	}
	credential := ""
	if claims != nil && g.minter != nil {
		if credential, err = g.minter.Mint(ctx, claims); err != nil {
			g.fail(ctx, sw, route, "Failed to mint downstream credential", err)
			return
		}
	}
	out, err := buildOutbound(r, route, credential)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		g.logger.Warn("Failed to read request body", "route", route.Name, "error", err)
		middlewares.RespondWithError(sw, http.StatusBadRequest, "Invalid request body")
		return
	}
	resp, err := g.dispatcher.Dispatch(ctx, out)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		g.metrics.UpstreamError(route.Name)
		g.logger.Error("Upstream request failed", "route", route.Name, "target", route.Target, "error", err)
		message := err.Error()
		var uerr *UpstreamError
		if errors.As(err, &uerr) {
			message = uerr.Message()
		}
		middlewares.RespondWithError(sw, http.StatusInternalServerError, message)
		return
	}
	defer func() { _ = resp.Body.Close() }()
	g.reply(sw, r, resp, route)
}

// authenticate returns nil claims for anonymous requests on routes that allow them.
func (g *Gateway) authenticate(ctx context.Context, r *http.Request, route *RouteConfig) (*auth.IdentityClaims, error) {
	token := auth.ExtractToken(r, g.cookieName)
	if !route.AuthRequired && (token == "" || g.verifier == nil) {
		return nil, nil
	}
	if g.verifier == nil {
		return nil, errors.New("no token verifier configured")
	}
	claims, err := g.verifier.Verify(ctx, token)
	if err != nil && !route.AuthRequired {
		if errors.Is(err, auth.ErrUnauthorized) {
			g.logger.Debug("Ignoring invalid credential on public route", "route", route.Name, "reason", err)
		} else {
			g.logger.Warn("Credential check failed on public route, continuing anonymously", "route", route.Name, "error", err)
		}
		return nil, nil
	}
	return claims, err
}

func (g *Gateway) allow(w http.ResponseWriter, r *http.Request, route *RouteConfig, claims *auth.IdentityClaims) bool {
	if g.limiter == nil || !route.RateLimit.Enabled() {
		return true
	}
	key := util.Slug(route.Name) + ":ip:" + middlewares.RealIP(r)
	if claims != nil {
		key = util.Slug(route.Name) + ":user:" + claims.UserID.String()
	}
	ok, retryAfter, err := g.limiter.Allow(r.Context(), key, *route.RateLimit)
	if err != nil {
		g.logger.Error("Rate limiter unavailable, allowing request", "route", route.Name, "error", err)
		return true
	}
	if ok {
		return true
	}
	g.logger.Warn("Too many requests", "route", route.Name, "client_ip", middlewares.RealIP(r))
	w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
	middlewares.RespondWithError(w, http.StatusTooManyRequests, "Too many requests. Try again later.")
	return false
}

func (g *Gateway) fail(ctx context.Context, w http.ResponseWriter, route *RouteConfig, msg string, err error) {
	if ctx.Err() != nil {
		return
	}
	g.logger.Error(msg, "route", route.Name, "error", err)
	middlewares.RespondWithError(w, http.StatusInternalServerError, "")
}

// reply copies the upstream response. With response rules the body is buffered and
// transformed, otherwise it is streamed.
func (g *Gateway) reply(w http.ResponseWriter, r *http.Request, resp *http.Response, route *RouteConfig) {
	hasBody := r.Method != http.MethodHead && bodyAllowedForStatus(resp.StatusCode)
	if len(route.ResponseFieldRenames) == 0 || !hasBody {
		copyResponseHeader(w.Header(), resp.Header)
		switch {
		case hasBody && resp.ContentLength >= 0:
			w.Header().Set("Content-Length", strconv.FormatInt(resp.ContentLength, 10))
		case !hasBody && resp.Header.Get("Content-Length") != "":
			w.Header().Set("Content-Length", resp.Header.Get("Content-Length"))
		}
		w.WriteHeader(resp.StatusCode)
		if hasBody {
			if err := copyBody(w, resp.Body); err != nil {
				g.logger.Debug("Response stream interrupted", "route", route.Name, "error", err)
			}
		}
		return
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		g.metrics.UpstreamError(route.Name)
		g.logger.Error("Failed to read upstream response", "route", route.Name, "error", err)
		middlewares.RespondWithError(w, http.StatusInternalServerError, (&UpstreamError{Route: route.Name, Err: err}).Message())
		return
	}
	body = transform.TransformResponse(body, route.ResponseFieldRenames)
	copyResponseHeader(w.Header(), resp.Header)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(body)
}

func (g *Gateway) logResponse(status int, r *http.Request, route *RouteConfig, duration time.Duration) {
	fields := []any{
		"method", r.Method,
		"url", util.TruncateText(r.URL.Path, 256),
		"status", status,
		"duration", duration.String(),
		"route", route.Name,
		"client_ip", middlewares.RealIP(r),
		"request_id", middlewares.RequestID(r.Context()),
		"user_agent", r.UserAgent(),
	}
	switch {
	case status >= 500:
		g.logger.Error("Proxied request", fields...)
	case status >= 400:
		g.logger.Warn("Proxied request", fields...)
	default:
		g.logger.Info("Proxied request", fields...)
	}
}
