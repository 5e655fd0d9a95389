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
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jkaninda/proxy-center/internal/auth"
	"github.com/jkaninda/proxy-center/internal/metrics"
	"github.com/jkaninda/proxy-center/internal/middlewares"
	"github.com/jkaninda/proxy-center/internal/proxy"
	"github.com/jkaninda/proxy-center/internal/store"
	"github.com/jkaninda/proxy-center/pkg/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// GatewayServer owns the gateway configuration and every component built from it.
type GatewayServer struct {
	ctx         context.Context
	configFile  string
	gateway     *Gateway
	store       store.Store
	redisClient redis.UniversalClient
	proxy       *proxy.Gateway
	verifier    proxy.TokenVerifier
	minter      proxy.CredentialMinter
	registry    *prometheus.Registry
	health      *routeHealth
}

// NewGatewayServer loads and validates configFile.
func NewGatewayServer(ctx context.Context, configFile string) (*GatewayServer, error) {
	c, err := LoadConfig(configFile)
	if err != nil {
		return nil, err
	}
	c.Gateway.setEnv()
	logger = log.InitLogger()
	middlewares.SetLogger(logger)
	if c.Gateway.Proxy.Enabled {
		middlewares.SetTrustedProxies(&c.Gateway.Proxy)
	}
	return &GatewayServer{
		ctx:        ctx,
		configFile: configFile,
		gateway:    &c.Gateway,
	}, nil
}

// Initialize builds the credential store, the token verifier, the downstream minter,
// the dispatcher and the proxy gateway.
func (gatewayServer *GatewayServer) Initialize() error {
	g := gatewayServer.gateway
	if gatewayServer.store == nil {
		if err := gatewayServer.initStore(gatewayServer.ctx); err != nil {
			return err
		}
	}
	table, err := proxy.NewRouteTable(g.Routes)
	if err != nil {
		return err
	}
	gatewayServer.registry = prometheus.NewRegistry()
	var m *metrics.PrometheusMetrics
	if g.Monitoring.EnableMetrics {
		gatewayServer.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.NewPrometheusMetrics(gatewayServer.registry)
	}
	opts := proxy.Options{
		Dispatcher: proxy.NewDispatcher(proxy.DispatcherOptions{
			Timeout:            time.Duration(g.Upstream.Timeout) * time.Second,
			InsecureSkipVerify: g.Upstream.InsecureSkipVerify,
			CredentialHeader:   g.Auth.DownstreamHeader,
		}),
		Metrics:    m,
		Logger:     logger,
		CookieName: g.Auth.CookieName,
	}
	gatewayServer.verifier, gatewayServer.minter = nil, nil
	if g.Auth.Secret != "" || g.Auth.JwksUrl != "" {
		verifier, err := auth.NewVerifier(gatewayServer.ctx, auth.VerifierConfig{
			Secret:  g.Auth.Secret,
			JwksURL: g.Auth.JwksUrl,
		}, gatewayServer.store)
		if err != nil {
			return fmt.Errorf("token verifier: %w", err)
		}
		opts.Verifier = verifier
		gatewayServer.verifier = verifier
	}
	if g.Auth.DownstreamSecret != "" {
		minter, err := auth.NewMinter(gatewayServer.store, g.Auth.DownstreamSecret, g.downstreamTTL())
		if err != nil {
			return fmt.Errorf("downstream credential: %w", err)
		}
		opts.Minter = minter
		gatewayServer.minter = minter
	}
	if gatewayServer.redisClient != nil {
		opts.RateLimiter = middlewares.NewRateLimiter(gatewayServer.redisClient)
	} else if hasRateLimit(g.Routes) {
		logger.Warn("Rate limits are configured but Redis is not, rate limiting disabled")
	}
	gatewayServer.proxy = proxy.NewGateway(table, opts)
	gatewayServer.health = newRouteHealth(g.Upstream.InsecureSkipVerify)
	return nil
}

// Start initializes the gateway, serves HTTP and blocks until SIGINT or SIGTERM.
func (gatewayServer *GatewayServer) Start() error {
	intro()
	logger.Info("Initializing routes...")
	if err := gatewayServer.Initialize(); err != nil {
		return err
	}
	defer gatewayServer.closeStore()
	printRoutes(gatewayServer.gateway.Routes)
	logger.Debug("Initializing route completed", "route_count", gatewayServer.proxy.Routes().Len())

	ctx, cancel := context.WithCancel(gatewayServer.ctx)
	defer cancel()
	gatewayServer.health.start(ctx, gatewayServer.proxy.Routes().Routes())
	if gatewayServer.gateway.Watch {
		logger.Debug("Configuration watch enabled", "file", gatewayServer.configFile)
		go gatewayServer.watchConfig(ctx)
	}

	httpServer := gatewayServer.createServer(gatewayServer.gateway.EntryPoint, gatewayServer.Handler())
	go func() {
		logger.Info("Starting Web server on", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", "error", err)
		}
	}()
	return gatewayServer.shutdown(httpServer)
}

func (gatewayServer *GatewayServer) createServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		WriteTimeout: time.Second * time.Duration(gatewayServer.gateway.Timeouts.Write),
		ReadTimeout:  time.Second * time.Duration(gatewayServer.gateway.Timeouts.Read),
		IdleTimeout:  time.Second * time.Duration(gatewayServer.gateway.Timeouts.Idle),
		Handler:      handler,
	}
}

func (gatewayServer *GatewayServer) shutdown(httpServer *http.Server) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-gatewayServer.ctx.Done():
	}
	logger.Info("Shutting down Proxy Center...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down HTTP server", "error", err)
		return err
	}
	logger.Info("Proxy Center stopped")
	return nil
}

func hasRateLimit(routes []proxy.RouteConfig) bool {
	for _, route := range routes {
		if route.RateLimit.Enabled() {
			return true
		}
	}
	return false
}
