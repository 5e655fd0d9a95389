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
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/jkaninda/proxy-center/internal/proxy"
)

// watchConfig reloads the routes whenever the configuration file is written. It returns
// when ctx is done.
func (gatewayServer *GatewayServer) watchConfig(ctx context.Context) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("Failed to create watcher", "error", err)
		return
	}
	defer func(watcher *fsnotify.Watcher) {
		if err := watcher.Close(); err != nil {
			logger.Error("Failed to close watcher", "error", err)
		}
	}(watcher)
	file := filepath.Clean(gatewayServer.configFile)
	// Watching the directory survives editors that replace the file on save.
	if err = watcher.Add(filepath.Dir(file)); err != nil {
		logger.Error("Failed to watch configuration", "file", file, "error", err)
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != file || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			logger.Info("Configuration changes detected, reloading routes")
			if err := gatewayServer.reload(ctx); err != nil {
				logger.Error("Failed to reload configuration, keeping current routes", "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Error("Watcher error", "error", err)
		}
	}
}

// reload swaps in the routes of the configuration file. Other settings need a restart.
func (gatewayServer *GatewayServer) reload(ctx context.Context) error {
	c, err := LoadConfig(gatewayServer.configFile)
	if err != nil {
		return err
	}
	if err = gatewayServer.reloadable(&c.Gateway); err != nil {
		return err
	}
	table, err := proxy.NewRouteTable(c.Gateway.Routes)
	if err != nil {
		return err
	}
	gatewayServer.proxy.SetRoutes(table)
	gatewayServer.health.start(ctx, table.Routes())
	logger.Info("Routes reloaded", "route_count", table.Len())
	return nil
}

// reloadable rejects configurations the running verifier and minter cannot serve.
func (gatewayServer *GatewayServer) reloadable(g *Gateway) error {
	if g.Auth != gatewayServer.gateway.Auth {
		return &ConfigError{Field: "gateway.auth", Err: errors.New("authentication settings changed, a restart is required")}
	}
	if g.authRequired() && (gatewayServer.verifier == nil || gatewayServer.minter == nil) {
		return &ConfigError{Field: "gateway.routes", Err: errors.New("routes requiring authentication need a restart with auth configured")}
	}
	return nil
}
