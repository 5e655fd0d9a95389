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
	"time"

	"github.com/jkaninda/proxy-center/internal/store"
	"github.com/redis/go-redis/v9"
)

// initStore connects the credential store. Without a Redis address tokens live in memory
// and are lost on restart.
func (gatewayServer *GatewayServer) initStore(ctx context.Context) error {
	opts := store.Options{
		KeyPrefix:        gatewayServer.gateway.Redis.KeyPrefix,
		MaxTokensPerUser: gatewayServer.gateway.Auth.MaxTokensPerUser,
	}
	if len(gatewayServer.gateway.Redis.Addr) == 0 {
		logger.Warn("Redis is not configured, using the in-memory credential store")
		gatewayServer.store = store.NewMemoryStore(opts)
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     gatewayServer.gateway.Redis.Addr,
		Password: gatewayServer.gateway.Redis.Password,
		DB:       gatewayServer.gateway.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		// Startup continues; /readyz reports the outage until Redis answers.
		logger.Error("Failed to connect to Redis", "addr", gatewayServer.gateway.Redis.Addr, "error", err)
	} else {
		logger.Info("Connected to Redis", "addr", gatewayServer.gateway.Redis.Addr)
	}
	gatewayServer.redisClient = client
	gatewayServer.store = store.NewRedisStore(client, opts)
	return nil
}

func (gatewayServer *GatewayServer) closeStore() {
	if gatewayServer.store == nil {
		return
	}
	if err := gatewayServer.store.Close(); err != nil {
		logger.Error("Failed to close credential store", "error", err)
	}
}
