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
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

// RateLimiter enforces RateLimit budgets with a shared Redis GCRA limiter,
// so every gateway instance draws from the same budget.
type RateLimiter struct {
	limiter *redis_rate.Limiter
}

func NewRateLimiter(client redis.UniversalClient) *RateLimiter {
	return &RateLimiter{limiter: redis_rate.NewLimiter(client)}
}

func limitFor(rule RateLimit) redis_rate.Limit {
	switch rule.Unit {
	case "hour":
		return redis_rate.PerHour(rule.RequestsPerUnit)
	case "minute":
		return redis_rate.PerMinute(rule.RequestsPerUnit)
	default:
		return redis_rate.PerSecond(rule.RequestsPerUnit)
	}
}

// Allow consumes one request from the budget of key. It returns how long to wait
// before retrying when the budget is exhausted.
func (rl *RateLimiter) Allow(ctx context.Context, key string, rule RateLimit) (bool, time.Duration, error) {
	res, err := rl.limiter.AllowN(ctx, "rate:"+key, limitFor(rule), 1)
	if err != nil {
		return false, 0, fmt.Errorf("rate limit: %w", err)
	}
	if res.Allowed == 0 {
		logger.Debug("RateLimit:: Too many requests", "key", key, "retry_after", res.RetryAfter)
		return false, res.RetryAfter, nil
	}
	return true, 0, nil
}
