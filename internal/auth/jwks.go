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

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jkaninda/logger"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

const jwksRefreshInterval = 15 * time.Minute

// newJWKSKeyfunc resolves verification keys by kid from a cached, periodically refreshed JWKS.
func newJWKSKeyfunc(ctx context.Context, url string) (jwt.Keyfunc, error) {
	cache := jwk.NewCache(ctx)
	if err := cache.Register(url, jwk.WithMinRefreshInterval(jwksRefreshInterval)); err != nil {
		return nil, fmt.Errorf("auth: register JWKS %s: %w", url, err)
	}
	if _, err := cache.Refresh(ctx, url); err != nil {
		logger.Warn("Failed to fetch JWKS, will retry on first request", "url", url, "error", err)
	}
	return func(token *jwt.Token) (any, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("token has no kid header")
		}
		set, err := cache.Get(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("fetch JWKS: %w", err)
		}
		key, ok := set.LookupKeyID(kid)
		if !ok {
			return nil, fmt.Errorf("no matching JWK found for kid: %s", kid)
		}
		var raw any
		if err := key.Raw(&raw); err != nil {
			return nil, fmt.Errorf("decode JWK %s: %w", kid, err)
		}
		return raw, nil
	}, nil
}
