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

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps credentials in Redis using the layout shared with the auth service:
// a hash {prefix}access_token:{userId} of token -> issuedAt (unix ms) and a JSON array
// under {prefix}role:{roleId}:permissions.
type RedisStore struct {
	client redis.UniversalClient
	opts   Options
	now    func() time.Time
}

func NewRedisStore(client redis.UniversalClient, opts Options) *RedisStore {
	return &RedisStore{client: client, opts: opts.withDefaults(), now: time.Now}
}

// Client exposes the underlying connection so the rate limiter can share it.
func (s *RedisStore) Client() redis.UniversalClient {
	return s.client
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) IsTokenActive(ctx context.Context, userID, token string) (bool, error) {
	if userID == "" || token == "" {
		return false, nil
	}
	ok, err := s.client.HExists(ctx, s.opts.tokenKey(userID), token).Result()
	if err != nil {
		return false, fmt.Errorf("store: lookup token: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) GetRolePermissions(ctx context.Context, roleID int64) ([]string, error) {
	val, err := s.client.Get(ctx, s.opts.roleKey(roleID)).Result()
	if errors.Is(err, redis.Nil) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read role %d permissions: %w", roleID, err)
	}
	permissions := []string{}
	if val == "" {
		return permissions, nil
	}
	if err := json.Unmarshal([]byte(val), &permissions); err != nil {
		return nil, fmt.Errorf("store: decode role %d permissions: %w", roleID, err)
	}
	return permissions, nil
}

// AddToken registers token for userID, evicting the oldest entries when the index is full.
func (s *RedisStore) AddToken(ctx context.Context, userID, token string) error {
	if userID == "" {
		return ErrInvalidUser
	}
	key := s.opts.tokenKey(userID)
	tokens, err := s.UserTokens(ctx, userID)
	if err != nil {
		return err
	}
	var evict []string
	// Re-registering a known token refreshes it in place.
	if !containsToken(tokens, token) {
		for len(tokens)-len(evict) >= s.opts.MaxTokensPerUser {
			o, _ := oldest(remaining(tokens, evict))
			evict = append(evict, o.Token)
		}
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(evict) > 0 {
			pipe.HDel(ctx, key, evict...)
		}
		pipe.HSet(ctx, key, token, strconv.FormatInt(s.now().UnixMilli(), 10))
		pipe.Expire(ctx, key, s.opts.TokenTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store: add token: %w", err)
	}
	return nil
}

func (s *RedisStore) RemoveToken(ctx context.Context, userID, token string) error {
	if err := s.client.HDel(ctx, s.opts.tokenKey(userID), token).Err(); err != nil {
		return fmt.Errorf("store: remove token: %w", err)
	}
	return nil
}

func (s *RedisStore) RemoveAllTokens(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, s.opts.tokenKey(userID)).Err(); err != nil {
		return fmt.Errorf("store: remove tokens: %w", err)
	}
	return nil
}

func (s *RedisStore) UserTokens(ctx context.Context, userID string) ([]ActiveToken, error) {
	entries, err := s.client.HGetAll(ctx, s.opts.tokenKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("store: list tokens: %w", err)
	}
	tokens := make([]ActiveToken, 0, len(entries))
	for token, ts := range entries {
		ms, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			ms = 0
		}
		tokens = append(tokens, ActiveToken{Token: token, IssuedAt: time.UnixMilli(ms)})
	}
	return tokens, nil
}

func (s *RedisStore) SetRolePermissions(ctx context.Context, roleID int64, permissions []string) error {
	if permissions == nil {
		permissions = []string{}
	}
	data, err := json.Marshal(permissions)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.opts.roleKey(roleID), data, 0).Err(); err != nil {
		return fmt.Errorf("store: write role %d permissions: %w", roleID, err)
	}
	return nil
}

func remaining(tokens []ActiveToken, removed []string) []ActiveToken {
	if len(removed) == 0 {
		return tokens
	}
	skip := make(map[string]struct{}, len(removed))
	for _, r := range removed {
		skip[r] = struct{}{}
	}
	out := make([]ActiveToken, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := skip[t.Token]; !ok {
			out = append(out, t)
		}
	}
	return out
}

func containsToken(tokens []ActiveToken, token string) bool {
	for _, t := range tokens {
		if t.Token == token {
			return true
		}
	}
	return false
}
