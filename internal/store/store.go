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
	"errors"
	"strconv"
	"time"
)

const (
	// DefaultKeyPrefix is shared with the companion auth service.
	DefaultKeyPrefix = "platformt_:"
	// DefaultMaxTokensPerUser bounds the active-token index per user.
	DefaultMaxTokensPerUser = 99
	// DefaultTokenTTL is the lifetime of a user's token index.
	DefaultTokenTTL = 30 * 24 * time.Hour
)

var ErrInvalidUser = errors.New("store: user id must not be empty")

// CredentialStore is the read side consulted on every authenticated request.
type CredentialStore interface {
	// IsTokenActive reports whether token is registered in the user's active-token index.
	IsTokenActive(ctx context.Context, userID, token string) (bool, error)
	// GetRolePermissions returns the cached permission list of a role.
	// A role without cached permissions yields an empty list and no error.
	GetRolePermissions(ctx context.Context, roleID int64) ([]string, error)
	Ping(ctx context.Context) error
}

// CredentialWriter maintains the active-token index and the role-permission cache.
type CredentialWriter interface {
	AddToken(ctx context.Context, userID, token string) error
	RemoveToken(ctx context.Context, userID, token string) error
	RemoveAllTokens(ctx context.Context, userID string) error
	UserTokens(ctx context.Context, userID string) ([]ActiveToken, error)
	SetRolePermissions(ctx context.Context, roleID int64, permissions []string) error
}

// Store is a complete credential backend.
type Store interface {
	CredentialStore
	CredentialWriter
	Close() error
}

// ActiveToken is one entry of a user's active-token index.
type ActiveToken struct {
	Token    string
	IssuedAt time.Time
}

type Options struct {
	KeyPrefix        string
	MaxTokensPerUser int
	TokenTTL         time.Duration
}

func (o Options) withDefaults() Options {
	if o.KeyPrefix == "" {
		o.KeyPrefix = DefaultKeyPrefix
	}
	if o.MaxTokensPerUser <= 0 {
		o.MaxTokensPerUser = DefaultMaxTokensPerUser
	}
	if o.TokenTTL <= 0 {
		o.TokenTTL = DefaultTokenTTL
	}
	return o
}

func (o Options) tokenKey(userID string) string {
	return o.KeyPrefix + "access_token:" + userID
}

func (o Options) roleKey(roleID int64) string {
	return o.KeyPrefix + "role:" + strconv.FormatInt(roleID, 10) + ":permissions"
}

// oldest returns the entry with the smallest issue time.
func oldest(tokens []ActiveToken) (ActiveToken, bool) {
	if len(tokens) == 0 {
		return ActiveToken{}, false
	}
	o := tokens[0]
	for _, t := range tokens[1:] {
		if t.IssuedAt.Before(o.IssuedAt) {
			o = t
		}
	}
	return o, true
}
