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
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jkaninda/proxy-center/internal/store"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultDownstreamHeader = "AdminAuthorization"
	DefaultDownstreamTTL    = 5 * time.Minute
)

// Minter signs the short-lived credential that downstream services trust.
type Minter struct {
	store  store.CredentialStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewMinter(st store.CredentialStore, secret string, ttl time.Duration) (*Minter, error) {
	if st == nil {
		return nil, errors.New("auth: credential store is required")
	}
	if secret == "" {
		return nil, errors.New("auth: downstream secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultDownstreamTTL
	}
	return &Minter{store: st, secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Permissions returns the union of the permissions of roles, in role order, without duplicates.
// Roles are read concurrently.
func (m *Minter) Permissions(ctx context.Context, roles RoleIDs) ([]string, error) {
	perRole := make([][]string, len(roles))
	g, gctx := errgroup.WithContext(ctx)
	for i, role := range roles {
		g.Go(func() error {
			perms, err := m.store.GetRolePermissions(gctx, role)
			if err != nil {
				return err
			}
			perRole[i] = perms
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	permissions := make([]string, 0)
	for _, perms := range perRole {
		for _, p := range perms {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			permissions = append(permissions, p)
		}
	}
	return permissions, nil
}

// Mint builds and signs the downstream credential for claims.
func (m *Minter) Mint(ctx context.Context, claims *IdentityClaims) (string, error) {
	permissions, err := m.Permissions(ctx, claims.Roles)
	if err != nil {
		return "", err
	}
	roles := claims.Roles
	if roles == nil {
		roles = RoleIDs{}
	}
	now := m.now()
	downstream := DownstreamClaims{
		UserID:      claims.UserID,
		Username:    claims.Username,
		Nickname:    claims.Nickname,
		Roles:       roles,
		UserType:    claims.UserType,
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, downstream).SignedString(m.secret)
}
