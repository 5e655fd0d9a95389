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
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jkaninda/proxy-center/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const downstreamSecret = "downstream-secret"

func parseDownstream(t *testing.T, raw string) *DownstreamClaims {
	t.Helper()
	claims := &DownstreamClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(downstreamSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)
	return claims
}

func TestMintMergesPermissions(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore(store.Options{})
	require.NoError(t, st.SetRolePermissions(ctx, 1, []string{"a", "b"}))
	require.NoError(t, st.SetRolePermissions(ctx, 2, []string{"b", "c"}))

	m, err := NewMinter(st, downstreamSecret, time.Minute)
	require.NoError(t, err)

	uid := NewUserID(7)
	raw, err := m.Mint(ctx, &IdentityClaims{UserID: uid, Username: "alice", Nickname: "Alice", Roles: RoleIDs{1, 2, 99}, UserType: float64(1)})
	require.NoError(t, err)

	claims := parseDownstream(t, raw)
	assert.Equal(t, []string{"a", "b", "c"}, claims.Permissions)
	assert.Equal(t, "7", claims.UserID.String())
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, RoleIDs{1, 2, 99}, claims.Roles)
	assert.Equal(t, float64(1), claims.UserType)
	require.NotNil(t, claims.ExpiresAt)
	require.NotNil(t, claims.IssuedAt)
	assert.Equal(t, time.Minute, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestMintWithoutRoles(t *testing.T) {
	st := store.NewMemoryStore(store.Options{})
	m, err := NewMinter(st, downstreamSecret, 0)
	require.NoError(t, err)

	raw, err := m.Mint(context.Background(), &IdentityClaims{UserID: NewUserID(1)})
	require.NoError(t, err)

	parser := jwt.NewParser()
	payload := jwt.MapClaims{}
	_, _, err = parser.ParseUnverified(raw, payload)
	require.NoError(t, err)
	assert.Equal(t, []any{}, payload["permissions"])
	assert.Equal(t, []any{}, payload["roles"])
}

type roleErrorStore struct{ store.CredentialStore }

func (roleErrorStore) GetRolePermissions(context.Context, int64) ([]string, error) {
	return nil, errors.New("redis down")
}

func TestMintPropagatesStoreErrors(t *testing.T) {
	m, err := NewMinter(roleErrorStore{}, downstreamSecret, 0)
	require.NoError(t, err)
	_, err = m.Mint(context.Background(), &IdentityClaims{UserID: NewUserID(1), Roles: RoleIDs{1}})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestNewMinterValidation(t *testing.T) {
	_, err := NewMinter(store.NewMemoryStore(store.Options{}), "", 0)
	assert.Error(t, err)
	_, err = NewMinter(nil, downstreamSecret, 0)
	assert.Error(t, err)
}
