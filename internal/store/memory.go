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
	"slices"
	"sync"
	"time"
)

type memoryEntry struct {
	issuedAt time.Time
	seq      uint64
}

type memoryIndex struct {
	tokens    map[string]memoryEntry
	expiresAt time.Time
}

// MemoryStore is an in-process credential backend for development and tests.
// Token indexes expire like their Redis counterparts.
type MemoryStore struct {
	mu    sync.RWMutex
	opts  Options
	users map[string]*memoryIndex
	roles map[int64][]string
	seq   uint64
	now   func() time.Time
}

func NewMemoryStore(opts Options) *MemoryStore {
	return &MemoryStore{
		opts:  opts.withDefaults(),
		users: make(map[string]*memoryIndex),
		roles: make(map[int64][]string),
		now:   time.Now,
	}
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

// index returns the live index of a user, dropping it when expired. Callers hold the lock.
func (s *MemoryStore) index(userID string) *memoryIndex {
	idx, ok := s.users[userID]
	if !ok {
		return nil
	}
	if !s.now().Before(idx.expiresAt) {
		delete(s.users, userID)
		return nil
	}
	return idx
}

func (s *MemoryStore) IsTokenActive(_ context.Context, userID, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.index(userID)
	if idx == nil {
		return false, nil
	}
	_, ok := idx.tokens[token]
	return ok, nil
}

func (s *MemoryStore) GetRolePermissions(_ context.Context, roleID int64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.roles[roleID]), nil
}

func (s *MemoryStore) AddToken(_ context.Context, userID, token string) error {
	if userID == "" {
		return ErrInvalidUser
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.index(userID)
	if idx == nil {
		idx = &memoryIndex{tokens: make(map[string]memoryEntry)}
		s.users[userID] = idx
	}
	if _, exists := idx.tokens[token]; !exists {
		for len(idx.tokens) >= s.opts.MaxTokensPerUser {
			delete(idx.tokens, idx.oldest())
		}
	}
	s.seq++
	idx.tokens[token] = memoryEntry{issuedAt: s.now(), seq: s.seq}
	idx.expiresAt = s.now().Add(s.opts.TokenTTL)
	return nil
}

func (idx *memoryIndex) oldest() string {
	var (
		token string
		first memoryEntry
		found bool
	)
	for t, e := range idx.tokens {
		if !found || e.issuedAt.Before(first.issuedAt) || (e.issuedAt.Equal(first.issuedAt) && e.seq < first.seq) {
			token, first, found = t, e, true
		}
	}
	return token
}

func (s *MemoryStore) RemoveToken(_ context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.index(userID); idx != nil {
		delete(idx.tokens, token)
	}
	return nil
}

func (s *MemoryStore) RemoveAllTokens(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
	return nil
}

func (s *MemoryStore) UserTokens(_ context.Context, userID string) ([]ActiveToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.index(userID)
	if idx == nil {
		return []ActiveToken{}, nil
	}
	tokens := make([]ActiveToken, 0, len(idx.tokens))
	for t, e := range idx.tokens {
		tokens = append(tokens, ActiveToken{Token: t, IssuedAt: e.issuedAt})
	}
	return tokens, nil
}

func (s *MemoryStore) SetRolePermissions(_ context.Context, roleID int64, permissions []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if permissions == nil {
		permissions = []string{}
	}
	s.roles[roleID] = slices.Clone(permissions)
	return nil
}
